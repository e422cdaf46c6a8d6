package notify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/slack-go/slack"
	"github.com/zulandar/shopfloor/internal/config"
	"github.com/zulandar/shopfloor/internal/metrics"
	"github.com/zulandar/shopfloor/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestMultiAndFilter(t *testing.T) {
	all, chat := &recorder{}, &recorder{}
	sink := Multi{all, nil, Filter(chat, KindProductStatus)}

	sink.Notify(context.Background(), Event{Kind: KindPartStatus, PartNumber: "B24-SIDE"})
	sink.Notify(context.Background(), Event{Kind: KindProductStatus, ProductNumber: "B24"})

	if got := len(all.Events()); got != 2 {
		t.Errorf("all events = %d, want 2", got)
	}
	events := chat.Events()
	if len(events) != 1 {
		t.Fatalf("chat events = %d, want 1", len(events))
	}
	if events[0].ProductNumber != "B24" {
		t.Errorf("ProductNumber = %q, want B24", events[0].ProductNumber)
	}
}

func TestHub_FanOutAndCancel(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelB()
	if h.Subscribers() != 2 {
		t.Fatalf("Subscribers() = %d, want 2", h.Subscribers())
	}

	h.Notify(context.Background(), Event{Kind: KindHeartbeat})
	if ev := <-a; ev.Kind != KindHeartbeat {
		t.Errorf("a got %q", ev.Kind)
	}
	if ev := <-b; ev.Kind != KindHeartbeat {
		t.Errorf("b got %q", ev.Kind)
	}

	cancelA()
	cancelA()
	if h.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", h.Subscribers())
	}
	if _, open := <-a; open {
		t.Error("cancelled subscription should be closed")
	}
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe()
	defer cancel()

	before := testutil.ToFloat64(metrics.LiveEventsDropped)
	for i := 0; i < subscriberBuffer+5; i++ {
		h.Notify(context.Background(), Event{Kind: KindPartStatus})
	}
	if h.Dropped() != 5 {
		t.Errorf("Dropped() = %d, want 5", h.Dropped())
	}
	if got := testutil.ToFloat64(metrics.LiveEventsDropped) - before; got != 5 {
		t.Errorf("dropped metric delta = %v, want 5", got)
	}
}

func TestAsync_DeliversAndDrains(t *testing.T) {
	rec := &recorder{}
	a := NewAsync(rec, 16, nil)
	for i := 0; i < 10; i++ {
		a.Notify(context.Background(), Event{Kind: KindPartStatus, Count: i})
	}
	a.Close()
	if got := len(rec.Events()); got != 10 {
		t.Fatalf("delivered = %d, want 10", got)
	}

	a.Notify(context.Background(), Event{Kind: KindPartStatus})
	a.Close()
	if got := len(rec.Events()); got != 10 {
		t.Errorf("delivered after close = %d, want 10", got)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		ev    Event
		title string
		color string
	}{
		{"product complete", Event{Kind: KindProductStatus, ProductNumber: "B24", Status: models.ProductComplete, Count: 4}, "Product B24 assembled", ColorSuccess},
		{"product started", Event{Kind: KindProductStatus, ProductNumber: "B24", Status: models.ProductInProgress}, "Product B24 started", ColorInfo},
		{"sheet cut", Event{Kind: KindSheetCut, SheetName: "Sheet 1", Count: 3}, "Sheet Sheet 1 cut", ColorInfo},
		{"part sorted", Event{Kind: KindPartStatus, PartNumber: "B24-SIDE", Status: models.PartSorted, Location: "Rack-A R1C2"}, "Part B24-SIDE Sorted", ColorInfo},
		{"digest", Event{Kind: KindDigest, Text: "12 parts sorted"}, "Shop floor digest", ColorInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Format(tt.ev)
			if m.Title != tt.title {
				t.Errorf("Title = %q, want %q", m.Title, tt.title)
			}
			if m.Color != tt.color {
				t.Errorf("Color = %q, want %q", m.Color, tt.color)
			}
		})
	}

	m := Format(Event{Kind: KindSheetCut, SheetName: "S1", Count: 3, Station: "CNC-1"})
	if m.Text() != "Sheet S1 cut: 3 parts ready to sort" {
		t.Errorf("Text() = %q", m.Text())
	}
	if len(m.Fields) != 1 || m.Fields[0].Value != "CNC-1" {
		t.Errorf("Fields = %+v, want one station field", m.Fields)
	}
}

func TestSlack_PostsAttachment(t *testing.T) {
	var got *slack.WebhookMessage
	var gotURL string
	s := NewSlack("https://hooks.slack.test/T000/B000/XXX", nil)
	s.post = func(_ context.Context, url string, msg *slack.WebhookMessage) error {
		gotURL, got = url, msg
		return nil
	}

	s.Notify(context.Background(), Event{Kind: KindProductStatus, ProductNumber: "B24", Status: models.ProductShipped, Count: 2})

	if got == nil {
		t.Fatal("webhook not posted")
	}
	if gotURL != "https://hooks.slack.test/T000/B000/XXX" {
		t.Errorf("url = %q", gotURL)
	}
	if got.Text != "Product B24 shipped" {
		t.Errorf("Text = %q", got.Text)
	}
	if len(got.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(got.Attachments))
	}
	att := got.Attachments[0]
	if att.Color != ColorSuccess {
		t.Errorf("Color = %q, want %q", att.Color, ColorSuccess)
	}
	if len(att.Fields) != 1 || att.Fields[0].Value != "2" {
		t.Errorf("Fields = %+v, want one parts field", att.Fields)
	}
}

func TestSlack_FailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := NewSlack("https://hooks.slack.test/x", zap.New(core))
	s.post = func(context.Context, string, *slack.WebhookMessage) error {
		return errors.New("connection refused")
	}

	s.Notify(context.Background(), Event{Kind: KindDigest})
	if n := logs.FilterMessage("slack: post webhook failed").Len(); n != 1 {
		t.Errorf("logged failures = %d, want 1", n)
	}
}

type fakeWebhook struct {
	calls  int
	errs   []error
	params *discordgo.WebhookParams
	id     string
}

func (f *fakeWebhook) WebhookExecute(webhookID, _ string, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.calls++
	f.id, f.params = webhookID, data
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &discordgo.Message{}, nil
}

func newTestDiscord(t *testing.T, fake *fakeWebhook) *Discord {
	t.Helper()
	d, err := NewDiscord("123", "token", nil)
	if err != nil {
		t.Fatalf("NewDiscord: %v", err)
	}
	d.session = fake
	d.baseBackoff = time.Millisecond
	d.maxBackoff = 2 * time.Millisecond
	return d
}

func TestDiscord_RetriesRateLimit(t *testing.T) {
	rateLimited := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
	fake := &fakeWebhook{errs: []error{rateLimited, rateLimited}}
	d := newTestDiscord(t, fake)

	d.Notify(context.Background(), Event{Kind: KindSheetCut, SheetName: "S1", Count: 3})

	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}
	if fake.id != "123" {
		t.Errorf("webhook id = %q, want 123", fake.id)
	}
	if len(fake.params.Embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(fake.params.Embeds))
	}
	if fake.params.Embeds[0].Color != 0x2196f3 {
		t.Errorf("Color = %#x, want 0x2196f3", fake.params.Embeds[0].Color)
	}
}

func TestDiscord_OtherErrorsNotRetried(t *testing.T) {
	fake := &fakeWebhook{errs: []error{errors.New("boom")}}
	d := newTestDiscord(t, fake)

	d.Notify(context.Background(), Event{Kind: KindDigest})
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1", fake.calls)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex  string
		want int
	}{
		{"#36a64f", 0x36a64f},
		{"FF9800", 0xFF9800},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseHexColor(tt.hex); got != tt.want {
			t.Errorf("parseHexColor(%q) = %#x, want %#x", tt.hex, got, tt.want)
		}
	}
}

func TestChat(t *testing.T) {
	sink, closeFn, err := Chat(config.NotifyConfig{}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if sink != nil {
		t.Errorf("sink = %v, want nil without webhooks", sink)
	}
	closeFn()

	sink, closeFn, err = Chat(config.NotifyConfig{SlackWebhookURL: "https://hooks.slack.test/x"}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if sink == nil {
		t.Error("sink = nil, want slack sink")
	}
	closeFn()
}

func TestScheduler(t *testing.T) {
	if _, err := NewScheduler(ScheduleOpts{Heartbeat: "every now and then", Heartbeats: &recorder{}}); err == nil {
		t.Fatal("expected error for invalid heartbeat schedule")
	}

	beats, digests := &recorder{}, &recorder{}
	s, err := NewScheduler(ScheduleOpts{
		Heartbeat:  "@every 1s",
		Digest:     "0 17 * * 1-5",
		Heartbeats: beats,
		Digests:    digests,
		BuildDigest: func(context.Context) (Event, error) {
			return Event{Kind: KindDigest}, nil
		},
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	if s.Jobs() != 2 {
		t.Errorf("Jobs() = %d, want 2", s.Jobs())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for len(beats.Events()) == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	events := beats.Events()
	if len(events) == 0 {
		t.Fatal("no heartbeat within 3s")
	}
	if events[0].Kind != KindHeartbeat {
		t.Errorf("Kind = %q, want heartbeat", events[0].Kind)
	}
	if len(digests.Events()) != 0 {
		t.Errorf("digests = %d, want 0", len(digests.Events()))
	}
}
