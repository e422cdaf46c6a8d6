package notify

import (
	"context"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// webhookPoster posts a message to a Slack incoming webhook.
type webhookPoster func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// Slack posts events to a Slack incoming webhook.
type Slack struct {
	url    string
	post   webhookPoster
	logger *zap.Logger
}

// NewSlack returns a Slack sink for the given webhook URL.
func NewSlack(url string, logger *zap.Logger) *Slack {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Slack{url: url, post: slack.PostWebhookContext, logger: logger}
}

// Notify implements Sink.
func (s *Slack) Notify(ctx context.Context, ev Event) {
	if err := s.post(ctx, s.url, buildWebhookMessage(Format(ev))); err != nil {
		s.logger.Warn("slack: post webhook failed", zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
}

func buildWebhookMessage(m Message) *slack.WebhookMessage {
	att := slack.Attachment{
		Color:    m.Color,
		Title:    m.Title,
		Text:     m.Body,
		Fallback: m.Text(),
	}
	for _, f := range m.Fields {
		att.Fields = append(att.Fields, slack.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}
	return &slack.WebhookMessage{
		Text:        m.Text(),
		Attachments: []slack.Attachment{att},
	}
}
