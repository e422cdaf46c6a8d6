// Package notify delivers status-change events to the live event stream and
// to chat webhooks. Delivery is best-effort: failures are logged, never
// returned to the scan that produced the event.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Kind identifies the type of an event.
type Kind string

// Event kinds.
const (
	KindPartStatus    Kind = "part_status"
	KindProductStatus Kind = "product_status"
	KindSheetCut      Kind = "sheet_cut"
	KindHeartbeat     Kind = "heartbeat"
	KindDigest        Kind = "digest"
)

// Event is one notification. Which fields are set depends on Kind.
type Event struct {
	Kind          Kind      `json:"kind"`
	PartID        string    `json:"partId,omitempty"`
	PartNumber    string    `json:"partNumber,omitempty"`
	ProductID     string    `json:"productId,omitempty"`
	ProductNumber string    `json:"productNumber,omitempty"`
	SheetName     string    `json:"sheetName,omitempty"`
	OldStatus     string    `json:"oldStatus,omitempty"`
	Status        string    `json:"status,omitempty"`
	Location      string    `json:"location,omitempty"`
	Station       string    `json:"station,omitempty"`
	Count         int       `json:"count,omitempty"`
	Text          string    `json:"text,omitempty"`
	At            time.Time `json:"at"`
}

// Sink receives events. Notify must not block the caller for long and never
// fails: sinks that do I/O are wrapped in an Async.
type Sink interface {
	Notify(ctx context.Context, ev Event)
}

// Multi fans an event out to several sinks in order.
type Multi []Sink

// Notify implements Sink.
func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, ev)
		}
	}
}

// Nop discards every event.
type Nop struct{}

// Notify implements Sink.
func (Nop) Notify(context.Context, Event) {}

// LogSink writes every event to a zap logger at debug level.
type LogSink struct {
	Logger *zap.Logger
}

// Notify implements Sink.
func (l LogSink) Notify(_ context.Context, ev Event) {
	if l.Logger == nil {
		return
	}
	l.Logger.Debug("event",
		zap.String("kind", string(ev.Kind)),
		zap.String("part", ev.PartNumber),
		zap.String("product", ev.ProductNumber),
		zap.String("sheet", ev.SheetName),
		zap.String("status", ev.Status),
		zap.String("location", ev.Location),
	)
}

// Filter forwards only events of the given kinds.
func Filter(s Sink, kinds ...Kind) Sink {
	allowed := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}
	return filtered{sink: s, kinds: allowed}
}

type filtered struct {
	sink  Sink
	kinds map[Kind]bool
}

func (f filtered) Notify(ctx context.Context, ev Event) {
	if f.kinds[ev.Kind] {
		f.sink.Notify(ctx, ev)
	}
}
