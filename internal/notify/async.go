package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Async queues events for a slow sink and delivers them from one goroutine,
// so webhook latency never reaches a scan. Events are dropped when the queue
// is full.
type Async struct {
	sink   Sink
	logger *zap.Logger
	queue  chan Event
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewAsync wraps sink with a queue of the given size and starts delivering.
func NewAsync(sink Sink, size int, logger *zap.Logger) *Async {
	if size <= 0 {
		size = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Async{
		sink:   sink,
		logger: logger,
		queue:  make(chan Event, size),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.queue {
		a.sink.Notify(context.Background(), ev)
	}
}

// Notify implements Sink.
func (a *Async) Notify(_ context.Context, ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		a.logger.Warn("notify: event after close dropped", zap.String("kind", string(ev.Kind)))
		return
	}
	select {
	case a.queue <- ev:
	default:
		a.logger.Warn("notify: queue full, event dropped", zap.String("kind", string(ev.Kind)))
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}
