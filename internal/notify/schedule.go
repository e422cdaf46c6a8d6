package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Parser accepts standard 5-field cron expressions and descriptors such as
// "@every 15s" or "@daily".
var Parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// DigestFunc builds the end-of-day digest event.
type DigestFunc func(ctx context.Context) (Event, error)

// ScheduleOpts configures a Scheduler.
type ScheduleOpts struct {
	Heartbeat   string // cron spec; empty disables the heartbeat
	Digest      string // cron spec; empty disables the digest
	BuildDigest DigestFunc
	Heartbeats  Sink // receives heartbeat events (the live stream)
	Digests     Sink // receives digest events (chat)
	Logger      *zap.Logger
}

// Scheduler emits periodic heartbeat and digest events.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler validates the cron specs and registers the jobs.
func NewScheduler(opts ScheduleOpts) (*Scheduler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New(cron.WithParser(Parser))
	s := &Scheduler{cron: c}

	if opts.Heartbeat != "" && opts.Heartbeats != nil {
		sink := opts.Heartbeats
		if _, err := c.AddFunc(opts.Heartbeat, func() {
			sink.Notify(context.Background(), Event{Kind: KindHeartbeat, At: time.Now().UTC()})
		}); err != nil {
			return nil, fmt.Errorf("notify: heartbeat schedule %q: %w", opts.Heartbeat, err)
		}
	}
	if opts.Digest != "" && opts.Digests != nil && opts.BuildDigest != nil {
		sink, build := opts.Digests, opts.BuildDigest
		if _, err := c.AddFunc(opts.Digest, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			ev, err := build(ctx)
			if err != nil {
				logger.Error("notify: build digest failed", zap.Error(err))
				return
			}
			sink.Notify(ctx, ev)
		}); err != nil {
			return nil, fmt.Errorf("notify: digest schedule %q: %w", opts.Digest, err)
		}
	}
	return s, nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
