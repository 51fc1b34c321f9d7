package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Poller drives the fixed-interval inbox refresh. Ticks are suppressed
// while the document is hidden and stop entirely when the context is
// cancelled. No backoff, no jitter: each tick is an idempotent refresh.
type Poller struct {
	inbox       *InboxService
	interval    time.Duration
	tickTimeout time.Duration
	logger      *zap.Logger
	ticks       metric.Int64Counter

	visible atomic.Bool
}

// NewPoller creates a poller that starts visible. The ticks counter may
// be nil.
func NewPoller(inbox *InboxService, interval, tickTimeout time.Duration, logger *zap.Logger, ticks metric.Int64Counter) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if tickTimeout <= 0 {
		tickTimeout = 2 * time.Second
	}

	p := &Poller{
		inbox:       inbox,
		interval:    interval,
		tickTimeout: tickTimeout,
		logger:      logger,
		ticks:       ticks,
	}
	p.visible.Store(true)
	return p
}

// SetVisible pauses or resumes polling on visibility changes.
func (p *Poller) SetVisible(v bool) {
	p.visible.Store(v)
	p.logger.Debug("Polling visibility changed", zap.Bool("visible", v))
}

// Visible reports whether ticks are currently allowed.
func (p *Poller) Visible() bool {
	return p.visible.Load()
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.visible.Load() {
				continue
			}
			if !p.inbox.HasUser() {
				continue
			}

			tickCtx, cancel := context.WithTimeout(ctx, p.tickTimeout)
			p.inbox.Tick(tickCtx)
			cancel()

			if p.ticks != nil {
				p.ticks.Add(ctx, 1)
			}
		}
	}
}
