package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/izumo-civic/civicdata-service/internal/domain"
	"github.com/izumo-civic/civicdata-service/internal/observability"
)

// Collector produces one aggregated parking snapshot.
type Collector interface {
	Collect(ctx context.Context) (domain.ParkingData, error)
}

// SnapshotLoader writes every lot of a snapshot to the destination.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, data domain.ParkingData) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Publisher periodically collects parking snapshots and hands them to a
// loader.
type Publisher struct {
	collector Collector
	loader    SnapshotLoader
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Publisher that runs one cycle every interval.
func New(c Collector, l SnapshotLoader, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	return &Publisher{
		collector: c,
		loader:    l,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one snapshot has been published,
// or an error describing why the service is not yet ready.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("publisher has not published a snapshot yet")
	}
	return nil
}

// Run executes the collect-publish loop until the context is cancelled.
// A failed cycle is retried with exponential backoff instead of waiting
// for the next interval.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("publisher started", "interval", p.interval)
	p.metrics.PublisherRunning.Set(1)
	defer p.metrics.PublisherRunning.Set(0)

	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("publisher stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if p.publishOnce(ctx) {
			backoff = initialBackoff
			if !sleepWithContext(ctx, p.interval) {
				p.logger.Info("publisher stopping", "reason", ctx.Err())
				return nil
			}
			continue
		}

		if !p.backoffOrStop(ctx, &backoff) {
			p.logger.Info("publisher stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// publishOnce runs one collect-load cycle and reports whether it succeeded.
func (p *Publisher) publishOnce(ctx context.Context) bool {
	data, err := p.collector.Collect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("collect snapshot failed", "error", err)
		p.metrics.PublishErrors.Inc()
		return false
	}

	if err := p.loader.LoadSnapshot(ctx, data); err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("publish snapshot failed", "error", err, "lots", data.Count)
		p.metrics.PublishErrors.Inc()
		return false
	}

	p.metrics.SnapshotsPublished.Inc()
	p.metrics.LotsPublished.Add(float64(len(data.Data)))
	p.ready.Store(true)
	p.logger.Info("snapshot published", "lots", len(data.Data), "areas", len(data.Areas))
	return true
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the publisher should stop.
func (p *Publisher) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
