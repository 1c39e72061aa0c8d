package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/aq2208/stockroom-api/internal/logging"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

const maxRetryDelay = 5 * time.Minute

type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// OutboxRelay polls the outbox table and publishes pending rows in id order.
// Delivery is at least once: a crash between publish and MarkSent resends the row.
type OutboxRelay struct {
	store      usecase.OutboxStore
	pub        Publisher
	interval   time.Duration
	batch      int
	maxRetries int
	now        func() time.Time
	log        *slog.Logger
}

type RelayConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

func NewOutboxRelay(store usecase.OutboxStore, pub Publisher, cfg RelayConfig) *OutboxRelay {
	r := &OutboxRelay{
		store:      store,
		pub:        pub,
		interval:   cfg.Interval,
		batch:      cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		now:        time.Now,
		log:        logging.New("outbox-relay"),
	}
	if r.interval <= 0 {
		r.interval = time.Second
	}
	if r.batch <= 0 {
		r.batch = 100
	}
	if r.maxRetries <= 0 {
		r.maxRetries = 10
	}
	return r
}

// Run blocks until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	r.log.Info("outbox relay started", "interval", r.interval, "batch", r.batch)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("outbox relay stopped")
			return
		case <-t.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("outbox relay pass failed", "err", err)
			}
		}
	}
}

// RunOnce publishes one batch and returns how many rows were sent.
func (r *OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	msgs, err := r.store.FetchPending(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, m := range msgs {
		if err := r.pub.Publish(ctx, m.Channel, m.Payload); err != nil {
			r.fail(ctx, m, err)
			continue
		}
		if err := r.store.MarkSent(ctx, m.ID); err != nil {
			return sent, err
		}
		outboxPublished.WithLabelValues("sent").Inc()
		sent++
	}
	return sent, nil
}

func (r *OutboxRelay) fail(ctx context.Context, m usecase.OutboxMessage, cause error) {
	dead := m.RetryCount+1 >= r.maxRetries
	retryAt := r.now().Add(backoff(m.RetryCount))
	result := "retry"
	if dead {
		result = "dead"
	}
	outboxPublished.WithLabelValues(result).Inc()
	r.log.Warn("outbox publish failed",
		"id", m.ID, "channel", m.Channel, "retry", m.RetryCount, "dead", dead, "err", cause)
	if err := r.store.MarkFailed(ctx, m.ID, cause.Error(), retryAt, dead); err != nil {
		r.log.Error("outbox mark failed", "id", m.ID, "err", err)
	}
}

// backoff doubles from one second and caps at maxRetryDelay.
func backoff(retry int) time.Duration {
	if retry > 9 {
		return maxRetryDelay
	}
	d := time.Second << retry
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}
