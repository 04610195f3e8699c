package outbox

import (
	"context"
	"errors"
	"time"

	domain "loanapp-backend/internal/domain/outbox"
	"loanapp-backend/internal/infrastructure/metrics"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Sink delivers one outbox message. Wrap an error in backoff.Permanent when
// retrying cannot help.
type Sink interface {
	Deliver(ctx context.Context, m domain.Message) error
}

type Config struct {
	PollInterval  time.Duration
	BatchSize     int
	RetryMaxTries uint
	MaxAttempts   int
	Retention     time.Duration
}

// Relay moves committed outbox messages to a Sink. Run it from a single goroutine.
type Relay struct {
	repo    domain.Repository
	sink    Sink
	cfg     Config
	metrics *metrics.Metrics
	log     *zap.Logger

	wake       chan struct{}
	now        func() time.Time
	newBackOff func() backoff.BackOff
}

func NewRelay(repo domain.Repository, sink Sink, cfg Config, m *metrics.Metrics, log *zap.Logger) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.RetryMaxTries == 0 {
		cfg.RetryMaxTries = 1
	}
	return &Relay{
		repo:    repo,
		sink:    sink,
		cfg:     cfg,
		metrics: m,
		log:     log,
		wake:    make(chan struct{}, 1),
		now:     time.Now,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
}

// Notify wakes the relay without waiting for the next poll. It never blocks.
func (r *Relay) Notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	poll := time.NewTicker(r.cfg.PollInterval)
	defer poll.Stop()

	var purge <-chan time.Time
	if r.cfg.Retention > 0 {
		t := time.NewTicker(r.cfg.Retention / 4)
		defer t.Stop()
		purge = t.C
	}

	r.log.Info("outbox relay started", zap.Duration("poll_interval", r.cfg.PollInterval))
	for {
		if n, err := r.Drain(ctx); err != nil && ctx.Err() == nil {
			r.log.Error("outbox drain failed", zap.Error(err))
		} else if n == r.cfg.BatchSize {
			// full batch: there may be more waiting
			r.Notify()
		}

		select {
		case <-ctx.Done():
			r.log.Info("outbox relay stopped")
			return nil
		case <-poll.C:
		case <-r.wake:
		case <-purge:
			r.Purge(ctx)
		}
	}
}

// Drain delivers one batch of pending messages and reports how many were delivered.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	msgs, err := r.repo.FetchPending(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	delivered := 0
	for _, m := range msgs {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		ok, err := r.deliver(ctx, m)
		if err != nil {
			return delivered, err
		}
		if ok {
			delivered++
		}
	}
	return delivered, nil
}

func (r *Relay) deliver(ctx context.Context, m domain.Message) (bool, error) {
	log := r.log.With(zap.String("message_id", m.MessageID), zap.String("event_type", m.EventType))

	var last error
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		last = r.sink.Deliver(ctx, m)
		return struct{}{}, last
	},
		backoff.WithBackOff(r.newBackOff()),
		backoff.WithMaxTries(r.cfg.RetryMaxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn("outbox delivery retry", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		}),
	)
	if err == nil {
		r.metrics.ObserveDelivery("delivered")
		if err := r.repo.MarkDelivered(ctx, m.ID); err != nil {
			return false, err
		}
		log.Debug("outbox message delivered", zap.Int("attempt", attempt))
		return true, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	maxAttempts := r.cfg.MaxAttempts
	var perm *backoff.PermanentError
	if errors.As(last, &perm) {
		maxAttempts = 1
	}
	if maxAttempts > 0 && m.Attempts+1 >= maxAttempts {
		r.metrics.ObserveDelivery("failed")
		log.Error("outbox message failed", zap.Int("attempts", m.Attempts+1), zap.Error(err))
	} else {
		r.metrics.ObserveDelivery("retry")
		log.Warn("outbox message left pending", zap.Int("attempts", m.Attempts+1), zap.Error(err))
	}
	return false, r.repo.MarkFailed(ctx, m.ID, err.Error(), maxAttempts)
}

// Purge drops delivered messages older than the retention window.
func (r *Relay) Purge(ctx context.Context) {
	n, err := r.repo.PurgeDelivered(ctx, r.now().UTC().Add(-r.cfg.Retention))
	if err != nil {
		r.log.Error("outbox purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		r.log.Info("outbox purged", zap.Int64("deleted", n))
	}
}
