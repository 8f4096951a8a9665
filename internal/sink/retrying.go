package sink

import (
	"context"
	"time"

	"aegis/internal/config"
	"aegis/internal/logger"
	"aegis/internal/signal"
	"aegis/pkg/metrics"
	"aegis/pkg/retry"
)

// RetryingWriter retries transient write failures before surfacing them to
// the consumer loop.
type RetryingWriter struct {
	next   Writer
	policy retry.Policy
	logger logger.Logger
}

func NewRetryingWriter(next Writer, cfg config.RetryConfig, log logger.Logger) *RetryingWriter {
	policy := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialInterval > 0 {
		policy.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		policy.MaxInterval = cfg.MaxInterval
	}
	if cfg.Multiplier > 0 {
		policy.Multiplier = cfg.Multiplier
	}
	if cfg.MaxElapsedTime > 0 {
		policy.MaxElapsedTime = cfg.MaxElapsedTime
	}
	return &RetryingWriter{next: next, policy: policy, logger: log}
}

func (w *RetryingWriter) WriteEvent(ctx context.Context, event *signal.Event) error {
	return w.withRetry(ctx, "event", func() error {
		return w.next.WriteEvent(ctx, event)
	})
}

func (w *RetryingWriter) WriteQuarantine(ctx context.Context, record *signal.QuarantineRecord) error {
	return w.withRetry(ctx, "quarantine", func() error {
		return w.next.WriteQuarantine(ctx, record)
	})
}

func (w *RetryingWriter) Close(ctx context.Context) error {
	return w.next.Close(ctx)
}

func (w *RetryingWriter) withRetry(ctx context.Context, destination string, fn func() error) error {
	return retry.RetryWithCallback(ctx, w.policy, fn, func(attempt int, err error, nextDelay time.Duration) {
		metrics.RetryAttemptsTotal.WithLabelValues("sink", destination).Inc()
		w.logger.WarnwCtx(ctx, "Retrying sink write",
			"destination", destination,
			"attempt", attempt,
			"next_delay", nextDelay,
			"error", err,
		)
	})
}
