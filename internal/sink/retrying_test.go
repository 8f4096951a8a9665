package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/config"
	"aegis/internal/logger"
	"aegis/internal/signal"
)

type flakyWriter struct {
	failures    int
	eventCalls  int
	quarCalls   int
	events      []*signal.Event
	quarantined []*signal.QuarantineRecord
}

func (w *flakyWriter) WriteEvent(_ context.Context, event *signal.Event) error {
	w.eventCalls++
	if w.eventCalls <= w.failures {
		return errors.New("transient store error")
	}
	w.events = append(w.events, event)
	return nil
}

func (w *flakyWriter) WriteQuarantine(_ context.Context, record *signal.QuarantineRecord) error {
	w.quarCalls++
	if w.quarCalls <= w.failures {
		return errors.New("transient store error")
	}
	w.quarantined = append(w.quarantined, record)
	return nil
}

func (w *flakyWriter) Close(context.Context) error { return nil }

func fastRetryConfig(maxAttempts int) config.RetryConfig {
	return config.RetryConfig{
		MaxAttempts:     maxAttempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      1.0,
	}
}

func TestRetryingWriter_RecoversFromTransientFailure(t *testing.T) {
	inner := &flakyWriter{failures: 2}
	w := NewRetryingWriter(inner, fastRetryConfig(5), logger.NopLogger())

	err := w.WriteEvent(context.Background(), &signal.Event{UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, 3, inner.eventCalls)
	require.Len(t, inner.events, 1)
	assert.Equal(t, "u1", inner.events[0].UserID)
}

func TestRetryingWriter_ExhaustsAttempts(t *testing.T) {
	inner := &flakyWriter{failures: 100}
	w := NewRetryingWriter(inner, fastRetryConfig(3), logger.NopLogger())

	err := w.WriteQuarantine(context.Background(), &signal.QuarantineRecord{ErrorMessage: "bad input"})
	require.Error(t, err)
	assert.Equal(t, 3, inner.quarCalls)
	assert.Empty(t, inner.quarantined)
}
