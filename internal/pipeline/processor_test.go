package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/broker"
	"aegis/internal/logger"
	"aegis/internal/signal"
	"aegis/pkg/metrics"
)

type memoryWriter struct {
	events      []*signal.Event
	quarantined []*signal.QuarantineRecord
	eventErr    error
	quarErr     error
}

func (w *memoryWriter) WriteEvent(_ context.Context, event *signal.Event) error {
	if w.eventErr != nil {
		return w.eventErr
	}
	w.events = append(w.events, event)
	return nil
}

func (w *memoryWriter) WriteQuarantine(_ context.Context, record *signal.QuarantineRecord) error {
	if w.quarErr != nil {
		return w.quarErr
	}
	w.quarantined = append(w.quarantined, record)
	return nil
}

func (w *memoryWriter) Close(context.Context) error { return nil }

type redactorFunc func(ctx context.Context, event signal.Event) (signal.Event, error)

func (f redactorFunc) Redact(ctx context.Context, event signal.Event) (signal.Event, error) {
	return f(ctx, event)
}

func passthroughRedactor() redactorFunc {
	return func(_ context.Context, event signal.Event) (signal.Event, error) {
		return event, nil
	}
}

func msg(value string) broker.Message {
	return broker.Message{Topic: "signal-events", Value: []byte(value)}
}

func TestHandle_ConformantEventWritten(t *testing.T) {
	rec := metrics.NewMemoryRecorder()
	writer := &memoryWriter{}
	proc := NewProcessor(signal.NewParser(rec), passthroughRedactor(), writer, logger.NopLogger())

	err := proc.Handle(context.Background(), msg(`{"user_id":"u1","timestamp":"2024-05-01T10:00:00Z","event_details":{"context":"hello"}}`))
	require.NoError(t, err)

	require.Len(t, writer.events, 1)
	assert.Empty(t, writer.quarantined)
	assert.Equal(t, "u1", writer.events[0].UserID)
	assert.Equal(t, int64(1), rec.Count(metrics.ParsedRecordsSuccessfully))
}

func TestHandle_MalformedInputQuarantined(t *testing.T) {
	rec := metrics.NewMemoryRecorder()
	writer := &memoryWriter{}
	proc := NewProcessor(signal.NewParser(rec), passthroughRedactor(), writer, logger.NopLogger())

	err := proc.Handle(context.Background(), msg("not json"))
	require.NoError(t, err)

	assert.Empty(t, writer.events)
	require.Len(t, writer.quarantined, 1)
	assert.Equal(t, "not json", writer.quarantined[0].RawPayload)
	assert.Equal(t, int64(1), rec.Count(metrics.ParsingFailures))
}

func TestHandle_RedactionErrorQuarantines(t *testing.T) {
	writer := &memoryWriter{}
	failing := redactorFunc(func(_ context.Context, event signal.Event) (signal.Event, error) {
		return event, errors.New("redaction failed: service unavailable")
	})
	proc := NewProcessor(signal.NewParser(metrics.NewMemoryRecorder()), failing, writer, logger.NopLogger())

	raw := `{"user_id":"u1","event_details":{"context":"secret"}}`
	err := proc.Handle(context.Background(), msg(raw))
	require.NoError(t, err)

	assert.Empty(t, writer.events)
	require.Len(t, writer.quarantined, 1)
	assert.Contains(t, writer.quarantined[0].ErrorMessage, "redaction failed")
	assert.Equal(t, raw, writer.quarantined[0].RawPayload)
}

func TestHandle_SinkErrorPropagates(t *testing.T) {
	writer := &memoryWriter{eventErr: errors.New("store down")}
	proc := NewProcessor(signal.NewParser(metrics.NewMemoryRecorder()), passthroughRedactor(), writer, logger.NopLogger())

	err := proc.Handle(context.Background(), msg(`{"user_id":"u1"}`))
	require.Error(t, err)
}

func TestHandle_QuarantineWriteErrorPropagates(t *testing.T) {
	writer := &memoryWriter{quarErr: errors.New("store down")}
	proc := NewProcessor(signal.NewParser(metrics.NewMemoryRecorder()), passthroughRedactor(), writer, logger.NopLogger())

	err := proc.Handle(context.Background(), msg("not json"))
	require.Error(t, err)
}
