package redact

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/config"
	"aegis/internal/logger"
	"aegis/internal/signal"
	"aegis/pkg/metrics"
)

type fakeDeidentifier struct {
	fn    func(text string) (string, error)
	calls int
}

func (f *fakeDeidentifier) Deidentify(_ context.Context, text string) (string, error) {
	f.calls++
	return f.fn(text)
}

func identity() *fakeDeidentifier {
	return &fakeDeidentifier{fn: func(text string) (string, error) { return text, nil }}
}

func newTestService(client *fakeDeidentifier, cfg config.RedactionConfig, rec metrics.Recorder) *Service {
	return NewService(client, cfg, nil, rec, logger.NopLogger())
}

func testEvent() signal.Event {
	return signal.Event{
		UserID:    "user-1",
		Timestamp: "2024-05-01T10:00:00Z",
		EventDetails: &signal.EventDetails{
			Context:              "contact me at jane.doe@example.com",
			CorroboratingSignals: []string{"my number is 555-0100", "meet after school"},
		},
	}
}

func TestRedact_IdentityRoundTrip(t *testing.T) {
	rec := metrics.NewMemoryRecorder()
	client := identity()
	svc := newTestService(client, config.RedactionConfig{}, rec)

	in := testEvent()
	out, err := svc.Redact(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, in.EventDetails.Context, out.EventDetails.Context)
	assert.Equal(t, in.EventDetails.CorroboratingSignals, out.EventDetails.CorroboratingSignals)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, int64(1), rec.Count(metrics.DLPAPICalls))
	assert.Equal(t, int64(0), rec.Count(metrics.DLPFailures))
}

func TestRedact_ReplacesPII(t *testing.T) {
	rec := metrics.NewMemoryRecorder()
	client := &fakeDeidentifier{fn: func(text string) (string, error) {
		redacted := strings.ReplaceAll(text, "jane.doe@example.com", "[EMAIL_ADDRESS]")
		redacted = strings.ReplaceAll(redacted, "555-0100", "[PHONE_NUMBER]")
		return redacted, nil
	}}
	svc := newTestService(client, config.RedactionConfig{}, rec)

	out, err := svc.Redact(context.Background(), testEvent())
	require.NoError(t, err)

	assert.Equal(t, "contact me at [EMAIL_ADDRESS]", out.EventDetails.Context)
	assert.Equal(t, []string{"my number is [PHONE_NUMBER]", "meet after school"}, out.EventDetails.CorroboratingSignals)
	assert.Equal(t, int64(1), rec.Count(metrics.DLPAPICalls))
}

func TestRedact_EmptyTextSkipsCall(t *testing.T) {
	rec := metrics.NewMemoryRecorder()
	client := identity()
	svc := newTestService(client, config.RedactionConfig{}, rec)

	tests := []struct {
		name  string
		event signal.Event
	}{
		{"nil details", signal.Event{UserID: "u1"}},
		{"empty details", signal.Event{UserID: "u1", EventDetails: &signal.EventDetails{}}},
		{"empty strings", signal.Event{UserID: "u1", EventDetails: &signal.EventDetails{
			Context:              "",
			CorroboratingSignals: []string{"", ""},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.Redact(context.Background(), tt.event)
			require.NoError(t, err)
			require.NotNil(t, out.EventDetails)
		})
	}

	assert.Equal(t, 0, client.calls)
	assert.Equal(t, int64(0), rec.Count(metrics.DLPAPICalls))
}

func TestRedact_SegmentMismatchFailsOpen(t *testing.T) {
	rec := metrics.NewMemoryRecorder()
	client := &fakeDeidentifier{fn: func(string) (string, error) {
		return "collapsed into one line", nil
	}}
	svc := newTestService(client, config.RedactionConfig{}, rec)

	in := testEvent()
	out, err := svc.Redact(context.Background(), in)
	require.NoError(t, err)

	// fail_open keeps the original text intact.
	assert.Equal(t, in.EventDetails.Context, out.EventDetails.Context)
	assert.Equal(t, in.EventDetails.CorroboratingSignals, out.EventDetails.CorroboratingSignals)
	assert.Equal(t, int64(0), rec.Count(metrics.DLPAPICalls))
	assert.Equal(t, int64(1), rec.Count(metrics.DLPFailures))
}

func TestRedact_ClientErrorFailsOpen(t *testing.T) {
	rec := metrics.NewMemoryRecorder()
	client := &fakeDeidentifier{fn: func(string) (string, error) {
		return "", errors.New("service unavailable")
	}}
	svc := newTestService(client, config.RedactionConfig{}, rec)

	in := testEvent()
	out, err := svc.Redact(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, in.EventDetails.Context, out.EventDetails.Context)
	assert.Equal(t, int64(1), rec.Count(metrics.DLPFailures))
}

func TestRedact_FailClosedReturnsError(t *testing.T) {
	rec := metrics.NewMemoryRecorder()
	client := &fakeDeidentifier{fn: func(string) (string, error) {
		return "", errors.New("service unavailable")
	}}
	svc := newTestService(client, config.RedactionConfig{OnFailure: "fail_closed"}, rec)

	_, err := svc.Redact(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user-1")
	assert.Equal(t, int64(1), rec.Count(metrics.DLPFailures))
}

type mapCache struct {
	entries map[string]string
}

func (c *mapCache) Get(_ context.Context, text string) (string, bool) {
	v, ok := c.entries[text]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, text, redacted string) {
	c.entries[text] = redacted
}

func TestRedact_CacheSkipsSecondCall(t *testing.T) {
	rec := metrics.NewMemoryRecorder()
	client := identity()
	cache := &mapCache{entries: make(map[string]string)}
	svc := NewService(client, config.RedactionConfig{}, cache, rec, logger.NopLogger())

	_, err := svc.Redact(context.Background(), testEvent())
	require.NoError(t, err)
	_, err = svc.Redact(context.Background(), testEvent())
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, int64(1), rec.Count(metrics.DLPAPICalls))
}
