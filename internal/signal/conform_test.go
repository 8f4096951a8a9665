package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/pkg/metrics"
)

func TestParse_ValidEvent(t *testing.T) {
	rec := metrics.NewMemoryRecorder()
	parser := NewParser(rec)

	raw := []byte(`{
		"user_id": "user-123",
		"timestamp": "2024-05-01T10:00:00Z",
		"signal_type": "chat_message",
		"flag_type": "grooming_risk",
		"confidence": 0.87,
		"topic_category": "gaming",
		"source_platform": "discord",
		"event_details": {
			"context": "some flagged text",
			"corroborating_signals": ["signal a", "signal b"]
		}
	}`)

	event, quarantined := parser.Parse(raw)
	require.NotNil(t, event)
	require.Nil(t, quarantined)

	assert.Equal(t, "user-123", event.UserID)
	assert.Equal(t, "2024-05-01T10:00:00Z", event.Timestamp)
	assert.Equal(t, 0.87, event.Confidence)
	assert.Equal(t, "some flagged text", event.EventDetails.Context)
	assert.Equal(t, []string{"signal a", "signal b"}, event.EventDetails.CorroboratingSignals)

	assert.Equal(t, int64(1), rec.Count(metrics.ParsedRecordsSuccessfully))
	assert.Equal(t, int64(0), rec.Count(metrics.ParsingFailures))
}

func TestParse_NormalizesMissingDetails(t *testing.T) {
	parser := NewParser(metrics.NewMemoryRecorder())

	tests := []struct {
		name string
		raw  string
	}{
		{"no event_details", `{"user_id":"u1","timestamp":"2024-05-01T10:00:00Z"}`},
		{"null event_details", `{"user_id":"u1","event_details":null}`},
		{"empty event_details", `{"user_id":"u1","event_details":{}}`},
		{"null corroborating_signals", `{"user_id":"u1","event_details":{"context":"","corroborating_signals":null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, quarantined := parser.Parse([]byte(tt.raw))
			require.NotNil(t, event)
			require.Nil(t, quarantined)

			require.NotNil(t, event.EventDetails)
			assert.Equal(t, "", event.EventDetails.Context)
			require.NotNil(t, event.EventDetails.CorroboratingSignals)
			assert.Empty(t, event.EventDetails.CorroboratingSignals)
		})
	}
}

func TestParse_Quarantines(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"not json", []byte("this is not json")},
		{"truncated object", []byte(`{"user_id": "u1"`)},
		{"json array", []byte(`[{"user_id":"u1"}]`)},
		{"json null", []byte(`null`)},
		{"wrong confidence type", []byte(`{"user_id":"u1","confidence":"high"}`)},
		{"empty payload", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := metrics.NewMemoryRecorder()
			parser := NewParser(rec)

			event, quarantined := parser.Parse(tt.raw)
			require.Nil(t, event)
			require.NotNil(t, quarantined)

			assert.NotEmpty(t, quarantined.ErrorMessage)
			assert.Equal(t, string(tt.raw), quarantined.RawPayload)
			assert.False(t, quarantined.Timestamp.IsZero())

			assert.Equal(t, int64(0), rec.Count(metrics.ParsedRecordsSuccessfully))
			assert.Equal(t, int64(1), rec.Count(metrics.ParsingFailures))
		})
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	rec := metrics.NewMemoryRecorder()
	parser := NewParser(rec)

	raw := []byte{0xff, 0xfe, '{', '}'}
	event, quarantined := parser.Parse(raw)
	require.Nil(t, event)
	require.NotNil(t, quarantined)

	assert.Contains(t, quarantined.ErrorMessage, "UTF-8")
	assert.Contains(t, quarantined.RawPayload, "�")
	assert.Equal(t, int64(1), rec.Count(metrics.ParsingFailures))
}

func TestNormalize_Idempotent(t *testing.T) {
	event := &Event{UserID: "u1"}

	event.Normalize()
	require.NotNil(t, event.EventDetails)
	details := event.EventDetails

	event.Normalize()
	assert.Same(t, details, event.EventDetails)
	assert.Equal(t, []string{}, event.EventDetails.CorroboratingSignals)
}
