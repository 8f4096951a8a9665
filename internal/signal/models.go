package signal

import "time"

// EventDetails carries the free-text part of a signal event. These are the
// only fields that pass through PII redaction.
type EventDetails struct {
	Context              string   `json:"context" bson:"context"`
	CorroboratingSignals []string `json:"corroborating_signals" bson:"corroborating_signals"`
}

// Event is the canonical signal event shape written to the analytical store.
// Timestamp is kept as the ISO-8601 string supplied by the producer; the
// store is the system of record for typed time handling.
type Event struct {
	UserID         string        `json:"user_id" bson:"user_id"`
	Timestamp      string        `json:"timestamp" bson:"timestamp"`
	SignalType     string        `json:"signal_type" bson:"signal_type"`
	FlagType       string        `json:"flag_type" bson:"flag_type"`
	Confidence     float64       `json:"confidence" bson:"confidence"`
	TopicCategory  string        `json:"topic_category" bson:"topic_category"`
	SourcePlatform string        `json:"source_platform" bson:"source_platform"`
	EventDetails   *EventDetails `json:"event_details" bson:"event_details"`
}

// Normalize fills in the optional nested fields so downstream stages can
// rely on event_details always being present with non-nil members. Pure
// defaulting; calling it twice is a no-op.
func (e *Event) Normalize() {
	if e.EventDetails == nil {
		e.EventDetails = &EventDetails{}
	}
	if e.EventDetails.CorroboratingSignals == nil {
		e.EventDetails.CorroboratingSignals = []string{}
	}
}

// QuarantineRecord captures an input that failed conformance, with enough
// context to diagnose and replay it.
type QuarantineRecord struct {
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
	ErrorMessage string    `json:"error_message" bson:"error_message"`
	RawPayload   string    `json:"raw_payload" bson:"raw_payload"`
}
