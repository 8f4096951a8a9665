package ingress

// EventRequest is one signal event as submitted by a capture client. The
// required fields mirror what the pipeline's conformance parser expects;
// everything optional defaults downstream.
type EventRequest struct {
	UserID         string               `json:"user_id" binding:"required"`
	Timestamp      string               `json:"timestamp" binding:"required"`
	SignalType     string               `json:"signal_type" binding:"required"`
	FlagType       string               `json:"flag_type" binding:"required"`
	Confidence     *float64             `json:"confidence" binding:"required"`
	TopicCategory  string               `json:"topic_category"`
	SourcePlatform string               `json:"source_platform"`
	EventDetails   *EventDetailsRequest `json:"event_details,omitempty"`
}

type EventDetailsRequest struct {
	Context              string   `json:"context"`
	CorroboratingSignals []string `json:"corroborating_signals"`
}

type PublishResponse struct {
	Status            string `json:"status"`
	MessagesPublished int    `json:"messages_published"`
}
