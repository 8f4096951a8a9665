package redact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aegis/internal/config"
	"aegis/internal/constants"
	"aegis/internal/dlp"
	"aegis/internal/logger"
	"aegis/internal/signal"
	"aegis/pkg/metrics"
)

// Service runs the PII redaction stage over a conformant event. The context
// string and every corroborating signal are joined with a newline, sent to
// the de-identification service in one call, and split back in order.
//
// The newline separator is load-bearing: a segment-count mismatch after the
// round trip means the service altered the structure of the text and the
// result cannot be mapped back, which is treated as a redaction failure.
type Service struct {
	client    dlp.Deidentifier
	cache     ResultCache
	recorder  metrics.Recorder
	logger    logger.Logger
	onFailure string
	timeout   time.Duration
}

func NewService(client dlp.Deidentifier, cfg config.RedactionConfig, cache ResultCache, recorder metrics.Recorder, log logger.Logger) *Service {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	onFailure := strings.ToLower(cfg.OnFailure)
	if onFailure == "" {
		onFailure = constants.OnFailureOpen
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultRedactionTimeout
	}
	return &Service{
		client:    client,
		cache:     cache,
		recorder:  recorder,
		logger:    log,
		onFailure: onFailure,
		timeout:   timeout,
	}
}

// Redact returns the event with its free-text fields redacted. Under the
// fail_open policy a redaction failure returns the original event and a nil
// error; under fail_closed the error is returned so the caller can
// quarantine the record. Events with no text content pass through without
// an external call.
func (s *Service) Redact(ctx context.Context, event signal.Event) (signal.Event, error) {
	event.Normalize()

	texts := make([]string, 0, 1+len(event.EventDetails.CorroboratingSignals))
	texts = append(texts, event.EventDetails.Context)
	texts = append(texts, event.EventDetails.CorroboratingSignals...)

	if allEmpty(texts) {
		return event, nil
	}

	joined := strings.Join(texts, "\n")

	if s.cache != nil {
		if redacted, ok := s.cache.Get(ctx, joined); ok {
			if out, err := applySegments(event, redacted, len(texts)); err == nil {
				return out, nil
			}
			// A stale or corrupt cache entry falls through to the live call.
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	redacted, err := s.client.Deidentify(callCtx, joined)
	if err != nil {
		return s.fail(ctx, event, err)
	}

	out, err := applySegments(event, redacted, len(texts))
	if err != nil {
		return s.fail(ctx, event, err)
	}

	s.recorder.Inc(metrics.DLPAPICalls)

	if s.cache != nil {
		s.cache.Set(ctx, joined, redacted)
	}

	return out, nil
}

func (s *Service) fail(ctx context.Context, event signal.Event, cause error) (signal.Event, error) {
	s.recorder.Inc(metrics.DLPFailures)
	s.logger.ErrorwCtx(ctx, "Redaction failed",
		"user_id", event.UserID,
		"policy", s.onFailure,
		"error", cause,
	)

	if s.onFailure == constants.OnFailureClosed {
		return event, fmt.Errorf("redaction failed for user %s: %w", event.UserID, cause)
	}
	// fail_open: the unredacted event flows on so ingestion never stalls on
	// the redaction dependency.
	return event, nil
}

// applySegments splits the redacted text back into the event's fields. The
// result never truncates or pads: a count mismatch is an error.
func applySegments(event signal.Event, redacted string, want int) (signal.Event, error) {
	segments := strings.Split(redacted, "\n")
	if len(segments) != want {
		return event, fmt.Errorf("redacted segment count mismatch: got %d, want %d", len(segments), want)
	}

	details := &signal.EventDetails{
		Context:              segments[0],
		CorroboratingSignals: segments[1:],
	}
	if details.CorroboratingSignals == nil {
		details.CorroboratingSignals = []string{}
	}
	event.EventDetails = details
	return event, nil
}

func allEmpty(texts []string) bool {
	for _, t := range texts {
		if t != "" {
			return false
		}
	}
	return true
}
