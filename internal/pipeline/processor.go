package pipeline

import (
	"context"
	"time"

	"aegis/internal/broker"
	"aegis/internal/logger"
	"aegis/internal/signal"
	"aegis/internal/sink"
	"aegis/pkg/metrics"
)

// Redactor is the redaction stage as seen by the processor.
type Redactor interface {
	Redact(ctx context.Context, event signal.Event) (signal.Event, error)
}

// Processor handles one raw message end to end: parse, redact, write.
// Strictly sequential per message; the only cross-message state is the
// metric counters.
type Processor struct {
	parser   *signal.Parser
	redactor Redactor
	writer   sink.Writer
	logger   logger.Logger
}

func NewProcessor(parser *signal.Parser, redactor Redactor, writer sink.Writer, log logger.Logger) *Processor {
	return &Processor{
		parser:   parser,
		redactor: redactor,
		writer:   writer,
		logger:   log,
	}
}

// Handle implements broker.HandlerFunc. A returned error means the sink
// write failed and the message should be retried by the consumer loop;
// malformed input is not an error here, it lands in quarantine.
func (p *Processor) Handle(ctx context.Context, msg broker.Message) error {
	start := time.Now()

	event, quarantined := p.parser.Parse(msg.Value)
	if quarantined != nil {
		p.logger.WarnwCtx(ctx, "Quarantining malformed message",
			"topic", msg.Topic,
			"reason", quarantined.ErrorMessage,
		)
		if err := p.writer.WriteQuarantine(ctx, quarantined); err != nil {
			metrics.ObserveProcessingDuration("quarantine", "error", time.Since(start))
			return err
		}
		metrics.ObserveProcessingDuration("quarantine", "success", time.Since(start))
		return nil
	}

	redacted, err := p.redactor.Redact(ctx, *event)
	if err != nil {
		// fail_closed policy: the record is quarantined rather than stored
		// unredacted.
		record := &signal.QuarantineRecord{
			Timestamp:    time.Now().UTC(),
			ErrorMessage: err.Error(),
			RawPayload:   string(msg.Value),
		}
		if qErr := p.writer.WriteQuarantine(ctx, record); qErr != nil {
			metrics.ObserveProcessingDuration("redact", "error", time.Since(start))
			return qErr
		}
		metrics.ObserveProcessingDuration("redact", "quarantined", time.Since(start))
		return nil
	}

	if err := p.writer.WriteEvent(ctx, &redacted); err != nil {
		metrics.ObserveProcessingDuration("write", "error", time.Since(start))
		return err
	}

	metrics.ObserveProcessingDuration("write", "success", time.Since(start))
	return nil
}
