package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"aegis/internal/config"
	"aegis/internal/signal"
	"aegis/pkg/metrics"
)

// PostgresWriter appends to two tables, with event_details stored as JSONB.
// Identifiers come from validated configuration, not request input.
type PostgresWriter struct {
	db              *sql.DB
	eventsTable     string
	quarantineTable string
}

func NewPostgresWriter(db *sql.DB, cfg config.SinkConfig) *PostgresWriter {
	return &PostgresWriter{
		db:              db,
		eventsTable:     cfg.EventsTable,
		quarantineTable: cfg.QuarantineTable,
	}
}

func (w *PostgresWriter) WriteEvent(ctx context.Context, event *signal.Event) error {
	details, err := json.Marshal(event.EventDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal event details: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, event_timestamp, signal_type, flag_type, confidence, topic_category, source_platform, event_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, w.eventsTable)

	if _, err := w.db.ExecContext(ctx, query,
		event.UserID,
		event.Timestamp,
		event.SignalType,
		event.FlagType,
		event.Confidence,
		event.TopicCategory,
		event.SourcePlatform,
		details,
	); err != nil {
		metrics.IncSinkWrite("postgres", "error")
		return fmt.Errorf("failed to insert event: %w", err)
	}

	metrics.IncSinkWrite("postgres", "success")
	return nil
}

func (w *PostgresWriter) WriteQuarantine(ctx context.Context, record *signal.QuarantineRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (quarantined_at, error_message, raw_payload)
		VALUES ($1, $2, $3)
	`, w.quarantineTable)

	if _, err := w.db.ExecContext(ctx, query,
		record.Timestamp,
		record.ErrorMessage,
		record.RawPayload,
	); err != nil {
		metrics.IncSinkWrite("postgres", "error")
		return fmt.Errorf("failed to insert quarantine record: %w", err)
	}

	metrics.IncSinkWrite("postgres", "success")
	return nil
}

func (w *PostgresWriter) Close(context.Context) error {
	return w.db.Close()
}
