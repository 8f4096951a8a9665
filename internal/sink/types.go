package sink

import (
	"context"

	"aegis/internal/signal"
)

// Writer appends pipeline output to the analytical store. Writes are
// append-only with no deduplication; at-least-once delivery upstream means
// duplicates are possible and accepted.
type Writer interface {
	WriteEvent(ctx context.Context, event *signal.Event) error
	WriteQuarantine(ctx context.Context, record *signal.QuarantineRecord) error
	Close(ctx context.Context) error
}
