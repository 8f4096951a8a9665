package sink

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"aegis/internal/config"
	"aegis/internal/signal"
	"aegis/pkg/metrics"
)

type MongoWriter struct {
	events     *mongo.Collection
	quarantine *mongo.Collection
}

func NewMongoWriter(db *mongo.Database, cfg config.SinkConfig) *MongoWriter {
	return &MongoWriter{
		events:     db.Collection(cfg.EventsTable),
		quarantine: db.Collection(cfg.QuarantineTable),
	}
}

func (w *MongoWriter) WriteEvent(ctx context.Context, event *signal.Event) error {
	if _, err := w.events.InsertOne(ctx, event); err != nil {
		metrics.IncSinkWrite("mongodb", "error")
		return fmt.Errorf("failed to insert event: %w", err)
	}
	metrics.IncSinkWrite("mongodb", "success")
	return nil
}

func (w *MongoWriter) WriteQuarantine(ctx context.Context, record *signal.QuarantineRecord) error {
	if _, err := w.quarantine.InsertOne(ctx, record); err != nil {
		metrics.IncSinkWrite("mongodb", "error")
		return fmt.Errorf("failed to insert quarantine record: %w", err)
	}
	metrics.IncSinkWrite("mongodb", "success")
	return nil
}

func (w *MongoWriter) Close(ctx context.Context) error {
	return w.events.Database().Client().Disconnect(ctx)
}
