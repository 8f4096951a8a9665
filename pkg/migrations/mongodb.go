package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aegis/internal/config"
)

// EnsureMongoCollections creates the sink collections' indexes. Collections
// themselves are created lazily on first insert.
func EnsureMongoCollections(ctx context.Context, db *mongo.Database, cfg config.SinkConfig) error {
	eventIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_events_user_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "flag_type", Value: 1}},
			Options: options.Index().SetName("idx_events_flag_type"),
		},
		{
			Keys:    bson.D{{Key: "source_platform", Value: 1}},
			Options: options.Index().SetName("idx_events_source_platform"),
		},
	}

	if err := createIndexes(ctx, db.Collection(cfg.EventsTable), eventIndexes); err != nil {
		return fmt.Errorf("failed to ensure event indexes: %w", err)
	}

	quarantineIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_quarantine_timestamp"),
		},
	}

	if err := createIndexes(ctx, db.Collection(cfg.QuarantineTable), quarantineIndexes); err != nil {
		return fmt.Errorf("failed to ensure quarantine indexes: %w", err)
	}

	return nil
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) error {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return err
		}
	}
	return nil
}
