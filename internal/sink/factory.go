package sink

import (
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"aegis/internal/config"
	"aegis/internal/constants"
)

// NewWriter selects the store backend from configuration. Only the handle
// matching the configured type needs to be non-nil.
func NewWriter(cfg config.SinkConfig, mongoDB *mongo.Database, pgDB *sql.DB) (Writer, error) {
	switch cfg.Type {
	case constants.SinkTypeMongoDB:
		if mongoDB == nil {
			return nil, fmt.Errorf("mongodb sink selected but no database connection provided")
		}
		return NewMongoWriter(mongoDB, cfg), nil
	case constants.SinkTypePostgreSQL:
		if pgDB == nil {
			return nil, fmt.Errorf("postgres sink selected but no database connection provided")
		}
		return NewPostgresWriter(pgDB, cfg), nil
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
}
