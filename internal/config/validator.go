package config

import (
	"fmt"
	"strings"

	"aegis/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateBroker(cfg.Broker); err != nil {
		errors = append(errors, err)
	}

	if err := validateSink(cfg.Sink, cfg.Database); err != nil {
		errors = append(errors, err)
	}

	if err := validateRedaction(cfg.Redaction, cfg.Database); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateBroker(cfg BrokerConfig) error {
	if cfg.Type == "" {
		return &ValidationError{
			Field:   "broker.type",
			Message: "broker type is required",
		}
	}

	switch cfg.Type {
	case "kafka":
		return validateKafka(cfg.Kafka)
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: kafka)", cfg.Type),
		}
	}
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.GroupID == "" {
		return &ValidationError{
			Field:   "broker.kafka.group_id",
			Message: "Kafka consumer group ID is required",
		}
	}

	if cfg.InputTopic == "" {
		return &ValidationError{
			Field:   "broker.kafka.input_topic",
			Message: "Kafka input topic is required",
		}
	}

	return validateRetry("broker.kafka.retry", cfg.Retry)
}

func validateRetry(prefix string, cfg RetryConfig) error {
	if cfg.MaxAttempts < 0 {
		return &ValidationError{
			Field:   prefix + ".max_attempts",
			Message: "max_attempts must be non-negative",
		}
	}

	if cfg.InitialInterval < 0 {
		return &ValidationError{
			Field:   prefix + ".initial_interval",
			Message: "initial_interval must be non-negative",
		}
	}

	if cfg.MaxInterval < 0 {
		return &ValidationError{
			Field:   prefix + ".max_interval",
			Message: "max_interval must be non-negative",
		}
	}

	if cfg.MaxInterval > 0 && cfg.InitialInterval > 0 && cfg.MaxInterval < cfg.InitialInterval {
		return &ValidationError{
			Field:   prefix + ".max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	if cfg.Multiplier < 0 {
		return &ValidationError{
			Field:   prefix + ".multiplier",
			Message: "multiplier must be non-negative",
		}
	}

	return nil
}

func validateSink(cfg SinkConfig, db DatabaseConfig) error {
	if cfg.Type == "" {
		return &ValidationError{
			Field:   "sink.type",
			Message: "sink type is required",
		}
	}

	switch cfg.Type {
	case constants.SinkTypeMongoDB:
		if err := validateMongoDB(db.MongoDB); err != nil {
			return err
		}
	case constants.SinkTypePostgreSQL:
		if err := validatePostgres(db.Postgres); err != nil {
			return err
		}
	default:
		return &ValidationError{
			Field:   "sink.type",
			Message: fmt.Sprintf("unknown sink type: %s (supported: mongodb, postgres)", cfg.Type),
		}
	}

	if cfg.EventsTable == "" {
		return &ValidationError{
			Field:   "sink.events_table",
			Message: "events destination name is required",
		}
	}

	if cfg.QuarantineTable == "" {
		return &ValidationError{
			Field:   "sink.quarantine_table",
			Message: "quarantine destination name is required",
		}
	}

	return validateRetry("sink.retry", cfg.Retry)
}

func validateRedaction(cfg RedactionConfig, db DatabaseConfig) error {
	if cfg.Endpoint == "" {
		return &ValidationError{
			Field:   "redaction.endpoint",
			Message: "de-identification service endpoint is required",
		}
	}

	if cfg.Project == "" {
		return &ValidationError{
			Field:   "redaction.project",
			Message: "de-identification project is required",
		}
	}

	if cfg.Template == "" && len(cfg.InfoTypes) == 0 {
		return &ValidationError{
			Field:   "redaction.template",
			Message: "either a de-identify template or an info_types list is required",
		}
	}

	if cfg.Timeout < 0 {
		return &ValidationError{
			Field:   "redaction.timeout",
			Message: "timeout must be non-negative",
		}
	}

	validOnFailure := map[string]bool{
		"": true, constants.OnFailureOpen: true, constants.OnFailureClosed: true,
	}
	if !validOnFailure[strings.ToLower(cfg.OnFailure)] {
		return &ValidationError{
			Field:   "redaction.on_failure",
			Message: fmt.Sprintf("invalid on_failure value: %s (valid: fail_open, fail_closed)", cfg.OnFailure),
		}
	}

	if cfg.Cache.Enabled {
		if err := validateRedis(db.Redis); err != nil {
			return err
		}
		if cfg.Cache.TTLSeconds < 0 {
			return &ValidationError{
				Field:   "redaction.cache.ttl_seconds",
				Message: "TTL must be non-negative",
			}
		}
	}

	return nil
}

func validatePostgres(cfg PostgresConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.postgres.host",
			Message: "PostgreSQL host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.postgres.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.User == "" {
		return &ValidationError{
			Field:   "database.postgres.user",
			Message: "PostgreSQL user is required",
		}
	}

	if cfg.DBName == "" {
		return &ValidationError{
			Field:   "database.postgres.dbname",
			Message: "PostgreSQL database name is required",
		}
	}

	validSSLModes := map[string]bool{
		"disable": true, "allow": true, "prefer": true,
		"require": true, "verify-ca": true, "verify-full": true,
	}
	if cfg.SSLMode != "" && !validSSLModes[strings.ToLower(cfg.SSLMode)] {
		return &ValidationError{
			Field:   "database.postgres.sslmode",
			Message: fmt.Sprintf("invalid SSL mode: %s (valid: disable, allow, prefer, require, verify-ca, verify-full)", cfg.SSLMode),
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateMongoDB(cfg MongoDBConfig) error {
	if cfg.URI == "" {
		return &ValidationError{
			Field:   "database.mongodb.uri",
			Message: "MongoDB URI is required",
		}
	}

	if !strings.HasPrefix(cfg.URI, "mongodb://") && !strings.HasPrefix(cfg.URI, "mongodb+srv://") {
		return &ValidationError{
			Field:   "database.mongodb.uri",
			Message: "MongoDB URI must start with mongodb:// or mongodb+srv://",
		}
	}

	if cfg.Database == "" {
		return &ValidationError{
			Field:   "database.mongodb.database",
			Message: "MongoDB database name is required",
		}
	}

	return nil
}
