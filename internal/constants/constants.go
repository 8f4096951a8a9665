package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultRedactionTimeout = 30 * time.Second
	DefaultSinkTimeout      = 10 * time.Second
)

const (
	CacheKeyPrefixRedact = "redact:"
)

const (
	DefaultMongoDBName = "aegis"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	SinkTypeMongoDB    = "mongodb"
	SinkTypePostgreSQL = "postgres"
)

const (
	OnFailureOpen   = "fail_open"
	OnFailureClosed = "fail_closed"
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)
