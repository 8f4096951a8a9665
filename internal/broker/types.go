package broker

import (
	"context"
	"time"
)

// Message is the raw unit of delivery. The value is passed to handlers
// as received from the bus; no decoding happens at the broker layer so
// malformed payloads still reach the conformance parser.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Time    time.Time
}

type Producer interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

type HandlerFunc func(ctx context.Context, msg Message) error
