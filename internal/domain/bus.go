package domain

import (
	"context"
)

// EventBus defines the interface for event-driven communication.
// Backed by Go channels (default) or NATS (pro).
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, userID string, topic string, payload []byte) error

	// Subscribe registers a handler for a topic. Subscribing with
	// AllUsers receives messages published under any user ID.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, userID string, topic string, handler MessageHandler) (Subscription, error)

	// Request sends a message and waits for a response (request-reply pattern).
	Request(ctx context.Context, userID string, topic string, payload []byte) ([]byte, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string

	// Channel settings
	ChannelBufferSize int

	// NATS settings (pro)
	NATSUrl           string
	NATSToken         string
	NATSMaxReconnects int
	NATSReconnectWait int // seconds
}

// Standard topic names for the analysis pipeline. Bus implementations
// prefix these with the application namespace and user ID.
const (
	TopicAnalysisRequested = "analysis.requested"
	TopicAnalysisCompleted = "analysis.completed"
	TopicAnalysisAlert     = "analysis.alert"
)

// AllUsers is the wildcard user ID for subscriptions that consume a
// topic across every user, such as a single shared worker. It is only
// valid for Subscribe; messages are always published under a real user.
const AllUsers = "*"

// MetaReplyTo carries the reply topic for request-reply messages.
// Responders publish their answer to this topic under the requesting
// user's ID.
const MetaReplyTo = "replyTo"
