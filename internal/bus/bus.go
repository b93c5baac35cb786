// Package bus provides event bus implementations for annotation and
// benchmark workflow notifications.
package bus

import (
	"context"
	"fmt"
	"time"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations. Events are
// fire-and-forget notifications; a publish never waits on handlers.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (e.g., "annotation.saved").
	Type string `json:"type"`

	// Source is the component that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created, in Unix seconds.
	Timestamp int64 `json:"timestamp"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// NewEvent builds an event of the given type with the id and timestamp
// filled in.
func NewEvent(eventType, source string, payload any) Event {
	return Event{
		ID:        fmt.Sprintf("%s-%d", eventType, time.Now().UnixNano()),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().Unix(),
		Payload:   payload,
	}
}

// Topics for different event types.
const (
	// Annotation workflow topics.
	TopicAnnotationSaved   = "annotation.saved"
	TopicAnnotationSkipped = "annotation.skipped"
	TopicAssignmentCreated = "assignment.created"

	// Analysis topics.
	TopicBenchmarkCompleted = "benchmark.completed"
	TopicIRRCompleted       = "irr.completed"
)
