package metrics

import (
	"context"

	"github.com/mathfish/mathfish/internal/bus"
)

// EventSubscriber feeds bus events into the registry. The annotation
// server records its own activity directly; this subscriber covers
// events produced elsewhere (assignment setup, benchmark and IRR runs)
// that reach the server over a shared broker.
type EventSubscriber struct {
	metrics *Metrics
	bus     bus.Bus
}

// NewEventSubscriber creates a new event subscriber.
func NewEventSubscriber(metrics *Metrics, eventBus bus.Bus) *EventSubscriber {
	return &EventSubscriber{
		metrics: metrics,
		bus:     eventBus,
	}
}

// SubscribeToEvents registers handlers for the workflow topics.
func (es *EventSubscriber) SubscribeToEvents(ctx context.Context) error {
	if err := es.bus.Subscribe(ctx, bus.TopicAssignmentCreated, es.handleAssignmentCreated); err != nil {
		return err
	}
	if err := es.bus.Subscribe(ctx, bus.TopicBenchmarkCompleted, es.handleBenchmarkCompleted); err != nil {
		return err
	}
	return es.bus.Subscribe(ctx, bus.TopicIRRCompleted, es.handleIRRCompleted)
}

func (es *EventSubscriber) handleAssignmentCreated(ctx context.Context, event bus.Event) error {
	payload, ok := eventPayload(event)
	if !ok {
		return nil
	}
	if count, ok := payloadFloat(payload, "problem_count"); ok {
		es.metrics.RecordAssignment(int(count))
	}
	return nil
}

func (es *EventSubscriber) handleBenchmarkCompleted(ctx context.Context, event bus.Event) error {
	payload, ok := eventPayload(event)
	if !ok {
		return nil
	}
	provider, ok := payloadString(payload, "provider")
	if !ok {
		return nil
	}
	es.metrics.RecordBenchmark(provider, payloadFloatMap(payload, "f1"))
	return nil
}

func (es *EventSubscriber) handleIRRCompleted(ctx context.Context, event bus.Event) error {
	payload, ok := eventPayload(event)
	if !ok {
		return nil
	}
	es.metrics.RecordIRR(payloadFloatMap(payload, "alpha"))
	return nil
}

// eventPayload extracts the payload map. Events that crossed a broker
// arrive as map[string]any after JSON decoding; malformed payloads are
// ignored rather than failing the handler.
func eventPayload(event bus.Event) (map[string]any, bool) {
	payload, ok := event.Payload.(map[string]any)
	return payload, ok
}

func payloadString(payload map[string]any, key string) (string, bool) {
	s, ok := payload[key].(string)
	return s, ok
}

// payloadFloat reads a numeric field. JSON decoding turns every number
// into float64; in-process events may still carry ints.
func payloadFloat(payload map[string]any, key string) (float64, bool) {
	switch v := payload[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// payloadFloatMap reads a nested map of numeric values.
func payloadFloatMap(payload map[string]any, key string) map[string]float64 {
	out := make(map[string]float64)
	switch nested := payload[key].(type) {
	case map[string]any:
		for k := range nested {
			if v, ok := payloadFloat(nested, k); ok {
				out[k] = v
			}
		}
	case map[string]float64:
		for k, v := range nested {
			out[k] = v
		}
	}
	return out
}
