package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/mathfish/mathfish/internal/bus"
)

// The metrics type doubles as the bus package's publish recorder.
var _ bus.MetricsRecorder = (*Metrics)(nil)

// waitForCounter polls until the counter reaches want or the deadline passes.
// Memory bus delivery runs on its own goroutine.
func waitForCounter(t *testing.T, get func() int64, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if get() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("counter did not reach %d before deadline, got %d", want, get())
}

func TestEventSubscriberBenchmarkCompleted(t *testing.T) {
	m := New()
	defer m.Close()
	b := bus.NewMemoryBus()
	defer b.Close()

	sub := NewEventSubscriber(m, b)
	ctx := context.Background()
	if err := sub.SubscribeToEvents(ctx); err != nil {
		t.Fatalf("SubscribeToEvents failed: %v", err)
	}

	event := bus.NewEvent(bus.TopicBenchmarkCompleted, "llm-benchmark", map[string]any{
		"provider": "openai",
		"f1": map[string]any{
			"standard": 0.42,
			"domain":   0.7,
		},
	})
	if err := b.Publish(ctx, bus.TopicBenchmarkCompleted, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitForCounter(t, func() int64 {
		return m.BenchmarkRuns.WithLabels("openai").Value()
	}, 1)

	if got := m.BenchmarkF1.WithLabels("openai", "standard").Value(); got != 0.42 {
		t.Errorf("expected standard f1 0.42, got %f", got)
	}
	if got := m.BenchmarkF1.WithLabels("openai", "domain").Value(); got != 0.7 {
		t.Errorf("expected domain f1 0.7, got %f", got)
	}
}

func TestEventSubscriberAssignmentCreated(t *testing.T) {
	m := New()
	defer m.Close()
	b := bus.NewMemoryBus()
	defer b.Close()

	sub := NewEventSubscriber(m, b)
	ctx := context.Background()
	if err := sub.SubscribeToEvents(ctx); err != nil {
		t.Fatalf("SubscribeToEvents failed: %v", err)
	}

	event := bus.NewEvent(bus.TopicAssignmentCreated, "annotation-setup", map[string]any{
		"problem_count": 120,
		"annotators":    []string{"alice", "bob"},
	})
	if err := b.Publish(ctx, bus.TopicAssignmentCreated, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitForCounter(t, func() int64 {
		return m.AssignmentsCreated.Value()
	}, 1)

	if got := m.AssignmentProblems.Value(); got != 120 {
		t.Errorf("expected assignment problems gauge 120, got %f", got)
	}
}

func TestEventSubscriberIRRCompleted(t *testing.T) {
	m := New()
	defer m.Close()
	b := bus.NewMemoryBus()
	defer b.Close()

	sub := NewEventSubscriber(m, b)
	ctx := context.Background()
	if err := sub.SubscribeToEvents(ctx); err != nil {
		t.Fatalf("SubscribeToEvents failed: %v", err)
	}

	event := bus.NewEvent(bus.TopicIRRCompleted, "irr", map[string]any{
		"alpha": map[string]any{
			"cluster": 0.81,
			"domain":  0.64,
		},
	})
	if err := b.Publish(ctx, bus.TopicIRRCompleted, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitForCounter(t, func() int64 {
		return m.IRRRuns.Value()
	}, 1)

	if got := m.IRRAlpha.WithLabels("cluster").Value(); got != 0.81 {
		t.Errorf("expected cluster alpha 0.81, got %f", got)
	}
	if got := m.IRRAlpha.WithLabels("domain").Value(); got != 0.64 {
		t.Errorf("expected domain alpha 0.64, got %f", got)
	}
}

func TestEventSubscriberIgnoresMalformedPayload(t *testing.T) {
	m := New()
	defer m.Close()
	b := bus.NewMemoryBus()
	defer b.Close()

	sub := NewEventSubscriber(m, b)
	ctx := context.Background()
	if err := sub.SubscribeToEvents(ctx); err != nil {
		t.Fatalf("SubscribeToEvents failed: %v", err)
	}

	// A payload that is not a map records nothing and does not wedge the
	// subscription.
	bad := bus.NewEvent(bus.TopicBenchmarkCompleted, "llm-benchmark", "not a map")
	if err := b.Publish(ctx, bus.TopicBenchmarkCompleted, bad); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	good := bus.NewEvent(bus.TopicBenchmarkCompleted, "llm-benchmark", map[string]any{
		"provider": "claude",
		"f1":       map[string]any{"standard": 0.5},
	})
	if err := b.Publish(ctx, bus.TopicBenchmarkCompleted, good); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitForCounter(t, func() int64 {
		return m.BenchmarkRuns.WithLabels("claude").Value()
	}, 1)

	total := m.BenchmarkRuns.WithLabels("claude").Value() +
		m.BenchmarkRuns.WithLabels("openai").Value()
	if total != 1 {
		t.Errorf("expected exactly 1 benchmark run recorded, got %d", total)
	}
}
