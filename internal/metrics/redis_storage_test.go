package metrics

import (
	"context"
	"testing"
	"time"
)

// The live tests below need a local Redis and skip when one is not
// reachable. Database 15 keeps test keys away from real data.
const testRedisURL = "redis://localhost:6379/15"

func TestNewRedisStorage_InvalidURL(t *testing.T) {
	_, err := NewRedisStorage("invalid://url")
	if err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestNewRedisStorage_ConnectionFailure(t *testing.T) {
	_, err := NewRedisStorage("redis://localhost:9999")
	if err == nil {
		t.Fatal("expected error for connection failure")
	}
}

func TestRedisStorage_SaveAndLoad(t *testing.T) {
	storage, err := NewRedisStorage(testRedisURL)
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	defer storage.Close()

	ctx := context.Background()
	defer storage.DeleteMetric(ctx, "test_metric")

	now := time.Now()
	dataPoints := []DataPoint{
		{Timestamp: now.Add(-10 * time.Minute), Value: 10.5},
		{Timestamp: now.Add(-5 * time.Minute), Value: 20.3},
		{Timestamp: now, Value: 30.7},
	}

	for _, dp := range dataPoints {
		if err := storage.SaveDataPoint(ctx, "test_metric", dp); err != nil {
			t.Fatalf("SaveDataPoint failed: %v", err)
		}
	}

	loaded, err := storage.LoadHistory(ctx, "test_metric", now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(loaded) != len(dataPoints) {
		t.Fatalf("expected %d data points, got %d", len(dataPoints), len(loaded))
	}

	// Members are stored with two decimal places.
	for i, dp := range loaded {
		expected := dataPoints[i].Value
		if dp.Value < expected-0.1 || dp.Value > expected+0.1 {
			t.Errorf("data point %d: expected value ~%.2f, got %.2f", i, expected, dp.Value)
		}
	}
}

func TestRedisStorage_SaveBatch(t *testing.T) {
	storage, err := NewRedisStorage(testRedisURL)
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	defer storage.Close()

	ctx := context.Background()
	defer storage.DeleteMetric(ctx, "test_batch")

	now := time.Now()
	batch := []DataPoint{
		{Timestamp: now.Add(-20 * time.Minute), Value: 5.0},
		{Timestamp: now.Add(-15 * time.Minute), Value: 10.0},
		{Timestamp: now.Add(-10 * time.Minute), Value: 15.0},
		{Timestamp: now.Add(-5 * time.Minute), Value: 20.0},
		{Timestamp: now, Value: 25.0},
	}

	if err := storage.SaveBatch(ctx, "test_batch", batch); err != nil {
		t.Fatalf("SaveBatch failed: %v", err)
	}

	loaded, err := storage.LoadHistory(ctx, "test_batch", now.Add(-30*time.Minute))
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(loaded) != len(batch) {
		t.Errorf("expected %d data points, got %d", len(batch), len(loaded))
	}
}

func TestRedisStorage_TTL(t *testing.T) {
	storage, err := NewRedisStorage(testRedisURL)
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	defer storage.Close()

	ctx := context.Background()
	defer storage.DeleteMetric(ctx, "test_ttl")

	storage.SetTTL(1 * time.Second)

	now := time.Now()
	expired := DataPoint{Timestamp: now.Add(-2 * time.Second), Value: 10.0}
	fresh := DataPoint{Timestamp: now, Value: 20.0}

	storage.SaveDataPoint(ctx, "test_ttl", expired)
	storage.SaveDataPoint(ctx, "test_ttl", fresh)

	// Each save prunes members older than the TTL, so the expired point
	// may already be gone; the fresh one must survive.
	loaded, _ := storage.LoadHistory(ctx, "test_ttl", now.Add(-5*time.Second))
	if len(loaded) == 0 {
		t.Error("expected at least the fresh data point")
	}
}

func TestRedisStorage_GetMetricNames(t *testing.T) {
	storage, err := NewRedisStorage(testRedisURL)
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	defer storage.Close()

	ctx := context.Background()

	names := []string{"test_names_rate", "test_names_latency", "test_names_other"}
	dp := DataPoint{Timestamp: time.Now(), Value: 1.0}
	for _, name := range names {
		storage.SaveDataPoint(ctx, name, dp)
		defer storage.DeleteMetric(ctx, name)
	}

	got, err := storage.GetMetricNames(ctx)
	if err != nil {
		t.Fatalf("GetMetricNames failed: %v", err)
	}

	found := make(map[string]bool)
	for _, name := range got {
		found[name] = true
	}
	for _, expected := range names {
		if !found[expected] {
			t.Errorf("expected metric %s not found in names", expected)
		}
	}
}

func TestRedisStorage_DeleteMetric(t *testing.T) {
	storage, err := NewRedisStorage(testRedisURL)
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	defer storage.Close()

	ctx := context.Background()

	dp := DataPoint{Timestamp: time.Now(), Value: 42.0}
	storage.SaveDataPoint(ctx, "test_delete", dp)

	loaded, _ := storage.LoadHistory(ctx, "test_delete", time.Now().Add(-1*time.Minute))
	if len(loaded) == 0 {
		t.Fatal("metric should exist before delete")
	}

	if err := storage.DeleteMetric(ctx, "test_delete"); err != nil {
		t.Fatalf("DeleteMetric failed: %v", err)
	}

	loaded, _ = storage.LoadHistory(ctx, "test_delete", time.Now().Add(-1*time.Minute))
	if len(loaded) != 0 {
		t.Errorf("expected 0 data points after delete, got %d", len(loaded))
	}
}
