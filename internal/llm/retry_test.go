package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type flakyProvider struct {
	failures int // calls that fail before the first success
	calls    int
	response string
}

func (f *flakyProvider) Name() string  { return "flaky" }
func (f *flakyProvider) Model() string { return "flaky-1" }

func (f *flakyProvider) Complete(ctx context.Context, req Request) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", fmt.Errorf("transient failure %d", f.calls)
	}
	return f.response, nil
}

func TestCompleteWithRetries_FirstTry(t *testing.T) {
	p := &flakyProvider{response: "[]"}
	got, err := completeWithRetries(context.Background(), p, Request{}, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("completeWithRetries: %v", err)
	}
	if got != "[]" || p.calls != 1 {
		t.Errorf("got %q after %d calls, want %q after 1", got, p.calls, "[]")
	}
}

func TestCompleteWithRetries_RecoversAfterFailures(t *testing.T) {
	p := &flakyProvider{failures: 2, response: `["4.OA.A.1"]`}
	got, err := completeWithRetries(context.Background(), p, Request{}, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("completeWithRetries: %v", err)
	}
	if got != `["4.OA.A.1"]` || p.calls != 3 {
		t.Errorf("got %q after %d calls, want success on third call", got, p.calls)
	}
}

func TestCompleteWithRetries_Exhausted(t *testing.T) {
	p := &flakyProvider{failures: 10}
	_, err := completeWithRetries(context.Background(), p, Request{}, 3, time.Millisecond)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
	if want := "transient failure 3"; err.Error() != want {
		t.Errorf("err = %q, want last failure %q", err, want)
	}
}

func TestCompleteWithRetries_CoercesRetriesToOne(t *testing.T) {
	p := &flakyProvider{failures: 10}
	_, err := completeWithRetries(context.Background(), p, Request{}, 0, time.Millisecond)
	if err == nil {
		t.Fatal("expected error")
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1", p.calls)
	}
}

func TestCompleteWithRetries_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &flakyProvider{failures: 10}
	_, err := completeWithRetries(ctx, p, Request{}, 3, time.Millisecond)
	if err == nil {
		t.Fatal("expected error")
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want no retries after cancellation", p.calls)
	}
}

func TestCompleteWithRetries_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(10*time.Millisecond, cancel)

	p := &flakyProvider{failures: 10}
	start := time.Now()
	_, err := completeWithRetries(ctx, p, Request{}, 3, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %v, backoff was not interrupted", elapsed)
	}
}
