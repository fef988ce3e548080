package throttle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunAll_PreservesOrder(t *testing.T) {
	tasks := make([]Task[int], 10)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (int, error) {
			// Later tasks finish first.
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			return i * i, nil
		}
	}

	got, err := RunAll(context.Background(), tasks, Options{MaxAtOnce: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 results, got %d", len(got))
	}
	for i, v := range got {
		if v != i*i {
			t.Errorf("result %d: expected %d, got %d", i, i*i, v)
		}
	}
}

func TestRunAll_Empty(t *testing.T) {
	got, err := RunAll[string](context.Background(), nil, Options{MaxAtOnce: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}
}

func TestRunAll_MaxAtOnce(t *testing.T) {
	var inFlight, peak atomic.Int32
	tasks := make([]Task[struct{}], 20)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (struct{}, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return struct{}{}, nil
		}
	}

	if _, err := RunAll(context.Background(), tasks, Options{MaxAtOnce: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p := peak.Load(); p > 3 {
		t.Errorf("expected at most 3 tasks in flight, saw %d", p)
	}
}

func TestRunAll_FailureFailsWhole(t *testing.T) {
	boom := errors.New("boom")
	var started atomic.Int32
	tasks := make([]Task[int], 5)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (int, error) {
			started.Add(1)
			if i == 2 {
				return 0, boom
			}
			return i, nil
		}
	}

	got, err := RunAll(context.Background(), tasks, Options{MaxAtOnce: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no partial results, got %v", got)
	}
}

func TestRunAll_RateCeiling(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping rate test in short mode")
	}

	const (
		perWindow = 5
		window    = 500 * time.Millisecond
		// Scheduling delay tolerated on a recorded start.
		slack = 30 * time.Millisecond
	)

	var mu sync.Mutex
	var starts []time.Time
	tasks := make([]Task[int], 10)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (int, error) {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
			return i, nil
		}
	}

	_, err := RunAll(context.Background(), tasks, Options{
		MaxAtOnce:    5,
		MaxPerWindow: perWindow,
		Window:       window,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(starts) != 10 {
		t.Fatalf("expected 10 starts, got %d", len(starts))
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	for i := range starts {
		count := 1
		for j := i + 1; j < len(starts); j++ {
			if starts[j].Sub(starts[i]) < window-slack {
				count++
			}
		}
		if count > perWindow {
			t.Errorf("rate ceiling violated: %d starts within %v from start %d (max %d)", count, window, i, perWindow)
			for k, ts := range starts {
				t.Logf("  start %d: %v", k, ts.Sub(starts[0]))
			}
			break
		}
	}
}

func TestRunAll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []Task[int]{
		func(ctx context.Context) (int, error) { return 0, ctx.Err() },
		func(ctx context.Context) (int, error) { return 0, ctx.Err() },
	}
	if _, err := RunAll(ctx, tasks, Options{MaxAtOnce: 1, MaxPerWindow: 1}); err == nil {
		t.Error("expected error from cancelled context")
	}
}
