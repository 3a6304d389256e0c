package llm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestProcess_Success(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	items := []WorkItem[string]{
		{ID: "task1", Execute: func(ctx context.Context) (string, error) { return "result1", nil }},
		{ID: "task2", Execute: func(ctx context.Context) (string, error) { return "result2", nil }},
		{ID: "task3", Execute: func(ctx context.Context) (string, error) { return "result3", nil }},
	}

	results := Process(context.Background(), pool, items)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Results arrive in completion order, index by ID
	resultsByID := make(map[string]string)
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("task %s failed: %v", r.ID, r.Err)
		}
		resultsByID[r.ID] = r.Result
	}

	if resultsByID["task1"] != "result1" || resultsByID["task2"] != "result2" || resultsByID["task3"] != "result3" {
		t.Errorf("unexpected results: %v", resultsByID)
	}
}

func TestProcess_PartialFailure(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	items := []WorkItem[string]{
		{ID: "ok", Execute: func(ctx context.Context) (string, error) { return "fine", nil }},
		{ID: "bad", Execute: func(ctx context.Context) (string, error) { return "", errors.New("provider down") }},
	}

	results := Process(context.Background(), pool, items)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	var failed, succeeded int
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}

	if failed != 1 || succeeded != 1 {
		t.Errorf("expected 1 failure and 1 success, got %d failures and %d successes", failed, succeeded)
	}
}

func TestProcess_BoundedConcurrency(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	var current, peak int32
	items := make([]WorkItem[int], 6)
	for i := range items {
		i := i
		items[i] = WorkItem[int]{
			ID: fmt.Sprintf("task%d", i),
			Execute: func(ctx context.Context) (int, error) {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return i, nil
			},
		}
	}

	results := Process(context.Background(), pool, items)

	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("concurrency exceeded limit: peak was %d", p)
	}
}

func TestProcess_ItemTimeout(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{
		MaxConcurrent: 2,
		ItemTimeout:   20 * time.Millisecond,
	}, zap.NewNop())

	items := []WorkItem[string]{
		{ID: "slow", Execute: func(ctx context.Context) (string, error) {
			select {
			case <-time.After(time.Second):
				return "too late", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}},
		{ID: "fast", Execute: func(ctx context.Context) (string, error) {
			return "done", nil
		}},
	}

	results := Process(context.Background(), pool, items)

	resultsByID := make(map[string]WorkResult[string])
	for _, r := range results {
		resultsByID[r.ID] = r
	}

	if !errors.Is(resultsByID["slow"].Err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded for slow item, got %v", resultsByID["slow"].Err)
	}
	if resultsByID["fast"].Err != nil {
		t.Errorf("fast item should not be affected: %v", resultsByID["fast"].Err)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []WorkItem[string]{
		{ID: "task1", Execute: func(ctx context.Context) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return "ran", nil
		}},
	}

	results := Process(ctx, pool, items)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestProcess_EmptyItems(t *testing.T) {
	pool := NewWorkerPool(DefaultWorkerPoolConfig(), zap.NewNop())

	results := Process[string](context.Background(), pool, nil)

	if results != nil {
		t.Errorf("expected nil results for empty items, got %v", results)
	}
}
