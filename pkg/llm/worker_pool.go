package llm

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// WorkerPoolConfig configures the LLM worker pool.
type WorkerPoolConfig struct {
	MaxConcurrent int           // Maximum concurrent LLM calls (default: 4)
	ItemTimeout   time.Duration // Per-item deadline; 0 means no per-item limit
}

// DefaultWorkerPoolConfig returns sensible defaults.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		MaxConcurrent: 4,
		ItemTimeout:   60 * time.Second,
	}
}

// WorkerPool manages concurrent LLM call execution with bounded parallelism.
// It uses a semaphore to limit outstanding requests and collects results
// as they complete. A slow provider only delays its own item; other items
// keep the failure isolated through the per-item timeout.
type WorkerPool struct {
	config WorkerPoolConfig
	logger *zap.Logger
}

// NewWorkerPool creates a new LLM worker pool.
func NewWorkerPool(config WorkerPoolConfig, logger *zap.Logger) *WorkerPool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 4
	}
	return &WorkerPool{
		config: config,
		logger: logger.Named("llm-worker-pool"),
	}
}

// WorkItem represents a unit of work to be processed.
type WorkItem[T any] struct {
	ID      string                               // For logging/tracking
	Execute func(ctx context.Context) (T, error) // The work to be executed
}

// WorkResult represents the result of a work item.
type WorkResult[T any] struct {
	ID      string
	Result  T
	Err     error
	Elapsed time.Duration
}

// Process executes all work items with bounded parallelism.
// Returns results in completion order (not submission order).
// Continues processing all items even if some fail.
func Process[T any](
	ctx context.Context,
	pool *WorkerPool,
	items []WorkItem[T],
) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	results := make([]WorkResult[T], 0, len(items))
	resultsChan := make(chan WorkResult[T], len(items))
	sem := make(chan struct{}, pool.config.MaxConcurrent)

	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func(item WorkItem[T]) {
			defer wg.Done()

			// Acquire semaphore slot (blocks if at max concurrency)
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero T
				resultsChan <- WorkResult[T]{ID: item.ID, Result: zero, Err: ctx.Err()}
				return
			}

			itemCtx := ctx
			if pool.config.ItemTimeout > 0 {
				var cancel context.CancelFunc
				itemCtx, cancel = context.WithTimeout(ctx, pool.config.ItemTimeout)
				defer cancel()
			}

			start := time.Now()
			result, err := item.Execute(itemCtx)
			elapsed := time.Since(start)

			if err != nil {
				pool.logger.Warn("work item failed",
					zap.String("id", item.ID),
					zap.Duration("elapsed", elapsed),
					zap.Error(err))
			}

			resultsChan <- WorkResult[T]{
				ID:      item.ID,
				Result:  result,
				Err:     err,
				Elapsed: elapsed,
			}
		}(item)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for result := range resultsChan {
		results = append(results, result)
	}

	return results
}
