package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ProcessFunc is the function signature for processing a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// ProgressFunc is called after each completed input.
type ProgressFunc func(done, total int)

// Pool runs independent inputs with bounded concurrency.
type Pool[T any, R any] struct {
	workers  int
	process  ProcessFunc[T, R]
	progress ProgressFunc
}

// NewPool creates a new worker pool.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// OnProgress registers a progress callback.
func (p *Pool[T, R]) OnProgress(fn ProgressFunc) *Pool[T, R] {
	p.progress = fn
	return p
}

// Execute processes all inputs and returns the results in input order.
// The first failure cancels the remaining work and is returned; inputs
// not yet started when ctx is cancelled are skipped.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) ([]R, error) {
	results := make([]R, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	var (
		mu   sync.Mutex
		done int
	)

	for i := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := p.process(gctx, inputs[i])
			if err != nil {
				log.Debug().Err(err).Int("index", i).Msg("Task failed")
				return err
			}
			results[i] = result

			mu.Lock()
			done++
			if p.progress != nil {
				p.progress(done, len(inputs))
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Batch splits items into consecutive chunks of at most batchSize.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 1
	}
	var batches [][]T
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}
