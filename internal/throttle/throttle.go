// Package throttle runs a batch of independent tasks under a ceiling on
// tasks in flight and on task starts per time window.
package throttle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Task is one unit of work. It must honour ctx cancellation.
type Task[T any] func(ctx context.Context) (T, error)

// Options bounds a RunAll call. Zero values disable the matching ceiling.
type Options struct {
	// MaxAtOnce caps the number of tasks running at the same time.
	MaxAtOnce int
	// MaxPerWindow caps task starts in any interval of length Window. Starts
	// are spaced Window/MaxPerWindow apart. Window defaults to one second.
	MaxPerWindow int
	Window       time.Duration
}

func (o Options) limiter() *rate.Limiter {
	if o.MaxPerWindow <= 0 {
		return nil
	}
	window := o.Window
	if window <= 0 {
		window = time.Second
	}
	every := window / time.Duration(o.MaxPerWindow)
	return rate.NewLimiter(rate.Every(every), 1)
}

// RunAll runs every task and returns their results in task order.
// The first failure cancels the remaining tasks and is returned; partial
// results are discarded.
func RunAll[T any](ctx context.Context, tasks []Task[T], opts Options) ([]T, error) {
	results := make([]T, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if opts.MaxAtOnce > 0 {
		g.SetLimit(opts.MaxAtOnce)
	}
	lim := opts.limiter()

	for i, task := range tasks {
		if lim != nil {
			if err := lim.Wait(gctx); err != nil {
				// gctx is cancelled when a task failed; report that failure.
				if werr := g.Wait(); werr != nil {
					return nil, werr
				}
				return nil, fmt.Errorf("throttle wait: %w", err)
			}
		}
		g.Go(func() error {
			v, err := task(gctx)
			if err != nil {
				return fmt.Errorf("task %d: %w", i, err)
			}
			results[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
