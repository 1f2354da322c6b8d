package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type WorkerFn func(ctx context.Context, index int) error

// Run calls fn for every index in [0, tasks) with at most limit calls in
// flight. The first error cancels the context passed to the remaining calls
// and is returned once every started call has finished.
func Run(ctx context.Context, limit, tasks int, fn WorkerFn) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := 0; i < tasks; i++ {
		if gctx.Err() != nil {
			break
		}
		idx := i
		g.Go(func() error {
			return fn(gctx, idx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
