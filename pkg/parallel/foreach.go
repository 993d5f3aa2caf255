package parallel

import (
	"context"
	"sync"
)

// ForEach runs fn for every index in [0, n) on a pool of workers. The first
// error returned by fn cancels the remaining work and is returned. Callers
// that write results into index-addressed slots get output independent of
// the worker count.
func ForEach(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}
	if workers > n {
		workers = n
	}
	pool, err := NewWorkerPool(workers)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			if err := fn(ctx, i); err != nil {
				fail(err)
			}
		})
	}

	if err := pool.Wait(); err != nil {
		fail(err)
	}
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
