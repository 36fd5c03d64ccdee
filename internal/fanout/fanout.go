// Package fanout runs batches of independent generation calls and joins
// their results back in input order.
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// PartialBatchError reports that at least one call of a join-all batch
// failed. Index is the position of the call whose error is carried.
type PartialBatchError struct {
	Index int
	Total int
	Err   error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("batch item %d of %d failed: %v", e.Index+1, e.Total, e.Err)
}

func (e *PartialBatchError) Unwrap() error { return e.Err }

type config struct {
	limit  int
	logger *slog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{logger: slog.Default()}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// Option tunes a batch.
type Option func(*config)

// WithLimit caps the number of calls in flight. n <= 0 means unbounded.
func WithLimit(n int) Option {
	return func(c *config) { c.limit = n }
}

// WithLogger sets the logger batch progress is written to. Failures are
// returned, not logged; callers report them.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// JoinAll runs fn for every item concurrently and returns the results in
// item order. If any call fails the remaining calls are cancelled, no
// results are returned and the error is a *PartialBatchError.
func JoinAll[T, R any](ctx context.Context, items []T, fn func(ctx context.Context, i int, item T) (R, error), opts ...Option) ([]R, error) {
	cfg := newConfig(opts)
	if len(items) == 0 {
		return []R{}, nil
	}

	cfg.logger.Debug("fanout join-all start", "item_count", len(items), "limit", cfg.limit)
	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.limit > 0 {
		g.SetLimit(cfg.limit)
	}
	for i, item := range items {
		g.Go(func() error {
			r, err := fn(gctx, i, item)
			if err != nil {
				return &PartialBatchError{Index: i, Total: len(items), Err: err}
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		cfg.logger.Debug("fanout join-all aborted", "item_count", len(items))
		return nil, err
	}
	return results, nil
}

// Isolated runs fn for every item concurrently. Failures do not affect
// other items; the returned slice holds each item's error (nil on success)
// in item order.
func Isolated[T any](ctx context.Context, items []T, fn func(ctx context.Context, i int, item T) error, opts ...Option) []error {
	cfg := newConfig(opts)
	errs := make([]error, len(items))
	var sem chan struct{}
	if cfg.limit > 0 {
		sem = make(chan struct{}, cfg.limit)
	}
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					errs[i] = ctx.Err()
					return
				}
			}
			errs[i] = fn(ctx, i, item)
		}()
	}
	wg.Wait()
	return errs
}
