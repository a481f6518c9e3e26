package reconcile

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEach runs fn for every item with at most limit calls in flight. A
// failing item never cancels the others; errs[i] is the result for items[i].
func forEach[T any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, i int, item T) error) []error {
	errs := make([]error, len(items))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn(ctx, i, item)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
