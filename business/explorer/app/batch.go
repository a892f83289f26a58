package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize bounds the lookups in flight per wave.
const DefaultBatchSize = 60

// BatchResult is the outcome of one lookup.
type BatchResult[K, V any] struct {
	Key   K
	Value V
	Err   error
}

// BatchFetch runs fetch for every key in waves of at most size lookups.
// A wave completes before the next starts. Failures stay on their item and
// never cancel siblings. onChunk, when set, sees each wave's results as soon
// as the wave completes. Results keep input order.
func BatchFetch[K, V any](
	ctx context.Context,
	keys []K,
	size int,
	fetch func(ctx context.Context, key K) (V, error),
	onChunk func(chunk []BatchResult[K, V]),
) []BatchResult[K, V] {
	if size <= 0 {
		size = DefaultBatchSize
	}

	results := make([]BatchResult[K, V], len(keys))
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))

		// Plain errgroup.Group: errors are kept per item, so no ctx cancel.
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				v, err := fetch(ctx, keys[i])
				results[i] = BatchResult[K, V]{Key: keys[i], Value: v, Err: err}
				return nil
			})
		}
		_ = g.Wait()

		if onChunk != nil {
			onChunk(results[start:end])
		}
		if ctx.Err() != nil {
			for i := end; i < len(keys); i++ {
				results[i] = BatchResult[K, V]{Key: keys[i], Err: ctx.Err()}
			}
			break
		}
	}
	return results
}

// Chunks returns ceil(n/size) for size > 0.
func Chunks(n, size int) int {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return (n + size - 1) / size
}
