package dataframe

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/chunkfabric/eau2/row"
)

// PMap bands the dataframe's rows across workers goroutines, clones r once
// per band via Rower.Clone, runs each band's row range through mapRows
// against its own cloneForRead column handles, and folds the per-band rower clones back
// into r with Rower.Join once every band completes — the goroutine-pool
// counterpart of original_source's MapThread pool. Each band gets its own
// column.Column.Clone of every column so concurrent bands never share a
// column's unsynchronized chunk cache. workers <= 0 defaults to
// GOMAXPROCS. Grounded in original_source/src/dataframe/dataframe.h's pmap
// plus the errgroup fan-out idiom used for bounded worker pools.
func (df *DataFrame) PMap(ctx context.Context, r row.Rower, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	n := df.NRows()
	if n == 0 || workers <= 1 {
		return df.LocalMap(ctx, r)
	}
	if workers > n {
		workers = n
	}

	clones := make([]row.Rower, workers)
	g, gctx := errgroup.WithContext(ctx)

	dividend, remainder := n/workers, n%workers
	start := 0
	for i := 0; i < workers; i++ {
		bandLen := dividend
		if i < remainder {
			bandLen++
		}
		bandStart, bandEnd := start, start+bandLen
		start = bandEnd

		clone := r.Clone()
		clones[i] = clone
		bandDF := df.cloneForRead()
		g.Go(func() error {
			return bandDF.mapRows(gctx, bandStart, bandEnd, clone)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	for _, clone := range clones {
		r.Join(clone)
	}
	return nil
}
