package eval

import (
	"cmp"
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/softfloat-lab/internal/sample"
)

// #region rank
// Rank evaluates every target over seq and sorts the results by ascending
// score. Targets are evaluated concurrently; equal scores keep input order,
// so the result does not depend on scheduling.
func (e *Evaluator) Rank(ctx context.Context, targets []Target, seq sample.Sequence) ([]FormatMetrics, error) {
	metrics := make([]FormatMetrics, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			metrics[i] = e.Evaluate(t, seq)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortByScore(metrics)
	return metrics, nil
}

// SortByScore orders metrics by ascending score, stable on ties.
func SortByScore(metrics []FormatMetrics) {
	slices.SortStableFunc(metrics, func(a, b FormatMetrics) int {
		return cmp.Compare(a.Score, b.Score)
	})
}

// #endregion rank
