// Package optim searches configuration space for the run that optimizes a
// metric.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/cherrycore/internal/config"
	"github.com/san-kum/cherrycore/internal/experiment"
)

// Point is one evaluated grid cell.
type Point struct {
	Params map[string]float64
	Value  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

// NewGridSearch searches the cartesian product of ranges, one range per
// config key in params. It minimizes unless Maximize is called.
func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Search runs one experiment per grid cell, each built from a copy of base
// with the cell's keys applied. It returns every evaluated point in grid
// order and the best one.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	metricName string,
	opts ...experiment.Option,
) ([]Point, Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, Point{}, fmt.Errorf("optim: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := Point{Value: math.Inf(1)}
	if g.maximize {
		best.Value = math.Inf(-1)
	}
	var points []Point
	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		cfg := *base
		for k, v := range params {
			if err := cfg.Set(k, v); err != nil {
				return err
			}
		}
		exp, err := experiment.New(&cfg, opts...)
		if err != nil {
			return err
		}
		sum, err := exp.Run(ctx)
		if err != nil {
			return err
		}
		val, ok := sum.Metrics[metricName]
		if !ok {
			return fmt.Errorf("optim: unknown metric %q", metricName)
		}

		p := Point{Params: params, Value: val}
		points = append(points, p)
		if (g.maximize && val > best.Value) || (!g.maximize && val < best.Value) {
			best = p
		}
		return nil
	})
	return points, best, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval func(map[string]float64) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return eval(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, eval); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
