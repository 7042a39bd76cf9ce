package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/casim/internal/control"
	"github.com/san-kum/casim/internal/metrics"
)

// GridSearch evaluates the Cartesian product of candidate values, one list
// per named parameter, and keeps the lowest score.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d params but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("grid search: no candidates for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of points in the grid.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

func (g *GridSearch) Search(
	ctx context.Context,
	evaluate func(params map[string]float64) (float64, error),
) (map[string]float64, float64, error) {

	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), evaluate, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	evaluate func(map[string]float64) (float64, error),
	best *float64,
	bestParams *map[string]float64,
) error {
	if depth == len(g.paramNames) {
		if err := ctx.Err(); err != nil {
			return err
		}
		val, err := evaluate(current)
		if err != nil {
			return err
		}
		if val < *best || *bestParams == nil {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, evaluate, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// GainGrid searches Kp, Ki and Kd candidates against obj on seeds.
func GainGrid(ctx context.Context, obj Objective, seeds []int64, kp, ki, kd []float64) (Individual, error) {
	if err := obj.Validate(); err != nil {
		return Individual{}, err
	}
	return gainGrid(ctx, obj.Evaluate, seeds, kp, ki, kd)
}

type evaluateFunc func(g control.Gains, seeds []int64) (float64, []metrics.Summary, error)

func gainGrid(ctx context.Context, evaluate evaluateFunc, seeds []int64, kp, ki, kd []float64) (Individual, error) {
	gs, err := NewGridSearch([]string{"Kp", "Ki", "Kd"}, [][]float64{kp, ki, kd})
	if err != nil {
		return Individual{}, err
	}

	// Tracks the same winner as Search: strictly lower, first one on ties.
	bestFitness := math.Inf(1)
	var bestSummaries []metrics.Summary
	params, fitness, err := gs.Search(ctx, func(p map[string]float64) (float64, error) {
		f, summaries, err := evaluate(gainsFromParams(p), seeds)
		if err != nil {
			return 0, err
		}
		if f < bestFitness || bestSummaries == nil {
			bestFitness, bestSummaries = f, summaries
		}
		return f, nil
	})
	if err != nil {
		return Individual{}, err
	}
	return Individual{Gains: gainsFromParams(params), Fitness: fitness, Summaries: bestSummaries, evaluated: true}, nil
}

func gainsFromParams(p map[string]float64) control.Gains {
	return control.Gains{Kp: p["Kp"], Ki: p["Ki"], Kd: p["Kd"]}
}
