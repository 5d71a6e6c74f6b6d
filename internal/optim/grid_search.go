package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"github.com/san-kum/springsim/internal/config"
	"github.com/san-kum/springsim/internal/experiment"
)

// GridSearch tries every combination of chain parameter values and keeps
// the one that minimizes a metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64

	Logger logr.Logger
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, Logger: logr.Discard()}
}

// Search runs a fresh rig from base for every grid point. Runs that fail
// are logged and skipped; an error is returned only when the grid is
// malformed or no run succeeds.
func (g *GridSearch) Search(
	ctx context.Context,
	base func() *config.Config,
	metricName string,
) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("grid has %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	registry := experiment.NewRegistry()
	if _, err := registry.GetMetric(metricName); err != nil {
		return nil, 0, err
	}
	probe := base()
	for _, name := range g.paramNames {
		if err := probe.SetChainParam(name, 0); err != nil {
			return nil, 0, err
		}
	}

	best := math.Inf(1)
	var bestParams map[string]float64

	g.searchRecursive(ctx, 0, make(map[string]float64), base, registry, metricName, &best, &bestParams)

	if err := ctx.Err(); err != nil {
		return bestParams, best, err
	}
	if bestParams == nil {
		return nil, best, fmt.Errorf("no grid point produced %s", metricName)
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base func() *config.Config,
	registry *experiment.Registry,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) {
	if ctx.Err() != nil {
		return
	}

	if depth == len(g.paramNames) {
		val, err := g.evaluate(ctx, current, base, registry, metricName)
		if err != nil {
			g.Logger.Info("grid point failed", "params", current, "error", err.Error())
			return
		}
		g.Logger.V(1).Info("grid point", "params", current, metricName, val)

		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, base, registry, metricName, best, bestParams)
	}
}

func (g *GridSearch) evaluate(
	ctx context.Context,
	params map[string]float64,
	base func() *config.Config,
	registry *experiment.Registry,
	metricName string,
) (float64, error) {
	cfg := base()
	for name, v := range params {
		if err := cfg.SetChainParam(name, v); err != nil {
			return 0, err
		}
	}

	metric, err := registry.GetMetric(metricName)
	if err != nil {
		return 0, err
	}

	exp := experiment.New(cfg, g.Logger)
	if err := exp.Setup(nil); err != nil {
		return 0, err
	}
	exp.GetSimulator().AddMetric(metric)

	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	if len(result.Errors) > 0 {
		return 0, result.Errors[0]
	}
	return result.Metrics[metricName], nil
}
