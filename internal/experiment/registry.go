package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/springsim/internal/dynamo"
	"github.com/san-kum/springsim/internal/metrics"
)

// StabilityThreshold is the length error beyond which a frame counts as
// unstable.
const StabilityThreshold = 1e-3

type Registry struct {
	metrics map[string]func() dynamo.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func() dynamo.Metric),
	}

	r.metrics["length_error"] = func() dynamo.Metric { return metrics.NewLengthError() }
	r.metrics["penetration"] = func() dynamo.Metric { return metrics.NewPenetration() }
	r.metrics["swing_angle"] = func() dynamo.Metric { return metrics.NewSwingAngle() }
	r.metrics["tail_speed"] = func() dynamo.Metric { return metrics.NewTailSpeed() }
	r.metrics["energy"] = func() dynamo.Metric { return metrics.NewEnergy() }
	r.metrics["stability"] = func() dynamo.Metric { return metrics.NewStability(StabilityThreshold) }

	return r
}

func (r *Registry) GetMetric(name string) (dynamo.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns a fresh instance of every registered metric.
func (r *Registry) DefaultMetrics() []dynamo.Metric {
	out := make([]dynamo.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		out = append(out, r.metrics[name]())
	}
	return out
}
