package experiment

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/san-kum/springsim/internal/config"
	"github.com/san-kum/springsim/internal/dynamo"
	"github.com/san-kum/springsim/internal/sim"
)

type Experiment struct {
	cfg       *config.Config
	rig       *Rig
	simulator *sim.Simulator
	log       logr.Logger
}

func New(cfg *config.Config, log logr.Logger) *Experiment {
	return &Experiment{
		cfg: cfg,
		log: log,
	}
}

// Setup builds the rig and a simulator observing the given metrics.
func (e *Experiment) Setup(metrics []dynamo.Metric) error {
	rig, err := Build(e.cfg, e.log)
	if err != nil {
		return fmt.Errorf("build rig %q: %w", e.cfg.Name, err)
	}
	e.rig = rig

	e.simulator = sim.New(rig.Graph, rig.Chains...)
	e.simulator.Logger = e.log
	if rig.Motion != nil {
		e.simulator.SetDriver(rig.Motion)
	}
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}

	if err := e.simulator.Setup(e.cfg.Parallel); err != nil {
		if e.cfg.Strict {
			return err
		}
		e.log.Info("rig set up with skipped bones", "rig", e.cfg.Name, "error", err.Error())
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	simCfg := dynamo.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.cfg.Duration,
		Parallel:      e.cfg.Parallel,
		ValidateState: true,
	}

	return e.simulator.Run(ctx, simCfg)
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Rig() *Rig { return e.rig }

func (e *Experiment) Config() *config.Config { return e.cfg }
