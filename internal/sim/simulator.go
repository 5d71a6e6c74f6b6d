package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"github.com/san-kum/springsim/internal/dynamo"
	"github.com/san-kum/springsim/internal/springbone"
)

// Driver animates host nodes before the chains are advanced, standing in
// for the character animation a game would play.
type Driver interface {
	Apply(h dynamo.Hierarchy, t float64)
}

type Simulator struct {
	h         dynamo.Hierarchy
	chains    []*springbone.Chain
	driver    Driver
	clock     *Clock
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	parallel  bool
	t         float64
	step      int

	Logger logr.Logger
}

func New(h dynamo.Hierarchy, chains ...*springbone.Chain) *Simulator {
	return &Simulator{
		h:         h,
		chains:    chains,
		clock:     NewClock(),
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
		Logger:    logr.Discard(),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) SetDriver(d Driver)            { s.driver = d }

func (s *Simulator) Chains() []*springbone.Chain { return s.chains }
func (s *Simulator) Hierarchy() dynamo.Hierarchy { return s.h }
func (s *Simulator) Time() float64               { return s.t }

// Setup prepares every chain that has not been set up yet and decides
// whether chains may be advanced concurrently.
func (s *Simulator) Setup(parallel bool) error {
	var errs []error
	for _, c := range s.chains {
		if len(c.Bones()) > 0 {
			continue
		}
		if err := c.Setup(false); err != nil {
			errs = append(errs, err)
		}
	}

	s.parallel = parallel && len(s.chains) > 1
	if s.parallel && !disjoint(s.h, s.chains) {
		s.Logger.Info("chains share nodes, updating sequentially")
		s.parallel = false
	}

	if len(errs) > 0 {
		return fmt.Errorf("setup: %w", errors.Join(errs...))
	}
	return nil
}

// Reset returns every chain to its captured rest pose and rewinds time.
func (s *Simulator) Reset() error {
	var errs []error
	for _, c := range s.chains {
		if err := c.Setup(false); err != nil {
			errs = append(errs, err)
		}
	}
	s.t = 0
	s.step = 0
	s.clock.Reset()
	if s.driver != nil {
		s.driver.Apply(s.h, 0)
	}
	return errors.Join(errs...)
}

// Tick advances the simulation to the host timestamp now.
func (s *Simulator) Tick(now float64) dynamo.Frame {
	return s.Step(s.clock.Delta(now))
}

// Step advances every chain by dt and returns the resulting frame.
func (s *Simulator) Step(dt float64) dynamo.Frame {
	s.t += dt
	s.step++
	if s.driver != nil {
		s.driver.Apply(s.h, s.t)
	}

	if s.parallel {
		dynamo.ParallelFor(len(s.chains), 1, func(start, end int) {
			for _, c := range s.chains[start:end] {
				c.Update(dt)
			}
		})
	} else {
		for _, c := range s.chains {
			c.Update(dt)
		}
	}

	f := s.Sample()
	f.Dt = dt
	return f
}

// Sample snapshots the chains without advancing them.
func (s *Simulator) Sample() dynamo.Frame {
	f := dynamo.Frame{
		Step:   s.step,
		Time:   s.t,
		Chains: make([]dynamo.ChainSample, len(s.chains)),
	}
	for i, c := range s.chains {
		f.Chains[i] = c.Sample()
	}
	return f
}

func (s *Simulator) Run(ctx context.Context, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.Setup(cfg.Parallel); err != nil {
		s.Logger.Error(err, "some bones were skipped")
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &dynamo.Result{
		Frames:  make([]dynamo.Frame, 0, steps+1),
		Times:   make([]float64, 0, steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.clock.Reset()
	s.clock.Delta(s.t)
	start := s.t

	initial := s.Sample()
	result.Frames = append(result.Frames, initial)
	result.Times = append(result.Times, s.t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		f := s.Tick(start + float64(i+1)*cfg.Dt)

		if cfg.ValidateState && !f.IsValid() {
			err := dynamo.SimError{Time: f.Time, Step: i, Message: "invalid state (NaN/Inf)"}
			result.Errors = append(result.Errors, err)
			break
		}

		for _, m := range s.metrics {
			m.Observe(f)
		}
		for _, obs := range s.observers {
			obs.OnStep(f)
		}

		result.StepsTaken++
		result.Frames = append(result.Frames, f)
		result.Times = append(result.Times, f.Time)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) validateConfig(cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f: %w", cfg.Dt, dynamo.ErrInvalidConfig)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f: %w", cfg.Duration, dynamo.ErrInvalidConfig)
	}
	return nil
}

// disjoint reports whether no chain reads or writes a node written by
// another chain. A chain reads its collider group owners, its center and the
// ancestors of all of those and of its root bones.
func disjoint(h dynamo.Hierarchy, chains []*springbone.Chain) bool {
	owner := make(map[dynamo.NodeID]int)
	for i, c := range chains {
		for _, id := range c.Nodes() {
			if j, ok := owner[id]; ok && j != i {
				return false
			}
			owner[id] = i
		}
	}

	for i, c := range chains {
		reads := make([]dynamo.NodeID, 0, len(c.ColliderGroups)+len(c.RootBones)+1)
		for _, g := range c.ColliderGroups {
			reads = append(reads, g.Node)
		}
		if c.Center.Valid() {
			reads = append(reads, c.Center)
		}
		for _, root := range c.RootBones {
			reads = append(reads, h.Parent(root))
		}

		for _, id := range reads {
			for ; id.Valid(); id = h.Parent(id) {
				if j, ok := owner[id]; ok && j != i {
					return false
				}
			}
		}
	}
	return true
}
