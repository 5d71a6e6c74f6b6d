package sim

import (
	"context"

	"github.com/san-kum/springsim/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent simulators concurrently. The simulators must
// not share a hierarchy.
type Ensemble struct {
	sims []*Simulator
}

func NewEnsemble(sims ...*Simulator) *Ensemble {
	return &Ensemble{sims: sims}
}

func (e *Ensemble) Len() int { return len(e.sims) }

// Run stops every member as soon as one of them fails.
func (e *Ensemble) Run(ctx context.Context, cfg dynamo.Config) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(e.sims))

	g, ctx := errgroup.WithContext(ctx)
	for i, s := range e.sims {
		g.Go(func() error {
			r, err := s.Run(ctx, cfg)
			results[i] = r
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
