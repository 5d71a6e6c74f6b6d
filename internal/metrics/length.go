package metrics

import (
	"math"

	"github.com/san-kum/springsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// LengthError tracks the worst deviation of any bone's head-to-tail
// distance from its rest length.
type LengthError struct {
	name  string
	worst []float64
}

func NewLengthError() *LengthError {
	return &LengthError{name: "length_error"}
}

func (l *LengthError) Name() string { return l.name }

func (l *LengthError) Observe(f dynamo.Frame) {
	worst := 0.0
	for _, b := range f.Bones() {
		worst = math.Max(worst, math.Abs(b.Tail.Sub(b.Head).Len()-b.Length))
	}
	l.worst = append(l.worst, worst)
}

func (l *LengthError) Value() float64 {
	if len(l.worst) == 0 {
		return 0
	}
	return floats.Max(l.worst)
}

func (l *LengthError) Reset() { l.worst = l.worst[:0] }

// Penetration tracks how far any tail sphere sinks into a collider of its
// own chain. Contained chains report 0.
type Penetration struct {
	name  string
	depth float64
}

func NewPenetration() *Penetration {
	return &Penetration{name: "penetration"}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(f dynamo.Frame) {
	for _, c := range f.Chains {
		for _, b := range c.Bones {
			for _, s := range c.Colliders {
				d := s.Radius + b.Radius - b.Tail.Sub(s.Center).Len()
				p.depth = math.Max(p.depth, d)
			}
		}
	}
}

func (p *Penetration) Value() float64 { return p.depth }
func (p *Penetration) Reset()         { p.depth = 0 }
