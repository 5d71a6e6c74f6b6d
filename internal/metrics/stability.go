package metrics

import (
	"math"

	"github.com/san-kum/springsim/internal/dynamo"
)

// Stability is the fraction of frames in which every bone kept its length
// within threshold and every position stayed finite.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f dynamo.Frame) {
	s.samples++
	if !f.IsValid() {
		s.violations++
		return
	}
	for _, b := range f.Bones() {
		if math.Abs(b.Tail.Sub(b.Head).Len()-b.Length) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
