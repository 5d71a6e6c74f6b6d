package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/springsim/internal/dynamo"
	"gonum.org/v1/gonum/stat"
)

// SwingAngle is the mean angle, in degrees, between each bone and the
// direction it points in its rest pose.
type SwingAngle struct {
	name    string
	samples []float64
}

func NewSwingAngle() *SwingAngle {
	return &SwingAngle{name: "swing_angle"}
}

func (s *SwingAngle) Name() string { return s.name }

func (s *SwingAngle) Observe(f dynamo.Frame) {
	for _, b := range f.Bones() {
		s.samples = append(s.samples, Angle(b.Direction(), b.Rest))
	}
}

func (s *SwingAngle) Value() float64 {
	if len(s.samples) == 0 {
		return 0
	}
	return stat.Mean(s.samples, nil)
}

// StdDev is the spread of the observed angles.
func (s *SwingAngle) StdDev() float64 {
	if len(s.samples) < 2 {
		return 0
	}
	return stat.StdDev(s.samples, nil)
}

func (s *SwingAngle) Reset() { s.samples = s.samples[:0] }

// Angle returns the angle between a and b in degrees, or 0 if either is
// degenerate.
func Angle(a, b mgl64.Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la == 0 || lb == 0 {
		return 0
	}
	c := mgl64.Clamp(a.Dot(b)/(la*lb), -1, 1)
	return mgl64.RadToDeg(math.Acos(c))
}
