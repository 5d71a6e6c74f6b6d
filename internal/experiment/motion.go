package experiment

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/springsim/internal/dynamo"
	"github.com/san-kum/springsim/internal/sim"
)

// Sway moves one node back and forth along, or about, an axis. It stands
// in for the character animation that would normally drive the rig.
type Sway struct {
	Node      dynamo.NodeID
	Rotate    bool
	Axis      mgl64.Vec3
	Amplitude float64
	Frequency float64

	basePos mgl64.Vec3
	baseRot mgl64.Quat
}

var _ sim.Driver = (*Sway)(nil)

// NewSway captures the node's current local pose as the centre of the
// motion.
func NewSway(h dynamo.Hierarchy, node dynamo.NodeID, rotate bool, axis mgl64.Vec3, amplitude, frequency float64) *Sway {
	if n, ok := dynamo.Normalize(axis); ok {
		axis = n
	} else {
		axis = dynamo.UnitX
	}
	return &Sway{
		Node:      node,
		Rotate:    rotate,
		Axis:      axis,
		Amplitude: amplitude,
		Frequency: frequency,
		basePos:   h.LocalPosition(node),
		baseRot:   h.LocalRotation(node),
	}
}

// Offset is the signed displacement at time t, in the motion's units.
func (s *Sway) Offset(t float64) float64 {
	return s.Amplitude * math.Sin(2*math.Pi*s.Frequency*t)
}

func (s *Sway) Apply(h dynamo.Hierarchy, t float64) {
	off := s.Offset(t)
	if s.Rotate {
		q := mgl64.QuatRotate(mgl64.DegToRad(off), s.Axis)
		h.SetLocalRotation(s.Node, s.baseRot.Mul(q).Normalize())
		return
	}
	h.SetLocalPosition(s.Node, s.basePos.Add(s.Axis.Mul(off)))
}
