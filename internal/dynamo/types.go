package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NodeID addresses a node in a Hierarchy. IDs are stable for the lifetime
// of the hierarchy; the solver never owns the node behind one.
type NodeID int

// NoNode marks an absent node reference (no parent, no center frame).
const NoNode NodeID = -1

// Valid reports whether id refers to a node at all.
func (id NodeID) Valid() bool { return id >= 0 }

// Hierarchy is the narrow view of a host scene graph that the solver reads
// and writes through.
type Hierarchy interface {
	Name(id NodeID) string
	Parent(id NodeID) NodeID
	Children(id NodeID) []NodeID

	WorldPosition(id NodeID) mgl64.Vec3
	WorldRotation(id NodeID) mgl64.Quat
	SetWorldRotation(id NodeID, q mgl64.Quat)

	LocalPosition(id NodeID) mgl64.Vec3
	SetLocalPosition(id NodeID, p mgl64.Vec3)
	LocalRotation(id NodeID) mgl64.Quat
	SetLocalRotation(id NodeID, q mgl64.Quat)
	LocalScale(id NodeID) mgl64.Vec3

	LocalToWorld(id NodeID) mgl64.Mat4
	WorldToLocal(id NodeID) mgl64.Mat4
	TransformPoint(id NodeID, p mgl64.Vec3) mgl64.Vec3
	InverseTransformPoint(id NodeID, p mgl64.Vec3) mgl64.Vec3
}

// Sphere is a collision sphere resolved to world space for one frame.
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

// BoneSample is the world-space state of one simulated bone after a tick.
type BoneSample struct {
	Node   NodeID
	Name   string
	Head   mgl64.Vec3
	Tail   mgl64.Vec3
	Rest   mgl64.Vec3 // unit direction the bone would point in its rest pose
	Length float64
	Radius float64
}

// Direction returns the unit vector from head to tail.
func (b BoneSample) Direction() mgl64.Vec3 {
	d := b.Tail.Sub(b.Head)
	if l := d.Len(); l > 0 {
		return d.Mul(1 / l)
	}
	return d
}

// ChainSample groups the bones of one chain with the colliders they were
// tested against.
type ChainSample struct {
	Comment   string
	Bones     []BoneSample
	Colliders []Sphere
}

// Frame is the snapshot taken after every chain has been advanced.
type Frame struct {
	Step   int
	Time   float64
	Dt     float64
	Chains []ChainSample
}

// Bones returns every bone of every chain, in update order.
func (f Frame) Bones() []BoneSample {
	var out []BoneSample
	for _, c := range f.Chains {
		out = append(out, c.Bones...)
	}
	return out
}

// IsValid reports whether every sampled position is finite.
func (f Frame) IsValid() bool {
	for _, c := range f.Chains {
		for _, b := range c.Bones {
			for i := 0; i < 3; i++ {
				if !finite(b.Head[i]) || !finite(b.Tail[i]) {
					return false
				}
			}
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f Frame)
}

type Config struct {
	Dt            float64
	Duration      float64
	Parallel      bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            1.0 / 60,
		Duration:      5.0,
		ValidateState: true,
	}
}

type Result struct {
	Frames     []Frame
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Final returns the last recorded frame, or the zero Frame.
func (r *Result) Final() Frame {
	if len(r.Frames) == 0 {
		return Frame{}
	}
	return r.Frames[len(r.Frames)-1]
}
