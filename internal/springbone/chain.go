// Package springbone drives secondary motion for bone chains such as hair,
// skirts and tails. Every bone is a single point on a rigid rod that is
// integrated with damped verlet, pulled toward its rest pose, dragged by
// gravity and pushed out of sphere colliders.
package springbone

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-logr/logr"
	"github.com/san-kum/springsim/internal/dynamo"
)

const (
	DefaultStiffness    = 1.0
	DefaultGravityPower = 0.0
	DefaultDrag         = 0.4
	DefaultHitRadius    = 0.02

	// DefaultLeafExtension is how far past a leaf bone its tip is placed,
	// along the parent-to-leaf direction. It is a tuning value, not a
	// physical quantity.
	DefaultLeafExtension = 0.07
)

// DefaultGravityDir points down.
var DefaultGravityDir = mgl64.Vec3{0, -1, 0}

// Chain simulates every bone below RootBones. Configuration fields are set
// by the owner before the first Setup or Update.
type Chain struct {
	Comment        string
	StiffnessForce float64
	GravityPower   float64
	GravityDir     mgl64.Vec3
	DragForce      float64
	HitRadius      float64
	Center         dynamo.NodeID
	RootBones      []dynamo.NodeID
	ColliderGroups []ColliderGroup

	LeafExtension float64
	// Strict makes Setup fail on the first invalid bone instead of
	// skipping it.
	Strict bool
	Logger logr.Logger

	h                     dynamo.Hierarchy
	setupDone             bool
	verlet                []*Logic
	initialLocalRotations map[dynamo.NodeID]mgl64.Quat
	colliders             []dynamo.Sphere
}

func NewChain(h dynamo.Hierarchy) *Chain {
	return &Chain{
		StiffnessForce: DefaultStiffness,
		GravityPower:   DefaultGravityPower,
		GravityDir:     DefaultGravityDir,
		DragForce:      DefaultDrag,
		HitRadius:      DefaultHitRadius,
		Center:         dynamo.NoNode,
		LeafExtension:  DefaultLeafExtension,
		Logger:         logr.Discard(),
		h:              h,
	}
}

// Hierarchy returns the scene the chain reads and writes.
func (c *Chain) Hierarchy() dynamo.Hierarchy { return c.h }

// Bones returns the per-bone state in update order, parents first.
func (c *Chain) Bones() []*Logic { return c.verlet }

// Colliders returns the world-space spheres used by the last Update.
func (c *Chain) Colliders() []dynamo.Sphere { return c.colliders }

// InitialLocalRotation returns the local rotation captured for id by the
// last Setup.
func (c *Chain) InitialLocalRotation(id dynamo.NodeID) (mgl64.Quat, bool) {
	q, ok := c.initialLocalRotations[id]
	return q, ok
}

// Setup builds one Logic per node below RootBones, depth-first. With force
// unset, a previous snapshot is restored onto the nodes first, so repeated
// calls rebuild from the original rest pose rather than the simulated one.
//
// Invalid bones are skipped and reported together in the returned error;
// the rest of the chain is still usable. In Strict mode the first invalid
// bone aborts Setup and leaves the chain empty.
func (c *Chain) Setup(force bool) error {
	if len(c.RootBones) == 0 {
		return nil
	}

	if !force {
		for id, q := range c.initialLocalRotations {
			c.h.SetLocalRotation(id, q)
		}
	}
	c.initialLocalRotations = make(map[dynamo.NodeID]mgl64.Quat)
	c.verlet = nil
	c.setupDone = true

	var errs []error
	for _, root := range c.RootBones {
		c.snapshot(root)
		if err := c.setupRecursive(root, &errs); err != nil {
			c.verlet = nil
			return err
		}
	}

	return errors.Join(errs...)
}

func (c *Chain) snapshot(id dynamo.NodeID) {
	c.initialLocalRotations[id] = c.h.LocalRotation(id)
	for _, child := range c.h.Children(id) {
		c.snapshot(child)
	}
}

func (c *Chain) setupRecursive(id dynamo.NodeID, errs *[]error) error {
	children := c.h.Children(id)

	var logic *Logic
	var err error
	if len(children) == 0 {
		logic, err = c.leafLogic(id)
	} else {
		p := c.h.LocalPosition(children[0])
		s := c.h.LocalScale(children[0])
		logic, err = NewLogic(c.h, c.Center, id, mgl64.Vec3{p.X() * s.X(), p.Y() * s.Y(), p.Z() * s.Z()})
	}

	if err != nil {
		if c.Strict {
			return err
		}
		c.Logger.Info("skipping spring bone", "node", id, "name", c.h.Name(id), "reason", err.Error())
		*errs = append(*errs, err)
	} else {
		c.verlet = append(c.verlet, logic)
	}

	for _, child := range children {
		if err := c.setupRecursive(child, errs); err != nil {
			return err
		}
	}
	return nil
}

// leafLogic synthesizes a tip for a bone with no children by extending the
// parent-to-bone direction by LeafExtension.
func (c *Chain) leafLogic(id dynamo.NodeID) (*Logic, error) {
	parent := c.h.Parent(id)
	if !parent.Valid() {
		return nil, &dynamo.BoneError{Node: id, Name: c.h.Name(id), Wrapped: dynamo.ErrMissingParent}
	}

	pos := c.h.WorldPosition(id)
	dir, _ := dynamo.Normalize(pos.Sub(c.h.WorldPosition(parent)))
	tip := pos.Add(dir.Mul(c.LeafExtension))
	return NewLogic(c.h, c.Center, id, c.h.InverseTransformPoint(id, tip))
}

// SetLocalRotationsIdentity resets every simulated node to identity local
// rotation.
func (c *Chain) SetLocalRotationsIdentity() {
	for _, v := range c.verlet {
		c.h.SetLocalRotation(v.node, mgl64.QuatIdent())
	}
}

// Update advances every bone by dt seconds. The chain sets itself up on
// first use; a failed setup is reported once and not retried until the
// next explicit Setup.
func (c *Chain) Update(dt float64) {
	if !c.setupDone {
		if len(c.RootBones) == 0 {
			return
		}
		if err := c.Setup(false); err != nil {
			c.Logger.Error(err, "spring bone setup incomplete", "comment", c.Comment)
		}
	}

	c.colliders = c.colliders[:0]
	for _, g := range c.ColliderGroups {
		c.colliders = g.Resolve(c.h, c.colliders)
	}

	stiffness := c.StiffnessForce * dt
	external := c.GravityDir.Mul(c.GravityPower * dt)

	for _, v := range c.verlet {
		v.Radius = c.HitRadius
		v.Update(c.h, c.Center, stiffness, c.DragForce, external, c.colliders)
	}
}

// Sample returns the world-space state of every bone, in update order,
// with the colliders of the last Update.
func (c *Chain) Sample() dynamo.ChainSample {
	bones := make([]dynamo.BoneSample, len(c.verlet))
	for i, v := range c.verlet {
		bones[i] = v.Sample(c.h, c.Center)
	}
	return dynamo.ChainSample{
		Comment:   c.Comment,
		Bones:     bones,
		Colliders: append([]dynamo.Sphere(nil), c.colliders...),
	}
}

// Nodes returns every node the chain writes to.
func (c *Chain) Nodes() []dynamo.NodeID {
	nodes := make([]dynamo.NodeID, len(c.verlet))
	for i, v := range c.verlet {
		nodes[i] = v.node
	}
	return nodes
}
