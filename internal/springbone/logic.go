package springbone

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/springsim/internal/dynamo"
)

// Logic is the simulation state of a single bone: one point mass on a
// rigid rod of fixed length hanging off the bone's origin.
type Logic struct {
	node          dynamo.NodeID
	boneAxis      mgl64.Vec3
	length        float64
	localRotation mgl64.Quat

	// Tail positions live in world space, or in the center node's local
	// space when the chain has a center.
	currentTail mgl64.Vec3
	prevTail    mgl64.Vec3

	Radius float64
}

// NewLogic captures the rest pose of node. localChild is the position of the
// bone's tip in node's local space.
func NewLogic(h dynamo.Hierarchy, center, node dynamo.NodeID, localChild mgl64.Vec3) (*Logic, error) {
	axis, ok := dynamo.Normalize(localChild)
	if !ok {
		return nil, &dynamo.BoneError{Node: node, Name: h.Name(node), Wrapped: dynamo.ErrZeroLength}
	}

	worldChild := h.TransformPoint(node, localChild)
	tail := worldChild
	if center.Valid() {
		tail = h.InverseTransformPoint(center, worldChild)
	}

	return &Logic{
		node:          node,
		boneAxis:      axis,
		length:        localChild.Len(),
		localRotation: h.LocalRotation(node),
		currentTail:   tail,
		prevTail:      tail,
		Radius:        DefaultHitRadius,
	}, nil
}

func (l *Logic) Node() dynamo.NodeID       { return l.node }
func (l *Logic) Length() float64           { return l.length }
func (l *Logic) BoneAxis() mgl64.Vec3      { return l.boneAxis }
func (l *Logic) LocalRotation() mgl64.Quat { return l.localRotation }
func (l *Logic) CurrentTail() mgl64.Vec3   { return l.currentTail }
func (l *Logic) PrevTail() mgl64.Vec3      { return l.prevTail }

// Head returns the bone origin in world space.
func (l *Logic) Head(h dynamo.Hierarchy) mgl64.Vec3 {
	return h.WorldPosition(l.node)
}

// WorldTail returns the current tail in world space.
func (l *Logic) WorldTail(h dynamo.Hierarchy, center dynamo.NodeID) mgl64.Vec3 {
	if center.Valid() {
		return h.TransformPoint(center, l.currentTail)
	}
	return l.currentTail
}

func (l *Logic) parentRotation(h dynamo.Hierarchy) mgl64.Quat {
	if p := h.Parent(l.node); p.Valid() {
		return h.WorldRotation(p)
	}
	return mgl64.QuatIdent()
}

// Update advances the bone by one verlet step and writes the resulting
// orientation back to the node. stiffness and external are already scaled
// by the frame's delta time.
func (l *Logic) Update(h dynamo.Hierarchy, center dynamo.NodeID, stiffness, drag float64, external mgl64.Vec3, colliders []dynamo.Sphere) {
	current, prev := l.currentTail, l.prevTail
	if center.Valid() {
		current = h.TransformPoint(center, current)
		prev = h.TransformPoint(center, prev)
	}

	parentRot := l.parentRotation(h)
	rest := parentRot.Mul(l.localRotation)
	head := h.WorldPosition(l.node)

	next := current.
		Add(current.Sub(prev).Mul(1 - drag)).
		Add(rest.Rotate(l.boneAxis).Mul(stiffness)).
		Add(external)

	next = l.constrain(head, next, rest)
	next = l.collide(head, next, rest, colliders)

	if center.Valid() {
		l.prevTail = h.InverseTransformPoint(center, current)
		l.currentTail = h.InverseTransformPoint(center, next)
	} else {
		l.prevTail = current
		l.currentTail = next
	}

	h.SetWorldRotation(l.node, l.applyRotation(rest, head, next))
}

// constrain puts p back on the sphere of radius length around head. A tip
// that collapsed onto the head falls back to the rest direction.
func (l *Logic) constrain(head, p mgl64.Vec3, rest mgl64.Quat) mgl64.Vec3 {
	dir, ok := dynamo.Normalize(p.Sub(head))
	if !ok {
		dir = rest.Rotate(l.boneAxis)
	}
	return head.Add(dir.Mul(l.length))
}

// collide pushes the tip out of every overlapping sphere in order. Each
// push sees the tip left by the previous one.
func (l *Logic) collide(head, next mgl64.Vec3, rest mgl64.Quat, colliders []dynamo.Sphere) mgl64.Vec3 {
	for _, c := range colliders {
		r := l.Radius + c.Radius
		d := next.Sub(c.Center)
		if d.LenSqr() > r*r {
			continue
		}
		normal, ok := dynamo.Normalize(d)
		if !ok {
			if normal, ok = dynamo.Normalize(head.Sub(c.Center)); !ok {
				normal = dynamo.UnitY
			}
		}
		surface := c.Center.Add(normal.Mul(r))
		next = l.constrain(head, surface, rest)
	}
	return next
}

// applyRotation returns the world orientation that swings the rest-pose
// bone axis onto the simulated direction.
func (l *Logic) applyRotation(rest mgl64.Quat, head, next mgl64.Vec3) mgl64.Quat {
	return dynamo.FromToRotation(rest.Rotate(l.boneAxis), next.Sub(head), dynamo.UnitY).Mul(rest)
}

// Sample reports the bone's world-space state.
func (l *Logic) Sample(h dynamo.Hierarchy, center dynamo.NodeID) dynamo.BoneSample {
	return dynamo.BoneSample{
		Node:   l.node,
		Name:   h.Name(l.node),
		Head:   h.WorldPosition(l.node),
		Tail:   l.WorldTail(h, center),
		Rest:   l.parentRotation(h).Mul(l.localRotation).Rotate(l.boneAxis),
		Length: l.length,
		Radius: l.Radius,
	}
}
