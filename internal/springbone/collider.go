package springbone

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/springsim/internal/dynamo"
)

// SphereCollider is a sphere expressed in its owner node's local space.
type SphereCollider struct {
	Offset mgl64.Vec3
	Radius float64
}

// ColliderGroup attaches a set of sphere colliders to one node; they follow
// that node's transform every frame.
type ColliderGroup struct {
	Name      string
	Node      dynamo.NodeID
	Colliders []SphereCollider
}

// Resolve appends the group's colliders, moved to world space through the
// owner node, to dst.
func (g ColliderGroup) Resolve(h dynamo.Hierarchy, dst []dynamo.Sphere) []dynamo.Sphere {
	for _, c := range g.Colliders {
		dst = append(dst, dynamo.Sphere{
			Center: h.TransformPoint(g.Node, c.Offset),
			Radius: c.Radius,
		})
	}
	return dst
}
