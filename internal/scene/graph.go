// Package scene is an arena-backed transform hierarchy implementing
// dynamo.Hierarchy. Nodes are addressed by index; parent and child links are
// plain indices, so nothing in the graph owns anything else.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/springsim/internal/dynamo"
)

type node struct {
	name     string
	parent   dynamo.NodeID
	children []dynamo.NodeID
	position mgl64.Vec3
	rotation mgl64.Quat
	scale    mgl64.Vec3
}

// Graph is not safe for concurrent structural changes. Pose writes to
// distinct nodes may run concurrently with reads of nodes nobody writes.
type Graph struct {
	nodes  []node
	byName map[string]dynamo.NodeID
}

var _ dynamo.Hierarchy = (*Graph)(nil)

func New() *Graph {
	return &Graph{byName: make(map[string]dynamo.NodeID)}
}

// Add appends a node under parent (dynamo.NoNode for a root) and returns its
// id. Names must be unique when non-empty.
func (g *Graph) Add(name string, parent dynamo.NodeID, pos mgl64.Vec3, rot mgl64.Quat, scale mgl64.Vec3) (dynamo.NodeID, error) {
	if parent != dynamo.NoNode && !g.Has(parent) {
		return dynamo.NoNode, fmt.Errorf("parent %d of %q: %w", parent, name, dynamo.ErrUnknownNode)
	}
	if name != "" {
		if _, dup := g.byName[name]; dup {
			return dynamo.NoNode, fmt.Errorf("duplicate node name %q: %w", name, dynamo.ErrInvalidConfig)
		}
	}

	id := dynamo.NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node{
		name:     name,
		parent:   parent,
		position: pos,
		rotation: rot.Normalize(),
		scale:    scale,
	})
	if parent != dynamo.NoNode {
		g.nodes[parent].children = append(g.nodes[parent].children, id)
	}
	if name != "" {
		g.byName[name] = id
	}
	return id, nil
}

// AddEuler is Add with the local rotation given as euler degrees.
func (g *Graph) AddEuler(name string, parent dynamo.NodeID, pos, eulerDeg, scale mgl64.Vec3) (dynamo.NodeID, error) {
	return g.Add(name, parent, pos, dynamo.EulerQuat(eulerDeg), scale)
}

// MustAdd is Add for hand-built fixtures; it panics on error.
func (g *Graph) MustAdd(name string, parent dynamo.NodeID, pos mgl64.Vec3) dynamo.NodeID {
	id, err := g.Add(name, parent, pos, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1})
	if err != nil {
		panic(err)
	}
	return id
}

func (g *Graph) Len() int { return len(g.nodes) }

func (g *Graph) Has(id dynamo.NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

func (g *Graph) Lookup(name string) (dynamo.NodeID, bool) {
	id, ok := g.byName[name]
	return id, ok
}

func (g *Graph) Name(id dynamo.NodeID) string { return g.nodes[id].name }

func (g *Graph) Parent(id dynamo.NodeID) dynamo.NodeID { return g.nodes[id].parent }

// Children returns the child ids in insertion order. The slice is shared
// with the graph and must not be modified.
func (g *Graph) Children(id dynamo.NodeID) []dynamo.NodeID { return g.nodes[id].children }

// Roots returns every node without a parent, in insertion order.
func (g *Graph) Roots() []dynamo.NodeID {
	var roots []dynamo.NodeID
	for i := range g.nodes {
		if g.nodes[i].parent == dynamo.NoNode {
			roots = append(roots, dynamo.NodeID(i))
		}
	}
	return roots
}

// Descendants returns id and everything below it, depth-first, children
// visited in insertion order.
func (g *Graph) Descendants(id dynamo.NodeID) []dynamo.NodeID {
	out := []dynamo.NodeID{id}
	for _, c := range g.nodes[id].children {
		out = append(out, g.Descendants(c)...)
	}
	return out
}

func (g *Graph) LocalPosition(id dynamo.NodeID) mgl64.Vec3 { return g.nodes[id].position }

func (g *Graph) SetLocalPosition(id dynamo.NodeID, p mgl64.Vec3) { g.nodes[id].position = p }

func (g *Graph) LocalRotation(id dynamo.NodeID) mgl64.Quat { return g.nodes[id].rotation }

func (g *Graph) SetLocalRotation(id dynamo.NodeID, q mgl64.Quat) {
	g.nodes[id].rotation = q.Normalize()
}

func (g *Graph) LocalScale(id dynamo.NodeID) mgl64.Vec3 { return g.nodes[id].scale }

func (g *Graph) SetLocalScale(id dynamo.NodeID, s mgl64.Vec3) { g.nodes[id].scale = s }

// LocalMatrix is the node's translate * rotate * scale relative to its parent.
func (g *Graph) LocalMatrix(id dynamo.NodeID) mgl64.Mat4 {
	n := &g.nodes[id]
	return dynamo.TRSQuat(n.position, n.rotation, n.scale)
}

func (g *Graph) LocalToWorld(id dynamo.NodeID) mgl64.Mat4 {
	m := g.LocalMatrix(id)
	for p := g.nodes[id].parent; p != dynamo.NoNode; p = g.nodes[p].parent {
		m = g.LocalMatrix(p).Mul4(m)
	}
	return m
}

func (g *Graph) WorldToLocal(id dynamo.NodeID) mgl64.Mat4 {
	return g.LocalToWorld(id).Inv()
}

func (g *Graph) TransformPoint(id dynamo.NodeID, p mgl64.Vec3) mgl64.Vec3 {
	return dynamo.TransformPoint(g.LocalToWorld(id), p)
}

func (g *Graph) InverseTransformPoint(id dynamo.NodeID, p mgl64.Vec3) mgl64.Vec3 {
	return dynamo.TransformPoint(g.WorldToLocal(id), p)
}

func (g *Graph) WorldPosition(id dynamo.NodeID) mgl64.Vec3 {
	parent := g.nodes[id].parent
	if parent == dynamo.NoNode {
		return g.nodes[id].position
	}
	return g.TransformPoint(parent, g.nodes[id].position)
}

// SetWorldPosition moves the node so that its origin lands on p.
func (g *Graph) SetWorldPosition(id dynamo.NodeID, p mgl64.Vec3) {
	parent := g.nodes[id].parent
	if parent == dynamo.NoNode {
		g.nodes[id].position = p
		return
	}
	g.nodes[id].position = g.InverseTransformPoint(parent, p)
}

func (g *Graph) WorldRotation(id dynamo.NodeID) mgl64.Quat {
	q := g.nodes[id].rotation
	for p := g.nodes[id].parent; p != dynamo.NoNode; p = g.nodes[p].parent {
		q = g.nodes[p].rotation.Mul(q)
	}
	return q
}

func (g *Graph) SetWorldRotation(id dynamo.NodeID, q mgl64.Quat) {
	parent := g.nodes[id].parent
	if parent == dynamo.NoNode {
		g.nodes[id].rotation = q.Normalize()
		return
	}
	g.nodes[id].rotation = g.WorldRotation(parent).Inverse().Mul(q).Normalize()
}
