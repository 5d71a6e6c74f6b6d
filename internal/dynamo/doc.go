// Package dynamo provides core primitives for spring-bone simulation.
//
// The package defines the contracts shared by the scene graph, the solver
// and the tooling around it:
//
//   - [NodeID]: stable index of a node in a host scene graph
//   - [Hierarchy]: read/write access to node poses and the parent/child links
//   - [Sphere]: a world-space collision sphere
//   - [Frame]: per-tick snapshot of every simulated bone
//   - [Metric] and [Observer]: hooks consumed by the run loop
//
// It also carries the rotation helpers whose exact convention matters to the
// solver: [EulerQuat] and [EulerMatrix] compose Y, then X, then Z in degrees,
// and [FromToRotation] builds the shortest-arc quaternion between two
// directions with an explicit fallback axis for the antiparallel case.
//
// # Example
//
//	g := scene.New()
//	root := g.Add("hair", dynamo.NoNode, mgl64.Vec3{0, 1.5, 0}, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1})
//	chain := springbone.NewChain(g)
//	chain.RootBones = []dynamo.NodeID{root}
//	chain.Update(1.0 / 60)
//
// # Thread Safety
//
// Hierarchy implementations are not required to lock. Chains with disjoint
// node sets may be advanced concurrently with [ParallelFor] as long as the
// nodes they read but do not own (parents of roots, collider owners) are not
// written during the pass.
package dynamo
