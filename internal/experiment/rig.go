package experiment

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-logr/logr"
	"github.com/san-kum/springsim/internal/config"
	"github.com/san-kum/springsim/internal/dynamo"
	"github.com/san-kum/springsim/internal/scene"
	"github.com/san-kum/springsim/internal/springbone"
)

// Rig is a scene graph with the chains and motion configured on it.
type Rig struct {
	Graph  *scene.Graph
	Chains []*springbone.Chain
	Motion *Sway
}

// Build validates cfg and instantiates it. Chains are not set up yet; the
// simulator does that on its first run.
func Build(cfg *config.Config, log logr.Logger) (*Rig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := scene.New()
	for _, n := range cfg.Nodes {
		parent := dynamo.NoNode
		if n.Parent != "" {
			parent, _ = g.Lookup(n.Parent)
		}
		if _, err := g.AddEuler(n.Name, parent, mgl64.Vec3(n.Position), mgl64.Vec3(n.Rotation), mgl64.Vec3(n.Scale)); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
	}

	groups := make(map[string]springbone.ColliderGroup, len(cfg.Colliders))
	for _, gc := range cfg.Colliders {
		id, _ := g.Lookup(gc.Node)
		group := springbone.ColliderGroup{Name: gc.Name, Node: id}
		for _, c := range gc.Colliders {
			group.Colliders = append(group.Colliders, springbone.SphereCollider{
				Offset: mgl64.Vec3(c.Offset),
				Radius: c.Radius,
			})
		}
		groups[gc.Name] = group
	}

	rig := &Rig{Graph: g}
	for _, sc := range cfg.SpringBones {
		c := springbone.NewChain(g)
		c.Comment = sc.Comment
		c.StiffnessForce = sc.Stiffness
		c.GravityPower = sc.GravityPower
		c.GravityDir = mgl64.Vec3(sc.GravityDir)
		c.DragForce = sc.Drag
		c.HitRadius = sc.HitRadius
		c.LeafExtension = cfg.LeafExtension
		c.Strict = cfg.Strict
		c.Logger = log.WithValues("chain", sc.Comment)

		if sc.Center != "" {
			c.Center, _ = g.Lookup(sc.Center)
		}
		for _, b := range sc.Bones {
			id, _ := g.Lookup(b)
			c.RootBones = append(c.RootBones, id)
		}
		for _, name := range sc.ColliderGroups {
			c.ColliderGroups = append(c.ColliderGroups, groups[name])
		}
		rig.Chains = append(rig.Chains, c)
	}

	if m := cfg.Motion; m != nil {
		id, _ := g.Lookup(m.Node)
		rig.Motion = NewSway(g, id, m.Kind == "rotate", mgl64.Vec3(m.Axis), m.Amplitude, m.Frequency)
	}

	return rig, nil
}

// Setup sets up every chain. Skipped bones are logged by the chains and
// returned joined; in strict rigs the first invalid bone is returned.
func (r *Rig) Setup() error {
	var errs []error
	for _, c := range r.Chains {
		if err := c.Setup(false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BoneCount is the number of simulated bones across all chains.
func (r *Rig) BoneCount() int {
	n := 0
	for _, c := range r.Chains {
		n += len(c.Bones())
	}
	return n
}
