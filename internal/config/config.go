package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/springsim/internal/dynamo"
	"github.com/san-kum/springsim/internal/springbone"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 1.0 / 60
	DefaultDuration = 5.0
)

// Vec3 is written as a flow sequence: [x, y, z].
type Vec3 [3]float64

// Config describes a scene graph, the spring bone chains simulated on it and
// an optional motion that excites them.
type Config struct {
	Name          string                `yaml:"name"`
	Dt            float64               `yaml:"dt"`
	Duration      float64               `yaml:"duration"`
	LeafExtension float64               `yaml:"leaf_extension"`
	Strict        bool                  `yaml:"strict"`
	Parallel      bool                  `yaml:"parallel"`
	Nodes         []NodeConfig          `yaml:"nodes"`
	SpringBones   []SpringBoneConfig    `yaml:"spring_bones"`
	Colliders     []ColliderGroupConfig `yaml:"collider_groups"`
	Motion        *MotionConfig         `yaml:"motion,omitempty"`
}

// NodeConfig places a node relative to its parent. Rotation is euler
// degrees applied Y, then X, then Z.
type NodeConfig struct {
	Name     string `yaml:"name"`
	Parent   string `yaml:"parent,omitempty"`
	Position Vec3   `yaml:"position,flow"`
	Rotation Vec3   `yaml:"rotation,flow"`
	Scale    Vec3   `yaml:"scale,flow"`
}

type SpringBoneConfig struct {
	Comment        string   `yaml:"comment"`
	Stiffness      float64  `yaml:"stiffness"`
	GravityPower   float64  `yaml:"gravity_power"`
	GravityDir     Vec3     `yaml:"gravity_dir,flow"`
	Drag           float64  `yaml:"drag"`
	HitRadius      float64  `yaml:"hit_radius"`
	Center         string   `yaml:"center,omitempty"`
	Bones          []string `yaml:"bones,flow"`
	ColliderGroups []string `yaml:"collider_groups,flow,omitempty"`
}

type ColliderGroupConfig struct {
	Name      string           `yaml:"name"`
	Node      string           `yaml:"node"`
	Colliders []ColliderConfig `yaml:"colliders"`
}

type ColliderConfig struct {
	Offset Vec3    `yaml:"offset,flow"`
	Radius float64 `yaml:"radius"`
}

// MotionConfig sways a node sinusoidally. Kind "translate" moves it along
// Axis by Amplitude; "rotate" turns it about Axis by Amplitude degrees.
type MotionConfig struct {
	Node      string  `yaml:"node"`
	Kind      string  `yaml:"kind"`
	Axis      Vec3    `yaml:"axis,flow"`
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:          "rig",
		Dt:            DefaultDt,
		Duration:      DefaultDuration,
		LeafExtension: springbone.DefaultLeafExtension,
	}
}

// DefaultSpringBone returns a chain entry with the solver's defaults.
func DefaultSpringBone() SpringBoneConfig {
	return SpringBoneConfig{
		Stiffness:    springbone.DefaultStiffness,
		GravityPower: springbone.DefaultGravityPower,
		GravityDir:   Vec3(springbone.DefaultGravityDir),
		Drag:         springbone.DefaultDrag,
		HitRadius:    springbone.DefaultHitRadius,
	}
}

// UnmarshalYAML fills fields missing from the document with defaults.
func (s *SpringBoneConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain SpringBoneConfig
	p := plain(DefaultSpringBone())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = SpringBoneConfig(p)
	return nil
}

func (n *NodeConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain NodeConfig
	p := plain{Scale: Vec3{1, 1, 1}}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = NodeConfig(p)
	return nil
}

func (m *MotionConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain MotionConfig
	p := plain{Kind: "translate", Axis: Vec3{1, 0, 0}, Frequency: 1}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*m = MotionConfig(p)
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem found, joined. Each one wraps
// dynamo.ErrInvalidConfig, and references to missing nodes or collider
// groups also wrap dynamo.ErrUnknownNode.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format+": %w", append(args, dynamo.ErrInvalidConfig)...))
	}
	unknown := func(what, name string) {
		errs = append(errs, fmt.Errorf("%s %q: %w: %w", what, name, dynamo.ErrUnknownNode, dynamo.ErrInvalidConfig))
	}

	if c.Dt <= 0 {
		bad("dt must be positive, got %g", c.Dt)
	}
	if c.Duration <= 0 {
		bad("duration must be positive, got %g", c.Duration)
	}
	if c.LeafExtension < 0 {
		bad("leaf_extension must not be negative, got %g", c.LeafExtension)
	}

	nodes := make(map[string]bool, len(c.Nodes))
	for i, n := range c.Nodes {
		switch {
		case n.Name == "":
			bad("node %d has no name", i)
		case nodes[n.Name]:
			bad("duplicate node %q", n.Name)
		}
		if n.Parent != "" && !nodes[n.Parent] {
			unknown("parent of "+n.Name, n.Parent)
		}
		nodes[n.Name] = true
	}

	groups := make(map[string]bool, len(c.Colliders))
	for _, g := range c.Colliders {
		if groups[g.Name] {
			bad("duplicate collider group %q", g.Name)
		}
		if !nodes[g.Node] {
			unknown("collider group "+g.Name+" node", g.Node)
		}
		for _, col := range g.Colliders {
			if col.Radius < 0 {
				bad("collider group %q has negative radius %g", g.Name, col.Radius)
			}
		}
		groups[g.Name] = true
	}

	for i, s := range c.SpringBones {
		label := s.Comment
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		if len(s.Bones) == 0 {
			bad("spring bone %s has no bones", label)
		}
		for _, b := range s.Bones {
			if !nodes[b] {
				unknown("bone", b)
			}
		}
		if s.Center != "" && !nodes[s.Center] {
			unknown("center", s.Center)
		}
		for _, g := range s.ColliderGroups {
			if !groups[g] {
				unknown("collider group", g)
			}
		}
		if s.Drag < 0 || s.Drag > 1 {
			bad("spring bone %s drag must be in [0,1], got %g", label, s.Drag)
		}
		if s.HitRadius < 0 {
			bad("spring bone %s hit_radius must not be negative, got %g", label, s.HitRadius)
		}
	}

	if m := c.Motion; m != nil {
		if !nodes[m.Node] {
			unknown("motion node", m.Node)
		}
		if m.Kind != "translate" && m.Kind != "rotate" {
			bad("motion kind must be translate or rotate, got %q", m.Kind)
		}
	}

	return errors.Join(errs...)
}
