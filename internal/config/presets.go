package config

import (
	"sort"
	"strconv"
)

// Presets build fresh rigs, so callers may modify what GetPreset returns.
var Presets = map[string]func() *Config{
	"pendulum": pendulum,
	"ponytail": ponytail,
	"skirt":    skirt,
	"tail":     tail,
	"collider": collider,
}

// pendulum is one bone hanging forward off a fixed pivot, pulled down by
// gravity.
func pendulum() *Config {
	cfg := DefaultConfig()
	cfg.Name = "pendulum"
	cfg.Nodes = []NodeConfig{
		node("pivot", "", Vec3{0, 1, 0}),
		node("arm", "pivot", Vec3{}),
		node("bob", "arm", Vec3{0, 0, -1}),
	}
	sb := DefaultSpringBone()
	sb.Comment = "pendulum"
	sb.GravityPower = 1
	sb.Drag = 0.1
	sb.Bones = []string{"arm"}
	cfg.SpringBones = []SpringBoneConfig{sb}
	return cfg
}

// ponytail hangs a five-segment strand from the back of a swaying head.
func ponytail() *Config {
	cfg := DefaultConfig()
	cfg.Name = "ponytail"
	cfg.Duration = 8
	cfg.Nodes = []NodeConfig{
		node("hips", "", Vec3{0, 1, 0}),
		node("head", "hips", Vec3{0, 0.6, 0}),
	}
	cfg.Nodes = append(cfg.Nodes, strand("hair", "head", 5, Vec3{0, -0.08, 0.02}, Vec3{0, 0.05, 0.1})...)
	cfg.Colliders = []ColliderGroupConfig{{
		Name: "head",
		Node: "head",
		Colliders: []ColliderConfig{
			{Offset: Vec3{0, 0, 0}, Radius: 0.1},
			{Offset: Vec3{0, -0.15, 0.02}, Radius: 0.08},
		},
	}}
	sb := DefaultSpringBone()
	sb.Comment = "ponytail"
	sb.Stiffness = 0.8
	sb.GravityPower = 0.5
	sb.Drag = 0.3
	sb.Bones = []string{"hair0"}
	sb.ColliderGroups = []string{"head"}
	cfg.SpringBones = []SpringBoneConfig{sb}
	cfg.Motion = &MotionConfig{Node: "head", Kind: "rotate", Axis: Vec3{0, 1, 0}, Amplitude: 30, Frequency: 0.8}
	return cfg
}

// skirt rings eight short strands around the hips, each its own chain, with
// the thighs as colliders.
func skirt() *Config {
	cfg := DefaultConfig()
	cfg.Name = "skirt"
	cfg.Parallel = true
	cfg.Nodes = []NodeConfig{
		node("hips", "", Vec3{0, 1, 0}),
		node("thigh_l", "hips", Vec3{0.1, -0.15, 0}),
		node("thigh_r", "hips", Vec3{-0.1, -0.15, 0}),
	}
	cfg.Colliders = []ColliderGroupConfig{
		{Name: "legs", Node: "hips", Colliders: []ColliderConfig{
			{Offset: Vec3{0.1, -0.2, 0}, Radius: 0.08},
			{Offset: Vec3{-0.1, -0.2, 0}, Radius: 0.08},
		}},
	}

	offsets := []Vec3{
		{0, 0, 0.15}, {0.106, 0, 0.106}, {0.15, 0, 0}, {0.106, 0, -0.106},
		{0, 0, -0.15}, {-0.106, 0, -0.106}, {-0.15, 0, 0}, {-0.106, 0, 0.106},
	}
	for i, o := range offsets {
		prefix := "skirt" + strconv.Itoa(i) + "_"
		step := Vec3{o[0] * 0.3, -0.12, o[2] * 0.3}
		cfg.Nodes = append(cfg.Nodes, strand(prefix, "hips", 3, o, step)...)

		sb := DefaultSpringBone()
		sb.Comment = prefix[:len(prefix)-1]
		sb.Stiffness = 1.5
		sb.GravityPower = 0.3
		sb.Drag = 0.5
		sb.Bones = []string{prefix + "0"}
		sb.ColliderGroups = []string{"legs"}
		cfg.SpringBones = append(cfg.SpringBones, sb)
	}
	cfg.Motion = &MotionConfig{Node: "hips", Kind: "translate", Axis: Vec3{1, 0, 0}, Amplitude: 0.1, Frequency: 1.5}
	return cfg
}

// tail sticks out behind the hips and is simulated in the hips' space, so
// walking the hips forward does not drag it.
func tail() *Config {
	cfg := DefaultConfig()
	cfg.Name = "tail"
	cfg.Nodes = []NodeConfig{
		node("root", "", Vec3{}),
		node("hips", "root", Vec3{0, 0.8, 0}),
	}
	cfg.Nodes = append(cfg.Nodes, strand("tail", "hips", 6, Vec3{0, 0, -0.1}, Vec3{0, -0.02, -0.12})...)
	sb := DefaultSpringBone()
	sb.Comment = "tail"
	sb.Stiffness = 2
	sb.GravityPower = 0.2
	sb.Center = "hips"
	sb.Bones = []string{"tail0"}
	cfg.SpringBones = []SpringBoneConfig{sb}
	cfg.Motion = &MotionConfig{Node: "hips", Kind: "rotate", Axis: Vec3{0, 0, 1}, Amplitude: 20, Frequency: 1.2}
	return cfg
}

// collider drops a single bone onto a sphere sitting just below its tail.
func collider() *Config {
	cfg := DefaultConfig()
	cfg.Name = "collider"
	cfg.Nodes = []NodeConfig{
		node("pivot", "", Vec3{0, 1, 0}),
		node("arm", "pivot", Vec3{}),
		node("bob", "arm", Vec3{0, 0, -1}),
		node("ball", "", Vec3{0, 0.85, -1}),
	}
	cfg.Colliders = []ColliderGroupConfig{{
		Name:      "ball",
		Node:      "ball",
		Colliders: []ColliderConfig{{Radius: 0.15}},
	}}
	sb := DefaultSpringBone()
	sb.Comment = "collider"
	sb.GravityPower = 1
	sb.Bones = []string{"arm"}
	sb.ColliderGroups = []string{"ball"}
	cfg.SpringBones = []SpringBoneConfig{sb}
	return cfg
}

func node(name, parent string, pos Vec3) NodeConfig {
	return NodeConfig{Name: name, Parent: parent, Position: pos, Scale: Vec3{1, 1, 1}}
}

// strand appends n nodes named prefix0..prefix{n-1}, the first at first
// under parent and each next one at step under the previous.
func strand(prefix, parent string, n int, first, step Vec3) []NodeConfig {
	out := make([]NodeConfig, n)
	for i := range out {
		pos := step
		if i == 0 {
			pos = first
		}
		out[i] = node(prefix+strconv.Itoa(i), parent, pos)
		parent = out[i].Name
	}
	return out
}

// GetPreset returns a new copy of the named rig, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
