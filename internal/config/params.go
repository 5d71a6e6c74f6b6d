package config

import (
	"fmt"
	"sort"
)

var chainParams = map[string]func(s *SpringBoneConfig, v float64){
	"stiffness":     func(s *SpringBoneConfig, v float64) { s.Stiffness = v },
	"drag":          func(s *SpringBoneConfig, v float64) { s.Drag = v },
	"gravity_power": func(s *SpringBoneConfig, v float64) { s.GravityPower = v },
	"hit_radius":    func(s *SpringBoneConfig, v float64) { s.HitRadius = v },
}

// ChainParams lists the names accepted by SetChainParam.
func ChainParams() []string {
	names := make([]string, 0, len(chainParams))
	for name := range chainParams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetChainParam sets one tunable parameter on every spring bone group.
func (c *Config) SetChainParam(name string, v float64) error {
	set, ok := chainParams[name]
	if !ok {
		return fmt.Errorf("unknown chain parameter: %s (available: %v)", name, ChainParams())
	}
	for i := range c.SpringBones {
		set(&c.SpringBones[i], v)
	}
	return nil
}
