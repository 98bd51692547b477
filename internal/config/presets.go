package config

import "sort"

var Presets = map[string]*Config{
	"baseline": {
		Particles: 256, Radius: 0.04, Dt: 0.016, Frames: 600,
		Physics:  PhysicsConfig{Repulsion: 1.0, Damping: 0.98},
		Steering: SteeringConfig{Strength: 0, EveryNFrames: 1, SegmentLength: 0.05},
	},
	"dilute": {
		Particles: 128, Radius: 0.03, Dt: 0.016, Frames: 600,
		Physics:  PhysicsConfig{Repulsion: 1.0, Damping: 0.98},
		Steering: SteeringConfig{Strength: 0.2, EveryNFrames: 5, SegmentLength: 0.06},
	},
	"dense": {
		Particles: 512, Radius: 0.05, Dt: 0.016, Frames: 600,
		Physics:  PhysicsConfig{Repulsion: 4.0, Damping: 0.95},
		Steering: SteeringConfig{Strength: 0.2, EveryNFrames: 10, SegmentLength: 0.04},
	},
	"jammed": {
		Particles: 1000, Radius: 0.07, Dt: 0.01, Frames: 400,
		Physics:  PhysicsConfig{Repulsion: 10.0, Damping: 0.9, MaxSpeed: 0.5},
		Steering: SteeringConfig{Strength: 0.1, EveryNFrames: 20, SegmentLength: 0.03},
	},
	"cruise": {
		Particles: 256, Radius: 0.04, Dt: 0.016, Frames: 1200,
		Physics:  PhysicsConfig{Repulsion: 2.0, Damping: 0.99, MinSpeed: 0.02, MaxSpeed: 0.2},
		Steering: SteeringConfig{Strength: 0.5, EveryNFrames: 3, SegmentLength: 0.08},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
