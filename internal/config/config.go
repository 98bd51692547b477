package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/cherrycore/internal/sim"
)

const (
	DefaultParticles = 256
	DefaultRadius    = 0.04
	DefaultDt        = 0.016
	DefaultFrames    = 600

	// MaxDt bounds the frame length the host feeds to Update.
	MaxDt = 0.05
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Particles int     `yaml:"particles" toml:"particles"`
	Radius    float64 `yaml:"radius" toml:"radius"`
	Seed      int64   `yaml:"seed" toml:"seed"`
	Dt        float64 `yaml:"dt" toml:"dt"`
	Frames    int     `yaml:"frames" toml:"frames"`

	// Margin of periodic images for the Delaunay provider, as a fraction
	// of the box. 0 picks it from the particle count.
	Margin float64 `yaml:"margin" toml:"margin"`

	Physics  PhysicsConfig  `yaml:"physics" toml:"physics"`
	Steering SteeringConfig `yaml:"steering" toml:"steering"`
}

type PhysicsConfig struct {
	Repulsion float64 `yaml:"repulsion" toml:"repulsion"`
	Damping   float64 `yaml:"damping" toml:"damping"`
	MinSpeed  float64 `yaml:"min_speed" toml:"min_speed"`
	MaxSpeed  float64 `yaml:"max_speed" toml:"max_speed"`
}

type SteeringConfig struct {
	Strength      float64 `yaml:"strength" toml:"strength"`
	EveryNFrames  int     `yaml:"every_n_frames" toml:"every_n_frames"`
	SegmentLength float64 `yaml:"segment_length" toml:"segment_length"`
}

func DefaultConfig() *Config {
	p := sim.DefaultParams()
	return &Config{
		Particles: DefaultParticles,
		Radius:    DefaultRadius,
		Dt:        DefaultDt,
		Frames:    DefaultFrames,
		Physics: PhysicsConfig{
			Repulsion: float64(p.RepulsionStrength),
			Damping:   float64(p.Damping),
		},
		Steering: SteeringConfig{
			Strength:      float64(p.SteeringStrength),
			EveryNFrames:  p.SteeringEveryNFrames,
			SegmentLength: float64(p.AxisSegmentLength),
		},
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file on top of the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalid, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.Particles < 0:
		return fmt.Errorf("%w: particles must be >= 0, got %d", ErrInvalid, c.Particles)
	case c.Radius <= 0:
		return fmt.Errorf("%w: radius must be > 0, got %g", ErrInvalid, c.Radius)
	case c.Dt <= 0 || c.Dt > MaxDt:
		return fmt.Errorf("%w: dt must be in (0, %g], got %g", ErrInvalid, MaxDt, c.Dt)
	case c.Frames < 0:
		return fmt.Errorf("%w: frames must be >= 0, got %d", ErrInvalid, c.Frames)
	case c.Margin < 0 || c.Margin > 0.5:
		return fmt.Errorf("%w: margin must be in [0, 0.5], got %g", ErrInvalid, c.Margin)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Params converts the tunables to simulation parameters.
func (c *Config) Params() sim.Params {
	return sim.Params{
		RepulsionStrength:    float32(c.Physics.Repulsion),
		Damping:              float32(c.Physics.Damping),
		SteeringStrength:     float32(c.Steering.Strength),
		SteeringEveryNFrames: c.Steering.EveryNFrames,
		MinSpeed:             float32(c.Physics.MinSpeed),
		MaxSpeed:             float32(c.Physics.MaxSpeed),
		AxisSegmentLength:    float32(c.Steering.SegmentLength),
	}
}

// Set assigns a numeric field by its YAML key. Nested keys may be given
// without their section, so "repulsion" and "physics.repulsion" are the
// same field. Integral fields truncate v.
func (c *Config) Set(key string, v float64) error {
	switch strings.TrimPrefix(strings.TrimPrefix(key, "physics."), "steering.") {
	case "particles":
		c.Particles = int(v)
	case "radius":
		c.Radius = v
	case "seed":
		c.Seed = int64(v)
	case "dt":
		c.Dt = v
	case "frames":
		c.Frames = int(v)
	case "margin":
		c.Margin = v
	case "repulsion":
		c.Physics.Repulsion = v
	case "damping":
		c.Physics.Damping = v
	case "min_speed":
		c.Physics.MinSpeed = v
	case "max_speed":
		c.Physics.MaxSpeed = v
	case "strength":
		c.Steering.Strength = v
	case "every_n_frames":
		c.Steering.EveryNFrames = int(v)
	case "segment_length":
		c.Steering.SegmentLength = v
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalid, key)
	}
	return nil
}
