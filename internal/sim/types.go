package sim

import (
	"math"

	"github.com/san-kum/cherrycore/internal/particle"
)

// Params are the tunables of a simulation. Changes take effect on the next
// Update.
type Params struct {
	RepulsionStrength    float32 `json:"repulsion_strength"`
	Damping              float32 `json:"damping"`
	SteeringStrength     float32 `json:"steering_strength"`
	SteeringEveryNFrames int     `json:"steering_every_n_frames"`
	MinSpeed             float32 `json:"min_speed"`
	MaxSpeed             float32 `json:"max_speed"`
	AxisSegmentLength    float32 `json:"axis_segment_length"`
}

func DefaultParams() Params {
	return Params{
		RepulsionStrength:    1.0,
		Damping:              0.98,
		SteeringStrength:     0.2,
		SteeringEveryNFrames: 5,
		AxisSegmentLength:    0.05,
	}
}

// Validate returns a *ParamError for the first field out of range.
func (p Params) Validate() error {
	check := func(field string, v float32, ok bool, rule string) error {
		if ok && !math.IsNaN(float64(v)) {
			return nil
		}
		return &ParamError{Field: field, Value: float64(v), Rule: rule}
	}

	for _, err := range []error{
		check("repulsion_strength", p.RepulsionStrength, p.RepulsionStrength >= 0, ">= 0"),
		check("damping", p.Damping, p.Damping > 0 && p.Damping <= 1, "in (0, 1]"),
		check("steering_strength", p.SteeringStrength, p.SteeringStrength >= 0, ">= 0"),
		check("min_speed", p.MinSpeed, p.MinSpeed >= 0, ">= 0"),
		check("max_speed", p.MaxSpeed, p.MaxSpeed >= 0, ">= 0"),
		check("axis_segment_length", p.AxisSegmentLength, p.AxisSegmentLength >= 0, ">= 0"),
	} {
		if err != nil {
			return err
		}
	}
	if p.SteeringEveryNFrames < 1 {
		return &ParamError{Field: "steering_every_n_frames", Value: float64(p.SteeringEveryNFrames), Rule: ">= 1"}
	}
	if p.MinSpeed > 0 && p.MaxSpeed > 0 && p.MinSpeed > p.MaxSpeed {
		return &ParamError{Field: "min_speed", Value: float64(p.MinSpeed), Rule: "<= max_speed"}
	}
	return nil
}

// SteeringStatus records what the steering pass did in a frame.
type SteeringStatus string

const (
	SteeringSkipped SteeringStatus = "skipped" // throttled or disabled
	SteeringRan     SteeringStatus = "ran"
	SteeringFailed  SteeringStatus = "failed" // provider error, retried next scheduled frame
	SteeringIdle    SteeringStatus = "idle"   // fewer than 4 particles
)

// FrameStats describes one completed Update.
type FrameStats struct {
	Frame      int            `json:"frame"`
	Time       float64        `json:"time"`
	Dt         float32        `json:"dt"`
	Contacts   int            `json:"contacts"`
	Steering   SteeringStatus `json:"steering"`
	Tetrahedra int            `json:"tetrahedra"`
	Steered    int            `json:"steered"`
	Fallbacks  int            `json:"fallbacks"`

	KineticEnergy float64 `json:"kinetic_energy"`
	Momentum      float64 `json:"momentum"`
	MeanSpeed     float64 `json:"mean_speed"`
}

// Observer is notified after every completed Update. ps must not be
// modified or retained.
type Observer interface {
	OnFrame(stats FrameStats, ps []particle.Particle)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(stats FrameStats, ps []particle.Particle)

func (f ObserverFunc) OnFrame(stats FrameStats, ps []particle.Particle) { f(stats, ps) }

// Metric accumulates a scalar over the frames of a run.
type Metric interface {
	Name() string
	Observe(stats FrameStats, ps []particle.Particle)
	Value() float64
	Reset()
}

// Summary is returned by Run.
type Summary struct {
	Frames           int                `json:"frames"`
	Time             float64            `json:"time"`
	SteeringRuns     int                `json:"steering_runs"`
	SteeringFailures int                `json:"steering_failures"`
	Last             FrameStats         `json:"last"`
	Metrics          map[string]float64 `json:"metrics"`
}
