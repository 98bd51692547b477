package metrics

import (
	"github.com/san-kum/cherrycore/internal/particle"
	"github.com/san-kum/cherrycore/internal/sim"
)

// SteeringCoverage is the mean fraction of particles steered over the
// frames in which steering ran.
type SteeringCoverage struct {
	name    string
	sum     float64
	samples int
}

func NewSteeringCoverage() *SteeringCoverage {
	return &SteeringCoverage{name: "steering_coverage"}
}

func (c *SteeringCoverage) Name() string {
	return c.name
}

func (c *SteeringCoverage) Observe(stats sim.FrameStats, ps []particle.Particle) {
	if stats.Steering != sim.SteeringRan || len(ps) == 0 {
		return
	}
	c.sum += float64(stats.Steered) / float64(len(ps))
	c.samples++
}

func (c *SteeringCoverage) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *SteeringCoverage) Reset() {
	c.sum = 0
	c.samples = 0
}

// Contacts is the mean number of overlapping pairs per frame.
type Contacts struct {
	name    string
	sum     int
	samples int
}

func NewContacts() *Contacts {
	return &Contacts{name: "contacts"}
}

func (c *Contacts) Name() string { return c.name }

func (c *Contacts) Observe(stats sim.FrameStats, ps []particle.Particle) {
	c.sum += stats.Contacts
	c.samples++
}

func (c *Contacts) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.sum) / float64(c.samples)
}

func (c *Contacts) Reset() {
	c.sum = 0
	c.samples = 0
}

// Standard returns the metrics the CLI attaches to every run.
func Standard(speedThreshold float64) []sim.Metric {
	return []sim.Metric{
		NewEnergy(),
		NewMomentumDrift(),
		NewStability(speedThreshold),
		NewSteeringCoverage(),
		NewContacts(),
	}
}
