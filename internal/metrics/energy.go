package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/cherrycore/internal/particle"
	"github.com/san-kum/cherrycore/internal/sim"
)

// Energy is the mean total kinetic energy per frame.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
	buf         []float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(stats sim.FrameStats, ps []particle.Particle) {
	e.buf = speeds(e.buf, ps)
	e.totalEnergy += 0.5 * floats.Dot(e.buf, e.buf)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// MomentumDrift is the largest net momentum magnitude seen. Repulsion
// alone conserves momentum, so without steering it stays at rounding level.
type MomentumDrift struct {
	name     string
	maxDrift float64
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(stats sim.FrameStats, ps []particle.Particle) {
	m.maxDrift = math.Max(m.maxDrift, stats.Momentum)
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() { m.maxDrift = 0 }

func speeds(buf []float64, ps []particle.Particle) []float64 {
	buf = buf[:0]
	for i := range ps {
		buf = append(buf, float64(ps[i].Speed()))
	}
	return buf
}
