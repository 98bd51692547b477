package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/cherrycore/internal/particle"
	"github.com/san-kum/cherrycore/internal/sim"
)

// Stability is the fraction of frames in which no particle moved faster
// than threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
	buf        []float64
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(stats sim.FrameStats, ps []particle.Particle) {
	s.samples++
	s.buf = speeds(s.buf, ps)
	if len(s.buf) > 0 && floats.Max(s.buf) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
