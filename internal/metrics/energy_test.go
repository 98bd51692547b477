package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/cherrycore/internal/particle"
	"github.com/san-kum/cherrycore/internal/sim"
)

func movers(vs ...[3]float32) []particle.Particle {
	ps := make([]particle.Particle, len(vs))
	for i, v := range vs {
		ps[i] = particle.Particle{Vel: v, Radius: 0.01, ID: i}
	}
	return ps
}

func TestEnergy(t *testing.T) {
	m := NewEnergy()
	ps := movers([3]float32{3, 4, 0}, [3]float32{0, 0, 1})

	m.Observe(sim.FrameStats{}, ps)
	expected := 0.5*25 + 0.5*1
	if math.Abs(m.Value()-expected) > 1e-6 {
		t.Errorf("expected energy %f, got %f", expected, m.Value())
	}

	m.Observe(sim.FrameStats{}, movers([3]float32{}, [3]float32{}))
	if math.Abs(m.Value()-expected/2) > 1e-6 {
		t.Errorf("expected mean energy %f, got %f", expected/2, m.Value())
	}
}

func TestEnergyReset(t *testing.T) {
	m := NewEnergy()
	m.Observe(sim.FrameStats{}, movers([3]float32{1, 1, 1}))
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestMomentumDrift(t *testing.T) {
	m := NewMomentumDrift()
	for _, p := range []float64{0.1, 0.5, 0.2} {
		m.Observe(sim.FrameStats{Momentum: p}, nil)
	}
	if m.Value() != 0.5 {
		t.Errorf("expected max drift 0.5, got %f", m.Value())
	}
}

func TestStability(t *testing.T) {
	m := NewStability(1.0)
	if m.Value() != 1.0 {
		t.Errorf("expected 1.0 with no samples, got %f", m.Value())
	}

	m.Observe(sim.FrameStats{}, movers([3]float32{0.5, 0, 0}))
	m.Observe(sim.FrameStats{}, movers([3]float32{0, 2, 0}, [3]float32{0.1, 0, 0}))
	if m.Value() != 0.5 {
		t.Errorf("expected stability 0.5, got %f", m.Value())
	}

	m.Observe(sim.FrameStats{}, nil)
	if math.Abs(m.Value()-2.0/3) > 1e-12 {
		t.Errorf("expected stability 2/3, got %f", m.Value())
	}
}

func TestSteeringCoverage(t *testing.T) {
	m := NewSteeringCoverage()
	ps := movers([3]float32{}, [3]float32{}, [3]float32{}, [3]float32{})

	m.Observe(sim.FrameStats{Steering: sim.SteeringRan, Steered: 4}, ps)
	m.Observe(sim.FrameStats{Steering: sim.SteeringSkipped}, ps)
	m.Observe(sim.FrameStats{Steering: sim.SteeringFailed}, ps)
	m.Observe(sim.FrameStats{Steering: sim.SteeringRan, Steered: 2}, ps)

	if m.Value() != 0.75 {
		t.Errorf("expected coverage 0.75, got %f", m.Value())
	}
}

func TestContacts(t *testing.T) {
	m := NewContacts()
	m.Observe(sim.FrameStats{Contacts: 3}, nil)
	m.Observe(sim.FrameStats{Contacts: 0}, nil)
	if m.Value() != 1.5 {
		t.Errorf("expected 1.5 contacts, got %f", m.Value())
	}
}

func TestStandardNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Standard(1) {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 metrics, got %d", len(seen))
	}
}

func TestMetricsOnSimulation(t *testing.T) {
	s, err := sim.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range Standard(10) {
		s.AddMetric(m)
	}
	s.Initialize(20, 0.1, 4)
	for i := 0; i < 5; i++ {
		s.Update(0.016)
	}

	got := s.Metrics()
	if got["stability"] != 1.0 {
		t.Errorf("expected full stability, got %f", got["stability"])
	}
	if got["momentum_drift"] > 1e-5 {
		t.Errorf("expected momentum conserved, got %g", got["momentum_drift"])
	}
	if got["steering_coverage"] != 0 {
		t.Errorf("expected no steering without provider, got %f", got["steering_coverage"])
	}
}
