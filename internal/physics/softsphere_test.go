package physics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/cherrycore/internal/particle"
)

func pair(a, b [3]float32, r float32) []particle.Particle {
	return []particle.Particle{
		{Pos: a, Radius: r, ID: 0},
		{Pos: b, Radius: r, ID: 1},
	}
}

func TestPairImpulse(t *testing.T) {
	tests := []struct {
		name string
		a, b [3]float32
		ok   bool
	}{
		{"overlap", [3]float32{0.5, 0.5, 0.5}, [3]float32{0.55, 0.5, 0.5}, true},
		{"separated", [3]float32{0.1, 0.1, 0.1}, [3]float32{0.5, 0.5, 0.5}, false},
		{"coincident", [3]float32{0.3, 0.3, 0.3}, [3]float32{0.3, 0.3, 0.3}, false},
		{"across boundary", [3]float32{0.01, 0.5, 0.5}, [3]float32{0.98, 0.5, 0.5}, true},
		{"just apart", [3]float32{0.2, 0.5, 0.5}, [3]float32{0.45, 0.5, 0.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := pair(tt.a, tt.b, 0.1)
			_, ok := PairImpulse(&ps[0], &ps[1], 1, 0.016)
			if ok != tt.ok {
				t.Errorf("expected ok=%v, got %v", tt.ok, ok)
			}
		})
	}
}

func TestPairImpulseDirection(t *testing.T) {
	ps := pair([3]float32{0.01, 0.5, 0.5}, [3]float32{0.98, 0.5, 0.5}, 0.1)
	dv, ok := PairImpulse(&ps[0], &ps[1], 1, 0.016)
	if !ok {
		t.Fatal("expected contact across periodic boundary")
	}
	// b sits just below a through the x boundary, so it is pushed towards -x.
	if dv[0] >= 0 {
		t.Errorf("expected negative x impulse on b, got %v", dv)
	}
	if dv[1] != 0 || dv[2] != 0 {
		t.Errorf("expected impulse along x only, got %v", dv)
	}
}

func TestRepelConservesMomentumPerPair(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for k := 0; k < 1000; k++ {
		a := [3]float32{rng.Float32(), rng.Float32(), rng.Float32()}
		b := a
		b[0] += rng.Float32()*0.1 - 0.05
		b[1] += rng.Float32()*0.1 - 0.05
		ps := pair(a, b, 0.05)
		ps[0].Vel = [3]float32{rng.Float32(), rng.Float32(), rng.Float32()}
		ps[1].Vel = [3]float32{rng.Float32(), rng.Float32(), rng.Float32()}
		before := [2][3]float32{ps[0].Vel, ps[1].Vel}

		ss := &SoftSphere{RepulsionStrength: 3, Damping: 1}
		ss.Repel(ps, 0.016)

		for d := 0; d < 3; d++ {
			di := ps[0].Vel[d] - before[0][d]
			dj := ps[1].Vel[d] - before[1][d]
			if math.Abs(float64(di+dj)) > 1e-6 {
				t.Fatalf("pair %d axis %d: deltas %v and %v do not cancel", k, d, di, dj)
			}
		}
	}
}

func TestRepelCountsContacts(t *testing.T) {
	ps := []particle.Particle{
		{Pos: [3]float32{0.5, 0.5, 0.5}, Radius: 0.05},
		{Pos: [3]float32{0.55, 0.5, 0.5}, Radius: 0.05},
		{Pos: [3]float32{0.1, 0.1, 0.1}, Radius: 0.05},
	}
	ss := NewSoftSphere()
	if c := ss.Repel(ps, 0.016); c != 1 {
		t.Errorf("expected 1 contact, got %d", c)
	}
}

func TestDampingFactor(t *testing.T) {
	if f := DampingFactor(0.98, 1.0/60); math.Abs(float64(f)-0.98) > 1e-5 {
		t.Errorf("expected 0.98 at reference frame, got %f", f)
	}
	if f := DampingFactor(0.5, 0); f != 1 {
		t.Errorf("expected no damping for dt=0, got %f", f)
	}
	two := DampingFactor(0.9, 2.0/60)
	if math.Abs(float64(two)-0.81) > 1e-5 {
		t.Errorf("expected 0.81 for two reference frames, got %f", two)
	}
}

func TestAdvanceWraps(t *testing.T) {
	ps := []particle.Particle{
		{Pos: [3]float32{0.99, 0.01, 0.5}, Vel: [3]float32{1, -1, 0}, Radius: 0.01},
	}
	ss := &SoftSphere{RepulsionStrength: 1, Damping: 1}
	ss.Advance(ps, 0.05)

	for _, c := range ps[0].Pos {
		if c < 0 || c >= 1 {
			t.Fatalf("position %v outside unit cube", ps[0].Pos)
		}
	}
	if math.Abs(float64(ps[0].Pos[0])-0.04) > 1e-5 {
		t.Errorf("expected x to wrap to 0.04, got %f", ps[0].Pos[0])
	}
	if math.Abs(float64(ps[0].Pos[1])-0.96) > 1e-5 {
		t.Errorf("expected y to wrap to 0.96, got %f", ps[0].Pos[1])
	}
}

func TestSpeedClamp(t *testing.T) {
	tests := []struct {
		name  string
		clamp SpeedClamp
		in    [3]float32
		want  float32
	}{
		{"disabled", SpeedClamp{}, [3]float32{3, 4, 0}, 5},
		{"max", SpeedClamp{Max: 1}, [3]float32{3, 4, 0}, 1},
		{"min", SpeedClamp{Min: 10}, [3]float32{3, 4, 0}, 10},
		{"zero stays zero", SpeedClamp{Min: 1}, [3]float32{}, 0},
		{"inside", SpeedClamp{Min: 1, Max: 10}, [3]float32{3, 4, 0}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.in
			tt.clamp.Apply(&v)
			p := particle.Particle{Vel: v}
			if math.Abs(float64(p.Speed()-tt.want)) > 1e-5 {
				t.Errorf("expected speed %f, got %f", tt.want, p.Speed())
			}
		})
	}
}

func TestEnergyAndMomentum(t *testing.T) {
	ps := []particle.Particle{
		{Vel: [3]float32{1, 0, 0}},
		{Vel: [3]float32{-1, 2, 0}},
	}
	if ke := KineticEnergy(ps); math.Abs(ke-3) > 1e-9 {
		t.Errorf("expected energy 3, got %f", ke)
	}
	px, py, pz := Momentum(ps)
	if px != 0 || py != 2 || pz != 0 {
		t.Errorf("expected momentum (0,2,0), got (%f,%f,%f)", px, py, pz)
	}
}

func BenchmarkRepel(b *testing.B) {
	s := particle.NewStore()
	s.Initialize(500, 0.02, 1)
	ss := NewSoftSphere()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ss.Repel(s.Particles(), 0.016)
	}
}
