package particle

import (
	"testing"
)

func TestInitialize(t *testing.T) {
	s := NewStore()
	s.Initialize(50, 0.02, 3)

	if s.Count() != 50 {
		t.Fatalf("expected 50 particles, got %d", s.Count())
	}

	for i, p := range s.Particles() {
		if p.ID != i {
			t.Errorf("particle %d has id %d", i, p.ID)
		}
		if p.Radius != 0.02 {
			t.Errorf("particle %d has radius %f", i, p.Radius)
		}
		if p.Vel != [3]float32{} {
			t.Errorf("particle %d has non-zero velocity %v", i, p.Vel)
		}
		for _, c := range p.Pos {
			if c < 0 || c >= 1 {
				t.Errorf("particle %d position %v outside unit cube", i, p.Pos)
			}
		}
	}
}

func TestInitializeDeterministic(t *testing.T) {
	a, b := NewStore(), NewStore()
	a.Initialize(100, 0.01, 42)
	b.Initialize(100, 0.01, 42)

	for i := range a.Particles() {
		if a.Particles()[i].Pos != b.Particles()[i].Pos {
			t.Fatalf("particle %d differs: %v vs %v", i, a.Particles()[i].Pos, b.Particles()[i].Pos)
		}
	}

	b.Initialize(100, 0.01, 43)
	same := 0
	for i := range a.Particles() {
		if a.Particles()[i].Pos == b.Particles()[i].Pos {
			same++
		}
	}
	if same == 100 {
		t.Error("different seeds produced identical positions")
	}
}

func TestInitializeDiscardsPriorState(t *testing.T) {
	s := NewStore()
	s.Initialize(10, 0.01, 1)
	s.Particles()[0].Vel = [3]float32{1, 2, 3}

	s.Initialize(3, 0.05, 1)
	if s.Count() != 3 {
		t.Fatalf("expected 3 particles, got %d", s.Count())
	}
	if s.Particles()[0].Vel != [3]float32{} {
		t.Error("velocity survived reinitialization")
	}

	s.Initialize(0, 0.01, 0)
	if s.Count() != 0 {
		t.Errorf("expected empty store, got %d", s.Count())
	}
}

func TestPositions64(t *testing.T) {
	s := NewStore()
	s.Initialize(5, 0.01, 9)
	pts := Positions64(s.Particles())
	for i, p := range s.Particles() {
		if float32(pts[i].X) != p.Pos[0] || float32(pts[i].Y) != p.Pos[1] || float32(pts[i].Z) != p.Pos[2] {
			t.Errorf("point %d mismatch: %v vs %v", i, pts[i], p.Pos)
		}
	}
}

func TestSpeed(t *testing.T) {
	p := Particle{Vel: [3]float32{3, 4, 0}}
	if p.Speed() != 5 {
		t.Errorf("expected speed 5, got %f", p.Speed())
	}
}
