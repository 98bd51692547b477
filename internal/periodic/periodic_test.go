package periodic

import (
	"math"
	"math/rand"
	"testing"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"inside", 0.25, 0.25},
		{"one", 1, 0},
		{"above", 1.25, 0.25},
		{"far above", 3.5, 0.5},
		{"below", -0.25, 0.75},
		{"far below", -2.75, 0.25},
		{"minus one", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wrap(tt.in); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Wrap(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWrapTinyNegativeFloat32(t *testing.T) {
	v := Wrap(float32(-1e-9))
	if v < 0 || v >= 1 {
		t.Errorf("expected value in [0,1), got %v", v)
	}
}

func TestWrapIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		v := float32(rng.Float64()*20 - 10)
		w := Wrap(v)
		if w < 0 || w >= 1 {
			t.Fatalf("Wrap(%v) = %v out of range", v, w)
		}
		if ww := Wrap(w); ww != w {
			t.Fatalf("Wrap not idempotent: %v -> %v -> %v", v, w, ww)
		}
	}
}

func TestMinImage(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{0.3, 0.3},
		{0.5, -0.5},
		{-0.5, -0.5},
		{0.75, -0.25},
		{-0.75, 0.25},
		{0.9, -0.1},
		{1.2, 0.2},
	}

	for _, tt := range tests {
		if got := MinImage(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("MinImage(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMinImageBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	maxDist := math.Sqrt(3) * 0.5
	for i := 0; i < 10000; i++ {
		a := [3]float32{rng.Float32(), rng.Float32(), rng.Float32()}
		b := [3]float32{rng.Float32(), rng.Float32(), rng.Float32()}
		dx, dy, dz := MinImage3(b[0]-a[0], b[1]-a[1], b[2]-a[2])
		for _, d := range []float32{dx, dy, dz} {
			if d < -0.5 || d >= 0.5 {
				t.Fatalf("component %v outside [-0.5, 0.5)", d)
			}
		}
		dist := math.Sqrt(float64(dx*dx + dy*dy + dz*dz))
		if dist > maxDist+1e-6 {
			t.Fatalf("distance %v exceeds %v", dist, maxDist)
		}
	}
}
