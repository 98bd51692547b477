package buffers

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/san-kum/cherrycore/internal/particle"
)

func sample() []particle.Particle {
	return []particle.Particle{
		{Pos: [3]float32{0.1, 0.2, 0.3}, Radius: 0.05, ID: 0},
		{Pos: [3]float32{0.7, 0.8, 0.9}, Radius: 0.02, ID: 1},
	}
}

func TestEmptyBeforeRefresh(t *testing.T) {
	e := New()
	e.Reset(2)

	v := e.Positions()
	if v.Len() != 0 {
		t.Errorf("expected empty view, got len %d", v.Len())
	}
	if !v.Stale() {
		t.Error("expected view before first refresh to be stale")
	}
	if v.Bytes() != nil {
		t.Error("expected nil bytes for empty view")
	}
}

func TestRefresh(t *testing.T) {
	e := New()
	e.Reset(2)
	e.Refresh(sample(), nil, 0.1)

	pos := e.Positions()
	if pos.Len() != 2 || pos.Stride() != 3 {
		t.Fatalf("expected 2x3 positions, got %dx%d", pos.Len(), pos.Stride())
	}
	if got := pos.At(1); got[0] != 0.7 || got[1] != 0.8 || got[2] != 0.9 {
		t.Errorf("unexpected position %v", got)
	}
	if r := e.Radii().At(0)[0]; r != 0.05 {
		t.Errorf("expected radius 0.05, got %v", r)
	}
	if e.Axes().Len() != 0 || e.Segments().Len() != 0 {
		t.Error("expected no axes before steering")
	}
}

func TestSegments(t *testing.T) {
	e := New()
	e.Reset(2)
	axes := [][3]float32{{1, 0, 0}, {0, 0, 0}}
	e.Refresh(sample(), axes, 0.2)

	seg := e.Segments()
	if seg.Len() != 2 || seg.Stride() != 6 {
		t.Fatalf("expected 2x6 segments, got %dx%d", seg.Len(), seg.Stride())
	}
	want := []float32{0.0, 0.2, 0.3, 0.2, 0.2, 0.3}
	for k, w := range want {
		if d := math.Abs(float64(seg.At(0)[k] - w)); d > 1e-6 {
			t.Errorf("segment component %d: expected %v, got %v", k, w, seg.At(0)[k])
		}
	}
	// A zero axis collapses to the particle position.
	s1 := seg.At(1)
	if s1[0] != 0.7 || s1[3] != 0.7 {
		t.Errorf("expected collapsed segment at 0.7, got %v", s1)
	}
	if e.Axes().At(0)[0] != 1 {
		t.Errorf("expected axis x = 1, got %v", e.Axes().At(0))
	}
}

func TestAxesPersistAcrossRefresh(t *testing.T) {
	e := New()
	e.Reset(2)
	e.Refresh(sample(), [][3]float32{{0, 1, 0}, {0, 0, 1}}, 0.1)
	e.Refresh(sample(), nil, 0.1)

	if e.Axes().Len() != 2 {
		t.Fatal("expected axes to remain exported")
	}
}

func TestStaleAfterReset(t *testing.T) {
	e := New()
	e.Reset(2)
	e.Refresh(sample(), nil, 0)

	v := e.Positions()
	if v.Stale() {
		t.Fatal("fresh view reported stale")
	}
	e.Refresh(sample(), nil, 0)
	if v.Stale() {
		t.Error("refresh must not invalidate views")
	}

	e.Reset(3)
	if !v.Stale() {
		t.Error("expected view to be stale after reset")
	}
	if e.Epoch() != 2 {
		t.Errorf("expected epoch 2, got %d", e.Epoch())
	}
}

func TestRefreshResizes(t *testing.T) {
	e := New()
	e.Refresh(sample(), nil, 0)
	if e.Positions().Len() != 2 {
		t.Errorf("expected 2 positions, got %d", e.Positions().Len())
	}
}

func TestBytesAliasesBuffer(t *testing.T) {
	e := New()
	e.Reset(2)
	e.Refresh(sample(), nil, 0)

	b := e.Radii().Bytes()
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	got := math.Float32frombits(binary.NativeEndian.Uint32(b[4:8]))
	if got != 0.02 {
		t.Errorf("expected 0.02 from bytes, got %v", got)
	}
}
