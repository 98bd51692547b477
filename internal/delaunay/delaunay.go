// Package delaunay is the built-in periodic tetrahedralization provider.
//
// # Periodic images
//
// The input points are replicated into the 26 neighbouring boxes, keeping
// only replicas within a margin of the primary box. Replica k of point i
// gets the raw index k·N+i, the primary box being replica 0, so reducing an
// index modulo N always recovers the particle.
//
// # Triangulation
//
// The replicated set is triangulated with Bowyer–Watson insertion inside a
// bounding super-tetrahedron. Of the result, only tetrahedra whose
// barycenter lies in the primary box are returned, so every periodic
// tetrahedron appears exactly once.
//
// The margin bounds how far the periodic neighbourhood reaches. It defaults
// to a multiple of the mean interparticle spacing.
package delaunay

import (
	"errors"
	"math"
	"sort"

	"github.com/san-kum/cherrycore/internal/geometry"
	"github.com/san-kum/cherrycore/internal/linalg"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerate is returned when insertion produces a flat tetrahedron,
// typically from coincident points.
var ErrDegenerate = errors.New("delaunay: degenerate point configuration")

const (
	// spacingMargin is the default margin in units of N^(-1/3).
	spacingMargin = 3.0
	maxMargin     = 0.5

	// volumeTol is the smallest accepted six-fold tetrahedron volume
	// relative to the box volume.
	volumeTol = 1e-14
)

// Option configures a Tetrahedralizer.
type Option func(*Tetrahedralizer)

// WithMargin fixes the image margin as a fraction of the period. Values
// outside (0, 0.5] select the adaptive default.
func WithMargin(m float64) Option {
	return func(t *Tetrahedralizer) { t.margin = m }
}

// WithSolver overrides the solver used for circumspheres.
func WithSolver(s linalg.LinearSolver) Option {
	return func(t *Tetrahedralizer) { t.solver = s }
}

// Tetrahedralizer implements geometry.Provider. It is safe for concurrent
// use; every call builds its own mesh.
type Tetrahedralizer struct {
	margin float64
	solver linalg.LinearSolver
}

var _ geometry.Provider = (*Tetrahedralizer)(nil)

func New(opts ...Option) *Tetrahedralizer {
	t := &Tetrahedralizer{solver: linalg.NewGonum()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Margin returns the margin used for n points.
func (t *Tetrahedralizer) Margin(n int) float64 {
	if t.margin > 0 && t.margin <= maxMargin {
		return t.margin
	}
	if n <= 0 {
		return maxMargin
	}
	return math.Min(maxMargin, spacingMargin*math.Cbrt(1/float64(n)))
}

func (t *Tetrahedralizer) Tetrahedralize(points []r3.Vec, period r3.Vec) ([]geometry.Tetrahedron, error) {
	n := len(points)
	if n < geometry.MinPoints {
		return nil, geometry.ErrTooFewPoints
	}

	imgs := replicate(points, period, t.Margin(n))
	m := newMesh(t.solver, imgs, volumeTol*period.X*period.Y*period.Z)
	if err := m.build(); err != nil {
		return nil, err
	}

	var out []geometry.Tetrahedron
	for _, tt := range m.tets {
		if tt.dead || m.touchesSuper(tt) {
			continue
		}
		var bary r3.Vec
		for _, v := range tt.v {
			bary = r3.Add(bary, m.pts[v].pos)
		}
		bary = r3.Scale(0.25, bary)
		if !inBox(bary, period) {
			continue
		}
		out = append(out, geometry.Tetrahedron{
			m.pts[tt.v[0]].raw, m.pts[tt.v[1]].raw, m.pts[tt.v[2]].raw, m.pts[tt.v[3]].raw,
		})
	}
	return out, nil
}

type image struct {
	pos r3.Vec
	raw int
}

// offsets lists the 27 box translations with the primary box first.
var offsets = func() []r3.Vec {
	out := []r3.Vec{{}}
	for x := -1.0; x <= 1; x++ {
		for y := -1.0; y <= 1; y++ {
			for z := -1.0; z <= 1; z++ {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				out = append(out, r3.Vec{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}()

func replicate(points []r3.Vec, period r3.Vec, margin float64) []image {
	n := len(points)
	lo := r3.Vec{X: -margin * period.X, Y: -margin * period.Y, Z: -margin * period.Z}
	hi := r3.Vec{X: (1 + margin) * period.X, Y: (1 + margin) * period.Y, Z: (1 + margin) * period.Z}

	imgs := make([]image, 0, n*2)
	for k, off := range offsets {
		shift := r3.Vec{X: off.X * period.X, Y: off.Y * period.Y, Z: off.Z * period.Z}
		for i, p := range points {
			q := r3.Add(p, shift)
			if k > 0 && !within(q, lo, hi) {
				continue
			}
			imgs = append(imgs, image{pos: q, raw: k*n + i})
		}
	}

	// Insert in a coarse cell order so the point location walk stays short.
	cells := math.Max(1, math.Round(math.Cbrt(float64(len(imgs))/8)))
	key := func(p r3.Vec) [3]int {
		return [3]int{
			int(math.Floor((p.Z - lo.Z) / (hi.Z - lo.Z) * cells)),
			int(math.Floor((p.Y - lo.Y) / (hi.Y - lo.Y) * cells)),
			int(math.Floor((p.X - lo.X) / (hi.X - lo.X) * cells)),
		}
	}
	sort.SliceStable(imgs, func(a, b int) bool {
		ka, kb := key(imgs[a].pos), key(imgs[b].pos)
		for d := 0; d < 3; d++ {
			if ka[d] != kb[d] {
				// Snake through rows so consecutive cells stay adjacent.
				if d > 0 && ka[d-1]%2 == 1 {
					return ka[d] > kb[d]
				}
				return ka[d] < kb[d]
			}
		}
		return false
	})
	return imgs
}

func within(p, lo, hi r3.Vec) bool {
	return p.X >= lo.X && p.X < hi.X &&
		p.Y >= lo.Y && p.Y < hi.Y &&
		p.Z >= lo.Z && p.Z < hi.Z
}

func inBox(p, period r3.Vec) bool {
	return within(p, r3.Vec{}, period)
}
