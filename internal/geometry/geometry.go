// Package geometry holds the types shared between the steering pass and
// tetrahedralization providers.
package geometry

import (
	"errors"

	"github.com/san-kum/cherrycore/internal/linalg"
	"github.com/san-kum/cherrycore/internal/periodic"
	"gonum.org/v1/gonum/spatial/r3"
)

// MinPoints is the smallest point set a 3D tetrahedralization can cover.
const MinPoints = 4

// ErrTooFewPoints is returned by providers given fewer than MinPoints points.
var ErrTooFewPoints = errors.New("geometry: fewer than 4 points")

// UnitPeriod is the period of the simulation domain.
var UnitPeriod = r3.Vec{X: 1, Y: 1, Z: 1}

// Tetrahedron holds 4 vertex indices as returned by a provider. Indices may
// address periodic replicas of the input points and need reducing modulo
// the point count to recover the particle they stand for.
type Tetrahedron [4]int

// Provider builds a periodic Delaunay tetrahedralization of points living in
// the box [0,period). Implementations must not carry state between calls.
type Provider interface {
	Tetrahedralize(points []r3.Vec, period r3.Vec) ([]Tetrahedron, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(points []r3.Vec, period r3.Vec) ([]Tetrahedron, error)

func (f ProviderFunc) Tetrahedralize(points []r3.Vec, period r3.Vec) ([]Tetrahedron, error) {
	return f(points, period)
}

// Unwrap returns v translated to its periodic image nearest to anchor in the
// unit torus.
func Unwrap(anchor, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: anchor.X + periodic.MinImage(v.X-anchor.X),
		Y: anchor.Y + periodic.MinImage(v.Y-anchor.Y),
		Z: anchor.Z + periodic.MinImage(v.Z-anchor.Z),
	}
}

// Circumcenter returns the point equidistant from a, b, c and d. The system
// is solved relative to a:
//
//	2(v−a)·y = |v−a|²  for v in {b, c, d},  center = a + y
//
// The error wraps linalg.ErrSingular for flat or repeated vertices.
func Circumcenter(s linalg.LinearSolver, a, b, c, d r3.Vec) (r3.Vec, error) {
	var m linalg.Mat3
	var rhs [3]float64
	for i, v := range [3]r3.Vec{b, c, d} {
		e := r3.Sub(v, a)
		m[i] = [3]float64{2 * e.X, 2 * e.Y, 2 * e.Z}
		rhs[i] = r3.Norm2(e)
	}

	y, err := s.Solve3(m, r3.Vec{X: rhs[0], Y: rhs[1], Z: rhs[2]})
	if err != nil {
		return r3.Vec{}, err
	}
	return r3.Add(a, y), nil
}

// Centroid returns the arithmetic mean of the given points.
func Centroid(pts ...r3.Vec) r3.Vec {
	var sum r3.Vec
	for _, p := range pts {
		sum = r3.Add(sum, p)
	}
	if len(pts) == 0 {
		return sum
	}
	return r3.Scale(1/float64(len(pts)), sum)
}

// SignedVolume returns six times the signed volume of the tetrahedron.
func SignedVolume(a, b, c, d r3.Vec) float64 {
	return r3.Dot(r3.Sub(b, a), r3.Cross(r3.Sub(c, a), r3.Sub(d, a)))
}
