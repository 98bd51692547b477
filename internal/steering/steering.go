// Package steering derives a preferred travel direction for each particle
// from the shape of its Voronoi cell.
//
// One pass runs three stages:
//
//   - [Tetrahedralize]: periodic Delaunay tetrahedra from the injected
//     [geometry.Provider], indices reduced to particle indices.
//   - [Unwrapper.Accumulate]: for every tetrahedron and every vertex, the
//     circumcenter of the tetrahedron unwrapped around that vertex. These are
//     the Voronoi vertices of the particle's cell.
//   - [AxisExtractor.Apply]: PCA over each particle's circumcenters; the
//     long axis, oriented along the current velocity, accelerates the
//     particle.
//
// Provider failures surface as errors wrapping [ErrProviderFailed]. Solver
// failures never do: a singular circumcenter system falls back to the vertex
// average, and a failed eigen decomposition leaves that particle unsteered.
package steering

import (
	"github.com/san-kum/cherrycore/internal/geometry"
	"github.com/san-kum/cherrycore/internal/linalg"
	"github.com/san-kum/cherrycore/internal/particle"
)

// Report summarises one steering pass.
type Report struct {
	Tetrahedra int
	Steered    int
	Fallbacks  int
}

// Steerer runs the full steering pass.
type Steerer struct {
	provider  geometry.Provider
	unwrapper Unwrapper
	extractor AxisExtractor
}

func NewSteerer(provider geometry.Provider, solver linalg.LinearSolver, eigen linalg.SymEigenSolver) *Steerer {
	return &Steerer{
		provider:  provider,
		unwrapper: Unwrapper{Solver: solver},
		extractor: AxisExtractor{Eigen: eigen},
	}
}

// Run steers ps in place and writes each particle's axis into axes, which
// must have len(ps) entries. On error neither ps nor axes are touched.
func (s *Steerer) Run(ps []particle.Particle, strength, dt float32, axes [][3]float32) (Report, error) {
	tets, err := Tetrahedralize(s.provider, ps)
	if err != nil {
		return Report{}, err
	}

	samples := s.unwrapper.Accumulate(particle.Positions64(ps), tets)
	steered := s.extractor.Apply(ps, samples.Points, strength, dt, axes)

	return Report{
		Tetrahedra: len(tets),
		Steered:    steered,
		Fallbacks:  samples.Fallbacks,
	}, nil
}
