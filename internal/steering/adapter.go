package steering

import (
	"errors"
	"fmt"

	"github.com/san-kum/cherrycore/internal/geometry"
	"github.com/san-kum/cherrycore/internal/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrProviderFailed wraps any failure of the tetrahedralization provider,
// including a recovered panic.
var ErrProviderFailed = errors.New("steering: tetrahedralization failed")

// Tetrahedralize runs the provider over the particle positions and returns
// the tetrahedra with every index reduced to a particle index in [0,N).
func Tetrahedralize(p geometry.Provider, ps []particle.Particle) ([]geometry.Tetrahedron, error) {
	n := len(ps)
	if n < geometry.MinPoints {
		return nil, geometry.ErrTooFewPoints
	}

	tets, err := callProvider(p, particle.Positions64(ps))
	if err != nil {
		if errors.Is(err, geometry.ErrTooFewPoints) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}

	out := make([]geometry.Tetrahedron, len(tets))
	for i, t := range tets {
		for k := 0; k < 4; k++ {
			out[i][k] = mod(t[k], n)
		}
	}
	return out, nil
}

func callProvider(p geometry.Provider, points []r3.Vec) (tets []geometry.Tetrahedron, err error) {
	defer func() {
		if r := recover(); r != nil {
			tets, err = nil, fmt.Errorf("provider panic: %v", r)
		}
	}()
	return p.Tetrahedralize(points, geometry.UnitPeriod)
}

func mod(i, n int) int {
	m := i % n
	if m < 0 {
		m += n
	}
	return m
}
