package steering

import (
	"github.com/san-kum/cherrycore/internal/geometry"
	"github.com/san-kum/cherrycore/internal/linalg"
	"gonum.org/v1/gonum/spatial/r3"
)

// Unwrapper turns tetrahedra into per-particle circumcenter samples.
type Unwrapper struct {
	Solver linalg.LinearSolver
}

// Samples holds the circumcenters collected for each particle in one
// steering pass. Fallbacks counts solves replaced by a vertex average.
type Samples struct {
	Points    [][]r3.Vec
	Fallbacks int
}

// Accumulate visits every tetrahedron once per vertex. With vertex k as the
// anchor, the other vertices are moved to their images nearest the anchor
// and the circumcenter of that local tetrahedron is appended to the anchor's
// list. positions are indexed by particle and tets must already be reduced.
func (u *Unwrapper) Accumulate(positions []r3.Vec, tets []geometry.Tetrahedron) Samples {
	s := Samples{Points: make([][]r3.Vec, len(positions))}

	var local [4]r3.Vec
	for _, t := range tets {
		for k := 0; k < 4; k++ {
			anchorIdx := t[k]
			anchor := positions[anchorIdx]

			local[0] = anchor
			j := 1
			for m := 0; m < 4; m++ {
				if m == k {
					continue
				}
				local[j] = geometry.Unwrap(anchor, positions[t[m]])
				j++
			}

			cc, err := geometry.Circumcenter(u.Solver, local[0], local[1], local[2], local[3])
			if err != nil {
				cc = geometry.Centroid(local[:]...)
				s.Fallbacks++
			}
			s.Points[anchorIdx] = append(s.Points[anchorIdx], cc)
		}
	}
	return s
}
