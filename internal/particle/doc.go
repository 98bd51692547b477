// Package particle owns the particle sequence of a simulation.
//
// A [Store] is reset wholesale by [Store.Initialize]; between resets the
// slice returned by [Store.Particles] keeps its length, so an index is a
// stable identity that the steering and export stages can rely on.
//
// # Reproducibility
//
// Initial positions come from math/rand seeded with the caller's seed and
// are drawn x, y, z per particle in index order. The same seed and count
// give the same positions on every platform.
package particle

import "math"

func norm3(v [3]float32) float32 {
	return float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
}
