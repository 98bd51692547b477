// Package periodic holds the boundary helpers for the unit torus [0,1)³.
//
// Everything that measures distances between particles goes through
// [MinImage], and everything that moves a particle goes through [Wrap], so
// the physics pass, the steering pass and the Delaunay provider agree on the
// topology.
package periodic

import "math"

// Float is the set of element types the helpers accept.
type Float interface {
	~float32 | ~float64
}

// Wrap maps v into [0,1). Values already in range are returned unchanged.
func Wrap[T Float](v T) T {
	if v >= 1 {
		v -= T(math.Trunc(float64(v)))
		if v >= 1 {
			v--
		}
	} else if v < 0 {
		v -= T(math.Trunc(float64(v)))
		if v < 0 {
			v++
		}
	}
	// v+1 rounds up to exactly 1 for tiny negative inputs.
	if v >= 1 {
		v = 0
	}
	return v
}

// MinImage reduces one displacement component into [-0.5, 0.5).
func MinImage[T Float](d T) T {
	r := d - T(math.Floor(float64(d)+0.5))
	if r >= 0.5 {
		r--
	} else if r < -0.5 {
		r++
	}
	return r
}

// MinImage3 applies MinImage to every axis of a displacement.
func MinImage3[T Float](dx, dy, dz T) (T, T, T) {
	return MinImage(dx), MinImage(dy), MinImage(dz)
}
