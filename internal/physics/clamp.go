package physics

import "math"

// SpeedClamp bounds the velocity magnitude of a particle. A zero bound is
// disabled. The minimum only lifts moving particles: a zero velocity has no
// direction to scale along and stays zero.
type SpeedClamp struct {
	Min float32
	Max float32
}

func (c SpeedClamp) Enabled() bool { return c.Min > 0 || c.Max > 0 }

// Apply rescales v in place.
func (c SpeedClamp) Apply(v *[3]float32) {
	if !c.Enabled() {
		return
	}
	s2 := v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
	if s2 == 0 {
		return
	}
	speed := float32(math.Sqrt(float64(s2)))

	target := speed
	if c.Max > 0 && speed > c.Max {
		target = c.Max
	}
	if c.Min > 0 && speed < c.Min {
		target = c.Min
	}
	if target == speed {
		return
	}

	k := target / speed
	v[0] *= k
	v[1] *= k
	v[2] *= k
}
