package physics

import (
	"math"

	"github.com/san-kum/cherrycore/internal/particle"
	"github.com/san-kum/cherrycore/internal/periodic"
)

// ReferenceFPS is the frame rate the damping factor is expressed against.
const ReferenceFPS = 60

// SoftSphere integrates overlapping spheres in the periodic unit cube.
// Overlapping pairs are pushed apart by a force proportional to the
// penetration depth; every particle is then damped, moved and wrapped.
type SoftSphere struct {
	RepulsionStrength float32
	Damping           float32 // per reference frame, in (0,1]
	Clamp             SpeedClamp
}

func NewSoftSphere() *SoftSphere {
	return &SoftSphere{
		RepulsionStrength: 1.0,
		Damping:           0.98,
	}
}

// PairImpulse returns the velocity change applied to b by its contact with a.
// a receives the negated value. ok is false when the pair does not interact.
func PairImpulse(a, b *particle.Particle, strength, dt float32) (dv [3]float32, ok bool) {
	mx, my, mz := periodic.MinImage3(
		b.Pos[0]-a.Pos[0],
		b.Pos[1]-a.Pos[1],
		b.Pos[2]-a.Pos[2],
	)

	dist2 := mx*mx + my*my + mz*mz
	if dist2 == 0 {
		return dv, false
	}

	sumR := a.Radius + b.Radius
	if dist2 >= sumR*sumR {
		return dv, false
	}

	dist := float32(math.Sqrt(float64(dist2)))
	overlap := sumR - dist
	if overlap <= 0 {
		return dv, false
	}

	f := strength * overlap * dt / dist
	dv[0], dv[1], dv[2] = f*mx, f*my, f*mz
	return dv, true
}

// Repel applies equal and opposite impulses to every overlapping pair and
// returns the number of contacts.
func (s *SoftSphere) Repel(ps []particle.Particle, dt float32) int {
	contacts := 0
	n := len(ps)
	for i := 0; i < n; i++ {
		pi := &ps[i]
		for j := i + 1; j < n; j++ {
			pj := &ps[j]
			dv, ok := PairImpulse(pi, pj, s.RepulsionStrength, dt)
			if !ok {
				continue
			}
			contacts++
			pi.Vel[0] -= dv[0]
			pi.Vel[1] -= dv[1]
			pi.Vel[2] -= dv[2]
			pj.Vel[0] += dv[0]
			pj.Vel[1] += dv[1]
			pj.Vel[2] += dv[2]
		}
	}
	return contacts
}

// DampingFactor converts a per-reference-frame damping into the factor for a
// step of length dt.
func DampingFactor(damping, dt float32) float32 {
	return float32(math.Pow(float64(damping), float64(dt)*ReferenceFPS))
}

// Advance damps, clamps, moves and wraps every particle.
func (s *SoftSphere) Advance(ps []particle.Particle, dt float32) {
	k := DampingFactor(s.Damping, dt)
	for i := range ps {
		p := &ps[i]
		p.Vel[0] *= k
		p.Vel[1] *= k
		p.Vel[2] *= k

		s.Clamp.Apply(&p.Vel)

		p.Pos[0] = periodic.Wrap(p.Pos[0] + p.Vel[0]*dt)
		p.Pos[1] = periodic.Wrap(p.Pos[1] + p.Vel[1]*dt)
		p.Pos[2] = periodic.Wrap(p.Pos[2] + p.Vel[2]*dt)
	}
}

// Step runs the repulsion pass followed by Advance.
func (s *SoftSphere) Step(ps []particle.Particle, dt float32) int {
	contacts := s.Repel(ps, dt)
	s.Advance(ps, dt)
	return contacts
}

// KineticEnergy returns the total kinetic energy for unit masses.
func KineticEnergy(ps []particle.Particle) float64 {
	ke := 0.0
	for i := range ps {
		v := ps[i].Vel
		ke += 0.5 * float64(v[0]*v[0]+v[1]*v[1]+v[2]*v[2])
	}
	return ke
}

// Momentum returns the summed velocity of all particles.
func Momentum(ps []particle.Particle) (px, py, pz float64) {
	for i := range ps {
		px += float64(ps[i].Vel[0])
		py += float64(ps[i].Vel[1])
		pz += float64(ps[i].Vel[2])
	}
	return
}
