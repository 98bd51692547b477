package steering

import (
	"math"

	"github.com/san-kum/cherrycore/internal/linalg"
	"github.com/san-kum/cherrycore/internal/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

// MinSamples is the number of circumcenters a particle needs before its
// covariance is trusted.
const MinSamples = 4

// AxisExtractor finds the long axis of each particle's sample cloud.
type AxisExtractor struct {
	Eigen linalg.SymEigenSolver
}

// Covariance returns the sample mean and covariance of pts, normalised by
// max(1, len(pts)-1).
func Covariance(pts []r3.Vec) (r3.Vec, linalg.Mat3) {
	var mean r3.Vec
	var cov linalg.Mat3
	if len(pts) == 0 {
		return mean, cov
	}
	for _, p := range pts {
		mean = r3.Add(mean, p)
	}
	mean = r3.Scale(1/float64(len(pts)), mean)

	for _, p := range pts {
		d := r3.Sub(p, mean)
		c := [3]float64{d.X, d.Y, d.Z}
		for i := 0; i < 3; i++ {
			for j := i; j < 3; j++ {
				cov[i][j] += c[i] * c[j]
			}
		}
	}

	norm := 1 / math.Max(1, float64(len(pts)-1))
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			cov[i][j] *= norm
			cov[j][i] = cov[i][j]
		}
	}
	return mean, cov
}

// PrincipalAxis returns the unit eigenvector of the largest covariance
// eigenvalue. ok is false with fewer than MinSamples points or when the
// eigensolver fails.
func (a *AxisExtractor) PrincipalAxis(pts []r3.Vec) (axis r3.Vec, ok bool) {
	if len(pts) < MinSamples {
		return axis, false
	}
	_, cov := Covariance(pts)
	_, vecs, err := a.Eigen.SymEigen3(cov)
	if err != nil {
		return axis, false
	}
	axis = vecs[2]
	n := r3.Norm(axis)
	if n == 0 || math.IsNaN(n) {
		return r3.Vec{}, false
	}
	return r3.Scale(1/n, axis), true
}

// Orient flips axis to point along vel. A zero velocity leaves it as is.
func Orient(axis r3.Vec, vel [3]float32) r3.Vec {
	v := r3.Vec{X: float64(vel[0]), Y: float64(vel[1]), Z: float64(vel[2])}
	if r3.Dot(axis, v) < 0 {
		return r3.Scale(-1, axis)
	}
	return axis
}

// Apply accelerates every particle with enough samples along its oriented
// axis and stores the axis in axes (zero for unsteered particles). It
// returns the number of steered particles.
func (a *AxisExtractor) Apply(ps []particle.Particle, samples [][]r3.Vec, strength, dt float32, axes [][3]float32) int {
	steered := 0
	for i := range ps {
		axes[i] = [3]float32{}
		axis, ok := a.PrincipalAxis(samples[i])
		if !ok {
			continue
		}
		p := &ps[i]
		axis = Orient(axis, p.Vel)

		ax := [3]float32{float32(axis.X), float32(axis.Y), float32(axis.Z)}
		p.Vel[0] += strength * ax[0] * dt
		p.Vel[1] += strength * ax[1] * dt
		p.Vel[2] += strength * ax[2] * dt
		axes[i] = ax
		steered++
	}
	return steered
}
