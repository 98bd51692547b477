// Package linalg defines the small dense solvers the steering pass needs and
// a gonum-backed implementation of them.
//
// The steering code only sees the [LinearSolver] and [SymEigenSolver]
// interfaces, so tests can inject solvers that fail on purpose and reach the
// fallback paths.
package linalg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrSingular indicates a system the solver cannot invert reliably.
	ErrSingular = errors.New("linalg: matrix is singular or ill-conditioned")

	// ErrNoConvergence indicates the eigensolver failed to factorize.
	ErrNoConvergence = errors.New("linalg: eigen decomposition did not converge")
)

// Mat3 is a row-major 3×3 matrix.
type Mat3 [3][3]float64

// LinearSolver solves A·x = b for a 3×3 system. It must return an error
// wrapping ErrSingular when A cannot be inverted.
type LinearSolver interface {
	Solve3(a Mat3, b r3.Vec) (r3.Vec, error)
}

// SymEigenSolver decomposes a symmetric 3×3 matrix. Values are ascending and
// Vectors[i] is the unit eigenvector of Values[i]; the vectors are
// orthonormal.
type SymEigenSolver interface {
	SymEigen3(m Mat3) (values [3]float64, vectors [3]r3.Vec, err error)
}

// Gonum implements both capabilities on top of gonum/mat.
type Gonum struct{}

func NewGonum() *Gonum { return &Gonum{} }

func (g *Gonum) Solve3(a Mat3, b r3.Vec) (r3.Vec, error) {
	A := mat.NewDense(3, 3, []float64{
		a[0][0], a[0][1], a[0][2],
		a[1][0], a[1][1], a[1][2],
		a[2][0], a[2][1], a[2][2],
	})
	rhs := mat.NewVecDense(3, []float64{b.X, b.Y, b.Z})

	var x mat.VecDense
	if err := x.SolveVec(A, rhs); err != nil {
		return r3.Vec{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	out := r3.Vec{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}
	if !finite(out) {
		return r3.Vec{}, ErrSingular
	}
	return out, nil
}

func (g *Gonum) SymEigen3(m Mat3) (values [3]float64, vectors [3]r3.Vec, err error) {
	sym := mat.NewSymDense(3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[0][1], m[1][1], m[1][2],
		m[0][2], m[1][2], m[2][2],
	})

	var es mat.EigenSym
	if ok := es.Factorize(sym, true); !ok {
		return values, vectors, ErrNoConvergence
	}

	vals := es.Values(nil)
	var ev mat.Dense
	es.VectorsTo(&ev)

	for i := 0; i < 3; i++ {
		values[i] = vals[i]
		vectors[i] = r3.Vec{X: ev.At(0, i), Y: ev.At(1, i), Z: ev.At(2, i)}
	}
	return values, vectors, nil
}

func finite(v r3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
