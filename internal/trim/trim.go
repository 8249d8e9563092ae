// Package trim finds steady-state operating points of a sim.System by
// Newton iteration over the free state and input variables.
package trim

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/nmoray/cruisesim/internal/sim"
)

// ErrNoConvergence indicates the solver ran out of iterations before the
// residual dropped below tolerance. No partial point is returned.
var ErrNoConvergence = errors.New("trim: no equilibrium found")

const (
	defaultTol     = 1e-10
	defaultMaxIter = 50
	fdStep         = 1e-7
)

// Point is an equilibrium (state, input) pair.
type Point struct {
	X sim.State
	U sim.Input
}

// Spec constrains the trim problem: inputs listed in FixedInputs are
// held at their u0 values, outputs in TargetOutputs must equal the given
// values, and every state derivative must vanish. The number of target
// outputs must not exceed the number of free inputs, otherwise the
// Newton system is underdetermined in the wrong direction.
type Spec struct {
	FixedInputs   []int
	TargetOutputs map[int]float64
	Tol           float64
	MaxIter       int
}

// Find solves f(x, u) = 0 subject to the Spec constraints, starting from
// the guess (x0, u0). The Jacobian is built by central finite
// differences and each Newton step solved in the least-squares sense.
func Find(sys sim.System, x0 sim.State, u0 sim.Input, spec Spec) (Point, error) {
	nx := sys.StateDim()
	nu := sys.InputDim()
	if len(x0) != nx || len(u0) != nu {
		return Point{}, sim.ErrDimension
	}

	tol := spec.Tol
	if tol <= 0 {
		tol = defaultTol
	}
	maxIter := spec.MaxIter
	if maxIter <= 0 {
		maxIter = defaultMaxIter
	}

	fixed := make(map[int]bool, len(spec.FixedInputs))
	for _, i := range spec.FixedInputs {
		if i < 0 || i >= nu {
			return Point{}, fmt.Errorf("trim: fixed input index %d out of range", i)
		}
		fixed[i] = true
	}
	free := make([]int, 0, nu)
	for i := 0; i < nu; i++ {
		if !fixed[i] {
			free = append(free, i)
		}
	}

	targets := make([]int, 0, len(spec.TargetOutputs))
	for i := range spec.TargetOutputs {
		if i < 0 || i >= sys.OutputDim() {
			return Point{}, fmt.Errorf("trim: target output index %d out of range", i)
		}
		targets = append(targets, i)
	}
	sort.Ints(targets)

	nz := nx + len(free)
	nr := nx + len(targets)
	if nr < nz {
		return Point{}, fmt.Errorf("trim: underdetermined problem (%d equations, %d unknowns)", nr, nz)
	}

	z := make([]float64, nz)
	copy(z, x0)
	for k, i := range free {
		z[nx+k] = u0[i]
	}
	u := u0.Clone()

	residual := func(z []float64) ([]float64, error) {
		x := sim.State(z[:nx])
		for k, i := range free {
			u[i] = z[nx+k]
		}
		f, err := sys.Derivative(x, u, 0)
		if err != nil {
			return nil, err
		}
		r := make([]float64, 0, nr)
		r = append(r, f...)
		if len(targets) > 0 {
			y, err := sys.Output(x, u, 0)
			if err != nil {
				return nil, err
			}
			for _, i := range targets {
				r = append(r, y[i]-spec.TargetOutputs[i])
			}
		}
		return r, nil
	}

	for iter := 0; iter < maxIter; iter++ {
		r, err := residual(z)
		if err != nil {
			return Point{}, err
		}
		if norm := maxAbs(r); norm < tol {
			x := sim.State(z[:nx]).Clone()
			for k, i := range free {
				u[i] = z[nx+k]
			}
			return Point{X: x, U: u.Clone()}, nil
		}

		J, err := jacobian(residual, z, nr)
		if err != nil {
			return Point{}, err
		}
		rv := mat.NewVecDense(nr, r)
		var step mat.VecDense
		if err := step.SolveVec(J, rv); err != nil {
			return Point{}, fmt.Errorf("%w: singular Jacobian: %v", ErrNoConvergence, err)
		}
		for i := range z {
			z[i] -= step.AtVec(i)
			if math.IsNaN(z[i]) || math.IsInf(z[i], 0) {
				return Point{}, fmt.Errorf("%w: iterate diverged", ErrNoConvergence)
			}
		}
	}

	r, err := residual(z)
	if err != nil {
		return Point{}, err
	}
	return Point{}, fmt.Errorf("%w after %d iterations (residual %.3g)", ErrNoConvergence, maxIter, maxAbs(r))
}

// jacobian approximates dr/dz by central differences.
func jacobian(residual func([]float64) ([]float64, error), z []float64, nr int) (*mat.Dense, error) {
	nz := len(z)
	J := mat.NewDense(nr, nz, nil)
	zp := make([]float64, nz)
	for j := 0; j < nz; j++ {
		h := fdStep * math.Max(1, math.Abs(z[j]))

		copy(zp, z)
		zp[j] = z[j] + h
		rp, err := residual(zp)
		if err != nil {
			return nil, err
		}
		zp[j] = z[j] - h
		rm, err := residual(zp)
		if err != nil {
			return nil, err
		}
		for i := 0; i < nr; i++ {
			J.Set(i, j, (rp[i]-rm[i])/(2*h))
		}
	}
	return J, nil
}

func maxAbs(r []float64) float64 {
	m := 0.0
	for _, v := range r {
		m = math.Max(m, math.Abs(v))
	}
	return m
}
