package integrators

import (
	"fmt"

	"github.com/nmoray/cruisesim/internal/sim"
)

// Result is a sampled input-output response: one output row per named
// signal, one column per grid time.
type Result struct {
	T     []float64
	Y     [][]float64
	Names []string
}

// Row returns the samples of a named output.
func (r *Result) Row(name string) ([]float64, error) {
	for i, n := range r.Names {
		if n == name {
			return r.Y[i], nil
		}
	}
	return nil, fmt.Errorf("sim: no output %q in response", name)
}

// Options tunes the Response driver. A nil Integrator selects adaptive
// RK45; fixed-step integrators take one step per grid interval.
type Options struct {
	Integrator Integrator
	Tol        float64
	MaxStages  int
}

const defaultMaxStages = 200000

// Response integrates sys from x0 across the (strictly increasing) time
// grid T under the exogenous input matrix U, one row per external input,
// linearly interpolated between grid points. Outputs are sampled exactly
// at the grid times. Any integration failure or non-finite value aborts
// the run.
func Response(sys sim.System, T []float64, U [][]float64, x0 sim.State, opts Options) (*Result, error) {
	if len(T) < 2 {
		return nil, fmt.Errorf("sim: time grid needs at least 2 points, got %d", len(T))
	}
	for i := 1; i < len(T); i++ {
		if T[i] <= T[i-1] {
			return nil, fmt.Errorf("sim: time grid not increasing at index %d", i)
		}
	}
	if len(U) != sys.InputDim() {
		return nil, fmt.Errorf("%w: %d input rows for %d inputs", sim.ErrDimension, len(U), sys.InputDim())
	}
	for i, row := range U {
		if len(row) != len(T) {
			return nil, fmt.Errorf("%w: input row %d has %d columns for %d grid points", sim.ErrDimension, i, len(row), len(T))
		}
	}
	if len(x0) != sys.StateDim() {
		return nil, fmt.Errorf("%w: initial state dim %d != %d", sim.ErrDimension, len(x0), sys.StateDim())
	}

	integ := opts.Integrator
	if integ == nil {
		integ = NewRK45()
	}
	budget := opts.MaxStages
	if budget <= 0 {
		budget = defaultMaxStages
	}

	f := Interp(T, U)
	ny := sys.OutputDim()
	res := &Result{
		T:     append([]float64(nil), T...),
		Y:     make([][]float64, ny),
		Names: sys.OutputNames(),
	}
	for i := range res.Y {
		res.Y[i] = make([]float64, len(T))
	}

	x := x0.Clone()
	if err := sample(sys, res, 0, x, f); err != nil {
		return nil, err
	}

	perInterval := budget / (len(T) - 1)
	if perInterval < 10 {
		perInterval = 10
	}

	for k := 1; k < len(T); k++ {
		t0, t1 := T[k-1], T[k]

		var err error
		if ad, ok := integ.(Adaptive); ok {
			x, err = ad.Advance(sys, x, f, t0, t1, opts.Tol, perInterval)
		} else {
			x, err = integ.Step(sys, x, f, t0, t1-t0)
		}
		if err != nil {
			return nil, err
		}
		if !x.IsValid() {
			return nil, &sim.StepError{Time: t1, Wrapped: sim.ErrNonFinite}
		}

		if err := sample(sys, res, k, x, f); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func sample(sys sim.System, res *Result, k int, x sim.State, f Forcing) error {
	t := res.T[k]
	y, err := sys.Output(x, f(t), t)
	if err != nil {
		return &sim.StepError{Time: t, Wrapped: err}
	}
	for i, v := range y {
		res.Y[i][k] = v
	}
	return nil
}
