package tf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/nmoray/cruisesim/internal/sim"
)

// StateSpace is a linear time-invariant block
//
//	dx/dt = A x + B u
//	y     = C x + D u
//
// implementing sim.System. A zero-state block degenerates to the pure
// feedthrough y = D u.
type StateSpace struct {
	a, b, c, d *mat.Dense
	n          int
	inName     string
	outName    string
}

func newStateSpace(a, b, c, d *mat.Dense, in, out string) (*StateSpace, error) {
	n := 0
	if a != nil {
		r, cn := a.Dims()
		if r != cn {
			return nil, fmt.Errorf("tf: A must be square, got %dx%d", r, cn)
		}
		n = r
		if br, _ := b.Dims(); br != n {
			return nil, fmt.Errorf("tf: B rows %d != state dim %d", br, n)
		}
		if _, cc := c.Dims(); cc != n {
			return nil, fmt.Errorf("tf: C cols %d != state dim %d", cc, n)
		}
	}
	if d == nil {
		d = mat.NewDense(1, 1, nil)
	}
	return &StateSpace{a: a, b: b, c: c, d: d, n: n, inName: in, outName: out}, nil
}

func (s *StateSpace) Derivative(x sim.State, u sim.Input, t float64) (sim.State, error) {
	if len(x) != s.n || len(u) != 1 {
		return nil, sim.ErrDimension
	}
	if s.n == 0 {
		return sim.State{}, nil
	}
	xv := mat.NewVecDense(s.n, x)
	dx := mat.NewVecDense(s.n, nil)
	dx.MulVec(s.a, xv)
	dx.AddScaledVec(dx, u[0], s.b.ColView(0))
	return sim.State(dx.RawVector().Data), nil
}

func (s *StateSpace) Output(x sim.State, u sim.Input, t float64) ([]float64, error) {
	if len(x) != s.n || len(u) != 1 {
		return nil, sim.ErrDimension
	}
	y := s.d.At(0, 0) * u[0]
	for j := 0; j < s.n; j++ {
		y += s.c.At(0, j) * x[j]
	}
	return []float64{y}, nil
}

func (s *StateSpace) StateDim() int  { return s.n }
func (s *StateSpace) InputDim() int  { return 1 }
func (s *StateSpace) OutputDim() int { return 1 }

func (s *StateSpace) InputNames() []string  { return []string{s.inName} }
func (s *StateSpace) OutputNames() []string { return []string{s.outName} }

// HasFeedthrough reports whether D is nonzero.
func (s *StateSpace) HasFeedthrough() bool {
	return s.d.At(0, 0) != 0
}

// DCGain returns the steady-state gain C (-A)^-1 B + D. It fails when A
// is singular (a pole at the origin has no finite DC gain).
func (s *StateSpace) DCGain() (float64, error) {
	if s.n == 0 {
		return s.d.At(0, 0), nil
	}
	var negA mat.Dense
	negA.Scale(-1, s.a)
	var sol mat.VecDense
	if err := sol.SolveVec(&negA, s.b.ColView(0)); err != nil {
		return 0, fmt.Errorf("tf: no finite DC gain: %w", err)
	}
	g := s.d.At(0, 0)
	for j := 0; j < s.n; j++ {
		g += s.c.At(0, j) * sol.AtVec(j)
	}
	return g, nil
}
