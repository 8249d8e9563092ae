package sim

import "math"

// State is the stacked state vector of a dynamical system.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every entry is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Input is an input vector, exogenous or internal, applied to a system.
type Input []float64

func (u Input) Clone() Input {
	c := make(Input, len(u))
	copy(c, u)
	return c
}

// IsValid reports whether every entry is finite.
func (u Input) IsValid() bool {
	for _, v := range u {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a continuous-time input/output system
//
//	dx/dt = f(x, u, t)
//	y     = g(x, u, t)
//
// with named input and output ports. Implementations must be free of
// side effects: the same (x, u, t) always yields the same result.
type System interface {
	// Derivative returns dx/dt at the given state, input and time.
	Derivative(x State, u Input, t float64) (State, error)

	// Output returns the output vector at the given state, input and time.
	Output(x State, u Input, t float64) ([]float64, error)

	StateDim() int
	InputDim() int
	OutputDim() int

	// InputNames and OutputNames label the ports, in index order.
	InputNames() []string
	OutputNames() []string
}

// Feedthrough is implemented by systems whose output depends directly on
// the input (D != 0 in state-space terms). Systems that do not implement
// it are assumed to have none, so their outputs are a function of state
// and time only.
type Feedthrough interface {
	HasFeedthrough() bool
}

// HasFeedthrough reports whether sys declares direct input-to-output
// coupling.
func HasFeedthrough(sys System) bool {
	if f, ok := sys.(Feedthrough); ok {
		return f.HasFeedthrough()
	}
	return false
}
