package loop

import (
	"fmt"

	"github.com/nmoray/cruisesim/internal/sim"
)

// Loop is an interconnection of named subsystems, itself a sim.System
// over the stacked state vector. Built once by Builder.Build and
// immutable afterwards.
type Loop struct {
	subs      []subsystem
	conns     []conn
	extIn     []portRef
	extOut    []portRef
	inNames   []string
	outNames  []string
	evalOrder []int
	nx        int
}

type subsystem struct {
	name        string
	sys         sim.System
	stateOff    int
	nx, nu, ny  int
	feedthrough bool
}

type conn struct {
	dst  portRef
	src  portRef
	gain float64
}

func (l *Loop) StateDim() int  { return l.nx }
func (l *Loop) InputDim() int  { return len(l.extIn) }
func (l *Loop) OutputDim() int { return len(l.extOut) }

func (l *Loop) InputNames() []string  { return append([]string(nil), l.inNames...) }
func (l *Loop) OutputNames() []string { return append([]string(nil), l.outNames...) }

// FindOutput returns the row index of a named external output, fixed at
// build time.
func (l *Loop) FindOutput(name string) (int, error) {
	for i, n := range l.outNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("loop: unknown output %q", name)
}

// FindInput returns the row index of a named external input.
func (l *Loop) FindInput(name string) (int, error) {
	for i, n := range l.inNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("loop: unknown input %q", name)
}

// SubsystemState extracts the slice of the stacked state belonging to a
// named subsystem.
func (l *Loop) SubsystemState(x sim.State, name string) (sim.State, error) {
	for _, s := range l.subs {
		if s.name == name {
			return x[s.stateOff : s.stateOff+s.nx], nil
		}
	}
	return nil, fmt.Errorf("loop: unknown subsystem %q", name)
}

// eval resolves all internal signals at (x, u, t): every subsystem's
// summed input vector and output vector. Outputs are computed in the
// build-time order, so feedthrough blocks always see resolved sources.
func (l *Loop) eval(x sim.State, u sim.Input, t float64) (ins, outs [][]float64, err error) {
	if len(x) != l.nx {
		return nil, nil, sim.ErrDimension
	}
	if len(u) != len(l.extIn) {
		return nil, nil, sim.ErrDimension
	}

	ins = make([][]float64, len(l.subs))
	outs = make([][]float64, len(l.subs))
	for i, s := range l.subs {
		ins[i] = make([]float64, s.nu)
	}
	for k, ref := range l.extIn {
		ins[ref.sub][ref.idx] += u[k]
	}

	for _, i := range l.evalOrder {
		s := l.subs[i]
		xs := x[s.stateOff : s.stateOff+s.nx]
		y, oerr := s.sys.Output(xs, ins[i], t)
		if oerr != nil {
			return nil, nil, fmt.Errorf("loop: output of %q: %w", s.name, oerr)
		}
		outs[i] = y
		for _, c := range l.conns {
			if c.src.sub == i {
				ins[c.dst.sub][c.dst.idx] += c.gain * y[c.src.idx]
			}
		}
	}
	return ins, outs, nil
}

// Derivative stacks the subsystem derivatives under the resolved
// internal signals.
func (l *Loop) Derivative(x sim.State, u sim.Input, t float64) (sim.State, error) {
	ins, _, err := l.eval(x, u, t)
	if err != nil {
		return nil, err
	}
	dx := make(sim.State, 0, l.nx)
	for i, s := range l.subs {
		xs := x[s.stateOff : s.stateOff+s.nx]
		d, derr := s.sys.Derivative(xs, ins[i], t)
		if derr != nil {
			return nil, fmt.Errorf("loop: derivative of %q: %w", s.name, derr)
		}
		if len(d) != s.nx {
			return nil, sim.ErrDimension
		}
		dx = append(dx, d...)
	}
	return dx, nil
}

// Output returns the external output vector. Input-port taps report the
// fully summed signal entering that port.
func (l *Loop) Output(x sim.State, u sim.Input, t float64) ([]float64, error) {
	ins, outs, err := l.eval(x, u, t)
	if err != nil {
		return nil, err
	}
	y := make([]float64, len(l.extOut))
	for k, ref := range l.extOut {
		if ref.fromInput {
			y[k] = ins[ref.sub][ref.idx]
		} else {
			y[k] = outs[ref.sub][ref.idx]
		}
	}
	return y, nil
}
