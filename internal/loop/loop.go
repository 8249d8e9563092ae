// Package loop assembles named subsystems into a closed-loop system.
//
// Subsystems are wired by port name ("vehicle.u", "control.y"); external
// inputs sum into subsystem input ports and external outputs tap either
// an output port or the resolved signal feeding an input port. All name
// resolution happens once in Build; the returned Loop is immutable and
// itself a sim.System over the stacked state vector.
package loop

import (
	"fmt"
	"strings"

	"github.com/nmoray/cruisesim/internal/sim"
)

// Builder collects subsystems and wiring declarations. Validation and
// name resolution are deferred to Build so assembly reads as a single
// declaration block.
type Builder struct {
	order []string
	subs  map[string]sim.System
	conns []connDecl
	ins   []portDecl
	outs  []portDecl
}

type connDecl struct {
	dst  string
	src  string
	gain float64
}

type portDecl struct {
	name string
	port string
}

func NewBuilder() *Builder {
	return &Builder{subs: make(map[string]sim.System)}
}

// Add registers a named subsystem. Names must be unique and dot-free.
func (b *Builder) Add(name string, s sim.System) *Builder {
	b.order = append(b.order, name)
	b.subs[name] = s
	return b
}

// Connect routes gain times the source output port into the destination
// input port. Multiple connections into one port sum.
func (b *Builder) Connect(dst, src string, gain float64) *Builder {
	b.conns = append(b.conns, connDecl{dst: dst, src: src, gain: gain})
	return b
}

// MapInput exposes an external input that sums into the given subsystem
// input port.
func (b *Builder) MapInput(name, port string) *Builder {
	b.ins = append(b.ins, portDecl{name: name, port: port})
	return b
}

// MapOutput exposes an external output. The port may name a subsystem
// output, or a subsystem input, in which case the fully summed signal
// entering that port is reported.
func (b *Builder) MapOutput(name, port string) *Builder {
	b.outs = append(b.outs, portDecl{name: name, port: port})
	return b
}

// Build resolves all names to indices, orders output evaluation so every
// feedthrough block sees its sources first, and returns the immutable
// closed-loop system. Algebraic cycles through feedthrough blocks are
// rejected.
func (b *Builder) Build() (*Loop, error) {
	l := &Loop{}

	seen := make(map[string]int)
	for _, name := range b.order {
		if strings.Contains(name, ".") {
			return nil, fmt.Errorf("loop: subsystem name %q must not contain '.'", name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("loop: duplicate subsystem %q", name)
		}
		s := b.subs[name]
		seen[name] = len(l.subs)
		l.subs = append(l.subs, subsystem{
			name:        name,
			sys:         s,
			stateOff:    l.nx,
			nx:          s.StateDim(),
			nu:          s.InputDim(),
			ny:          s.OutputDim(),
			feedthrough: sim.HasFeedthrough(s),
		})
		l.nx += s.StateDim()
	}
	if len(l.subs) == 0 {
		return nil, fmt.Errorf("loop: no subsystems")
	}

	for _, c := range b.conns {
		dst, err := l.resolve(seen, c.dst, portInput)
		if err != nil {
			return nil, err
		}
		src, err := l.resolve(seen, c.src, portOutput)
		if err != nil {
			return nil, err
		}
		l.conns = append(l.conns, conn{dst: dst, src: src, gain: c.gain})
	}

	for _, d := range b.ins {
		ref, err := l.resolve(seen, d.port, portInput)
		if err != nil {
			return nil, err
		}
		l.extIn = append(l.extIn, ref)
		l.inNames = append(l.inNames, d.name)
	}

	for _, d := range b.outs {
		ref, err := l.resolve(seen, d.port, portAny)
		if err != nil {
			return nil, err
		}
		l.extOut = append(l.extOut, ref)
		l.outNames = append(l.outNames, d.name)
	}

	order, err := l.sortSubsystems()
	if err != nil {
		return nil, err
	}
	l.evalOrder = order
	return l, nil
}

// sortSubsystems topologically orders output evaluation. Only blocks
// with feedthrough depend on their connection sources; everything else
// reads state alone.
func (l *Loop) sortSubsystems() ([]int, error) {
	n := len(l.subs)
	indeg := make([]int, n)
	succ := make([][]int, n)
	for _, c := range l.conns {
		if l.subs[c.dst.sub].feedthrough {
			succ[c.src.sub] = append(succ[c.src.sub], c.dst.sub)
			indeg[c.dst.sub]++
		}
	}

	order := make([]int, 0, n)
	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		order = append(order, i)
		for _, j := range succ[i] {
			indeg[j]--
			if indeg[j] == 0 {
				ready = append(ready, j)
			}
		}
	}
	if len(order) != n {
		return nil, fmt.Errorf("loop: algebraic cycle through feedthrough blocks")
	}
	return order, nil
}

type portKind int

const (
	portInput portKind = iota
	portOutput
	portAny
)

// portRef identifies a resolved subsystem port. fromInput distinguishes
// taps on the signal entering an input port from output-port taps.
type portRef struct {
	sub       int
	idx       int
	fromInput bool
}

func (l *Loop) resolve(seen map[string]int, ref string, kind portKind) (portRef, error) {
	name, port, ok := strings.Cut(ref, ".")
	if !ok {
		return portRef{}, fmt.Errorf("loop: port reference %q must be subsystem.port", ref)
	}
	si, ok := seen[name]
	if !ok {
		return portRef{}, fmt.Errorf("loop: unknown subsystem %q in %q", name, ref)
	}
	s := l.subs[si].sys

	if kind == portOutput || kind == portAny {
		for i, n := range s.OutputNames() {
			if n == port {
				return portRef{sub: si, idx: i}, nil
			}
		}
	}
	if kind == portInput || kind == portAny {
		for i, n := range s.InputNames() {
			if n == port {
				return portRef{sub: si, idx: i, fromInput: true}, nil
			}
		}
	}
	return portRef{}, fmt.Errorf("loop: no port %q on subsystem %q", port, name)
}
