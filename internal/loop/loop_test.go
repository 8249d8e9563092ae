package loop

import (
	"math"
	"testing"

	"github.com/nmoray/cruisesim/internal/sim"
	"github.com/nmoray/cruisesim/internal/tf"
	"github.com/nmoray/cruisesim/internal/vehicle"
)

func buildCruise(t *testing.T) *Loop {
	t.Helper()
	l, err := Cruise(vehicle.DefaultParams(), tf.DefaultKp, tf.DefaultKi)
	if err != nil {
		t.Fatalf("Cruise: %v", err)
	}
	return l
}

func TestCruiseSignals(t *testing.T) {
	l := buildCruise(t)

	if l.StateDim() != 2 {
		t.Errorf("state dim = %d, want 2 (vehicle velocity + controller state)", l.StateDim())
	}

	vIdx, err := l.FindOutput("v")
	if err != nil || vIdx != 0 {
		t.Errorf("FindOutput(v) = %d, %v; want 0, nil", vIdx, err)
	}
	uIdx, err := l.FindOutput("u")
	if err != nil || uIdx != 1 {
		t.Errorf("FindOutput(u) = %d, %v; want 1, nil", uIdx, err)
	}
	if _, err := l.FindOutput("nope"); err == nil {
		t.Error("expected error for unknown output")
	}

	want := []string{"vref", "gear", "theta"}
	got := l.InputNames()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("input %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCruiseErrorFormation(t *testing.T) {
	l := buildCruise(t)

	// With zero controller state, the throttle command is the pure
	// proportional response Kp (vref - v).
	x := sim.State{18, 0}
	u := sim.Input{20, 4, 0}
	y, err := l.Output(x, u, 0)
	if err != nil {
		t.Fatalf("Output: %v", err)
	}

	if y[0] != 18 {
		t.Errorf("velocity output = %g, want 18", y[0])
	}
	want := tf.DefaultKp * (20 - 18)
	if math.Abs(y[1]-want) > 1e-12 {
		t.Errorf("throttle command = %g, want %g", y[1], want)
	}
}

func TestCruiseNegativeFeedback(t *testing.T) {
	l := buildCruise(t)
	u := sim.Input{20, 4, 0}

	// The controller state integrates vref - v through its input: above
	// the reference it must wind down, below it must wind up.
	cs, err := l.SubsystemState(sim.State{0, 0}, "control")
	if err != nil || len(cs) != 1 {
		t.Fatalf("SubsystemState: %v", err)
	}

	dxFast, err := l.Derivative(sim.State{25, 0}, u, 0)
	if err != nil {
		t.Fatalf("Derivative: %v", err)
	}
	dxSlow, err := l.Derivative(sim.State{15, 0}, u, 0)
	if err != nil {
		t.Fatalf("Derivative: %v", err)
	}
	if dxFast[1] >= 0 {
		t.Errorf("controller state derivative above vref = %g, want negative", dxFast[1])
	}
	if dxSlow[1] <= 0 {
		t.Errorf("controller state derivative below vref = %g, want positive", dxSlow[1])
	}
}

func TestCruisePropagatesGearError(t *testing.T) {
	l := buildCruise(t)

	_, err := l.Derivative(sim.State{20, 0}, sim.Input{20, 9, 0}, 0)
	if err == nil {
		t.Fatal("expected gear error to propagate through the loop")
	}
}

// gain is a stateless feedthrough block for wiring tests.
type gain struct{ k float64 }

func (g gain) Derivative(x sim.State, u sim.Input, t float64) (sim.State, error) {
	return sim.State{}, nil
}
func (g gain) Output(x sim.State, u sim.Input, t float64) ([]float64, error) {
	return []float64{g.k * u[0]}, nil
}
func (g gain) StateDim() int         { return 0 }
func (g gain) InputDim() int         { return 1 }
func (g gain) OutputDim() int        { return 1 }
func (g gain) InputNames() []string  { return []string{"in"} }
func (g gain) OutputNames() []string { return []string{"out"} }
func (g gain) HasFeedthrough() bool  { return true }

func TestBuildRejectsAlgebraicCycle(t *testing.T) {
	_, err := NewBuilder().
		Add("a", gain{k: 2}).
		Add("b", gain{k: 3}).
		Connect("a.in", "b.out", 1).
		Connect("b.in", "a.out", 1).
		MapInput("r", "a.in").
		MapOutput("y", "b.out").
		Build()
	if err == nil {
		t.Fatal("expected algebraic cycle to be rejected")
	}
}

func TestBuildRejectsBadNames(t *testing.T) {
	if _, err := NewBuilder().Add("a.b", gain{k: 1}).MapOutput("y", "a.b.out").Build(); err == nil {
		t.Error("expected error for dotted subsystem name")
	}
	if _, err := NewBuilder().Add("a", gain{k: 1}).Connect("a.in", "ghost.out", 1).Build(); err == nil {
		t.Error("expected error for unknown subsystem")
	}
	if _, err := NewBuilder().Add("a", gain{k: 1}).Connect("a.bogus", "a.out", 1).Build(); err == nil {
		t.Error("expected error for unknown port")
	}
}

func TestFeedthroughChainOrdering(t *testing.T) {
	// a -> b -> c: c's output must see both upstream gains regardless of
	// declaration order.
	l, err := NewBuilder().
		Add("c", gain{k: 5}).
		Add("b", gain{k: 3}).
		Add("a", gain{k: 2}).
		Connect("b.in", "a.out", 1).
		Connect("c.in", "b.out", 1).
		MapInput("r", "a.in").
		MapOutput("y", "c.out").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	y, err := l.Output(sim.State{}, sim.Input{1}, 0)
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if math.Abs(y[0]-30) > 1e-15 {
		t.Errorf("chained gain = %g, want 30", y[0])
	}
}
