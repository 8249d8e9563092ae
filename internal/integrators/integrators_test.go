package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/nmoray/cruisesim/internal/sim"
)

// harmonicOscillator is dx = [x1, -x0]: energy-conserving test system.
type harmonicOscillator struct{}

func (harmonicOscillator) Derivative(x sim.State, u sim.Input, t float64) (sim.State, error) {
	return sim.State{x[1], -x[0]}, nil
}
func (harmonicOscillator) Output(x sim.State, u sim.Input, t float64) ([]float64, error) {
	return []float64{x[0]}, nil
}
func (harmonicOscillator) StateDim() int         { return 2 }
func (harmonicOscillator) InputDim() int         { return 0 }
func (harmonicOscillator) OutputDim() int        { return 1 }
func (harmonicOscillator) InputNames() []string  { return nil }
func (harmonicOscillator) OutputNames() []string { return []string{"x"} }

func energy(x sim.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func noForcing(t float64) sim.Input { return nil }

func TestRK4EnergyDrift(t *testing.T) {
	integ := NewRK4()
	x := sim.State{1, 0}
	dt := 0.01

	var err error
	for i := 0; i < 10000; i++ {
		x, err = integ.Step(harmonicOscillator{}, x, noForcing, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	drift := math.Abs(energy(x)-0.5) / 0.5
	if drift > 1e-6 {
		t.Errorf("RK4 energy drift %e over 100s", drift)
	}
}

func TestRK45Advance(t *testing.T) {
	integ := NewRK45()
	x, err := integ.Advance(harmonicOscillator{}, sim.State{1, 0}, noForcing, 0, 2*math.Pi, 1e-10, 10000)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}

	// One full period returns to the start.
	if math.Abs(x[0]-1) > 1e-7 || math.Abs(x[1]) > 1e-7 {
		t.Errorf("after one period x = [%g, %g], want [1, 0]", x[0], x[1])
	}
}

func TestRK45BudgetExhausted(t *testing.T) {
	integ := NewRK45()
	_, err := integ.Advance(harmonicOscillator{}, sim.State{1, 0}, noForcing, 0, 1000, 1e-12, 5)
	if err == nil {
		t.Fatal("expected budget exhaustion error")
	}
	var se *sim.StepError
	if !errors.As(err, &se) {
		t.Errorf("expected StepError, got %T", err)
	}
}

// integratorPlant is dx = u, y = x: integrates its forcing exactly.
type integratorPlant struct{}

func (integratorPlant) Derivative(x sim.State, u sim.Input, t float64) (sim.State, error) {
	return sim.State{u[0]}, nil
}
func (integratorPlant) Output(x sim.State, u sim.Input, t float64) ([]float64, error) {
	return []float64{x[0]}, nil
}
func (integratorPlant) StateDim() int         { return 1 }
func (integratorPlant) InputDim() int         { return 1 }
func (integratorPlant) OutputDim() int        { return 1 }
func (integratorPlant) InputNames() []string  { return []string{"u"} }
func (integratorPlant) OutputNames() []string { return []string{"x"} }

func TestResponseRampForcing(t *testing.T) {
	// Ramp input u(t) = t over [0, 2]: x(t) = t^2/2 exactly under
	// piecewise-linear interpolation of the grid samples.
	n := 21
	T := make([]float64, n)
	U := [][]float64{make([]float64, n)}
	for i := range T {
		T[i] = 2 * float64(i) / float64(n-1)
		U[0][i] = T[i]
	}

	res, err := Response(integratorPlant{}, T, U, sim.State{0}, Options{Tol: 1e-10})
	if err != nil {
		t.Fatalf("Response: %v", err)
	}
	for i, tv := range T {
		want := tv * tv / 2
		if math.Abs(res.Y[0][i]-want) > 1e-8 {
			t.Fatalf("x(%g) = %g, want %g", tv, res.Y[0][i], want)
		}
	}
}

func TestResponseFixedStepIntegrators(t *testing.T) {
	n := 41
	T := make([]float64, n)
	U := [][]float64{make([]float64, n)}
	for i := range T {
		T[i] = 2 * float64(i) / float64(n-1)
		U[0][i] = 1
	}

	for _, integ := range []Integrator{NewEuler(), NewRK4()} {
		res, err := Response(integratorPlant{}, T, U, sim.State{0}, Options{Integrator: integ})
		if err != nil {
			t.Fatalf("Response: %v", err)
		}
		if math.Abs(res.Y[0][n-1]-2) > 1e-9 {
			t.Errorf("constant forcing integral = %g, want 2", res.Y[0][n-1])
		}
	}
}

func TestResponseDeterminism(t *testing.T) {
	n := 31
	T := make([]float64, n)
	U := [][]float64{make([]float64, n)}
	for i := range T {
		T[i] = float64(i) / 10
		U[0][i] = math.Sin(T[i])
	}

	a, err := Response(integratorPlant{}, T, U, sim.State{0}, Options{})
	if err != nil {
		t.Fatalf("Response: %v", err)
	}
	b, err := Response(integratorPlant{}, T, U, sim.State{0}, Options{})
	if err != nil {
		t.Fatalf("Response: %v", err)
	}
	for i := range a.Y[0] {
		if a.Y[0][i] != b.Y[0][i] {
			t.Fatalf("rerun differs at column %d", i)
		}
	}
}

// blowup is dx = x^2 from x0 = 1: finite-time escape at t = 1.
type blowup struct{}

func (blowup) Derivative(x sim.State, u sim.Input, t float64) (sim.State, error) {
	return sim.State{x[0] * x[0]}, nil
}
func (blowup) Output(x sim.State, u sim.Input, t float64) ([]float64, error) {
	return []float64{x[0]}, nil
}
func (blowup) StateDim() int         { return 1 }
func (blowup) InputDim() int         { return 0 }
func (blowup) OutputDim() int        { return 1 }
func (blowup) InputNames() []string  { return nil }
func (blowup) OutputNames() []string { return []string{"x"} }

func TestResponseDivergenceFails(t *testing.T) {
	T := []float64{0, 0.5, 1.0, 1.5, 2.0}
	U := [][]float64{}

	_, err := Response(blowup{}, T, U, sim.State{1}, Options{MaxStages: 2000})
	if err == nil {
		t.Fatal("expected divergence to surface as an error")
	}
}

func TestResponseValidation(t *testing.T) {
	T := []float64{0, 1}
	ok := [][]float64{{0, 1}}

	if _, err := Response(integratorPlant{}, []float64{0}, ok, sim.State{0}, Options{}); err == nil {
		t.Error("expected error for single-point grid")
	}
	if _, err := Response(integratorPlant{}, []float64{0, 0}, ok, sim.State{0}, Options{}); err == nil {
		t.Error("expected error for non-increasing grid")
	}
	if _, err := Response(integratorPlant{}, T, [][]float64{}, sim.State{0}, Options{}); err == nil {
		t.Error("expected error for missing input rows")
	}
	if _, err := Response(integratorPlant{}, T, [][]float64{{0}}, sim.State{0}, Options{}); err == nil {
		t.Error("expected error for short input row")
	}
	if _, err := Response(integratorPlant{}, T, ok, sim.State{0, 0}, Options{}); err == nil {
		t.Error("expected error for wrong initial state dim")
	}
}

func TestInterpClamping(t *testing.T) {
	f := Interp([]float64{0, 1, 2}, [][]float64{{10, 20, 40}})

	if got := f(-5)[0]; got != 10 {
		t.Errorf("f(-5) = %g, want 10", got)
	}
	if got := f(0.5)[0]; got != 15 {
		t.Errorf("f(0.5) = %g, want 15", got)
	}
	if got := f(1.75)[0]; got != 35 {
		t.Errorf("f(1.75) = %g, want 35", got)
	}
	if got := f(99)[0]; got != 40 {
		t.Errorf("f(99) = %g, want 40", got)
	}
}
