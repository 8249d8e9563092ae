package vehicle

import (
	"errors"
	"math"
	"testing"

	"github.com/nmoray/cruisesim/internal/sim"
)

func mustNew(t *testing.T) *Vehicle {
	t.Helper()
	v, err := New(DefaultParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestTorqueBounds(t *testing.T) {
	v := mustNew(t)
	p := DefaultParams()

	for omega := -100.0; omega <= 2000.0; omega += 1.0 {
		tq := v.Torque(omega)
		if tq < 0 || tq > p.Tm {
			t.Fatalf("torque %g at omega %g outside [0, %g]", tq, omega, p.Tm)
		}
	}
}

func TestTorquePeak(t *testing.T) {
	v := mustNew(t)
	p := DefaultParams()

	if tq := v.Torque(p.OmegaM); tq != p.Tm {
		t.Errorf("torque at omega_m = %g, want exactly %g", tq, p.Tm)
	}
}

func TestDerivativeFlatRoad(t *testing.T) {
	v := mustNew(t)

	// At 20 m/s in gear 4 the engine runs at 240 rad/s. With throttle
	// balancing friction exactly, acceleration must vanish.
	omega := 12.0 * 20.0
	throttle := (1000.0 * 9.8 * 0.01) / (12.0 * v.Torque(omega))

	dx, err := v.Derivative(sim.State{20}, sim.Input{throttle, 4, 0}, 0)
	if err != nil {
		t.Fatalf("Derivative: %v", err)
	}
	if math.Abs(dx[0]) > 1e-12 {
		t.Errorf("expected zero acceleration, got %g", dx[0])
	}
}

func TestSignConventionAtRest(t *testing.T) {
	v := mustNew(t)

	// sgn(0) = +1: friction opposes forward motion even at v = 0.
	dx, err := v.Derivative(sim.State{0}, sim.Input{0, 1, 0}, 0)
	if err != nil {
		t.Fatalf("Derivative: %v", err)
	}
	want := -9.8 * 0.01
	if math.Abs(dx[0]-want) > 1e-15 {
		t.Errorf("acceleration at rest = %g, want %g", dx[0], want)
	}
}

func TestThrottleClamp(t *testing.T) {
	v := mustNew(t)
	x := sim.State{10}

	full, err := v.Derivative(x, sim.Input{1.0, 3, 0}, 0)
	if err != nil {
		t.Fatalf("Derivative: %v", err)
	}
	over, err := v.Derivative(x, sim.Input{1.7, 3, 0}, 0)
	if err != nil {
		t.Fatalf("Derivative: %v", err)
	}
	if full[0] != over[0] {
		t.Errorf("throttle above 1 not clamped: %g vs %g", over[0], full[0])
	}

	closed, err := v.Derivative(x, sim.Input{0.0, 3, 0}, 0)
	if err != nil {
		t.Fatalf("Derivative: %v", err)
	}
	under, err := v.Derivative(x, sim.Input{-0.4, 3, 0}, 0)
	if err != nil {
		t.Fatalf("Derivative: %v", err)
	}
	if closed[0] != under[0] {
		t.Errorf("negative throttle not clamped: %g vs %g", under[0], closed[0])
	}
}

func TestGearValidation(t *testing.T) {
	v := mustNew(t)
	x := sim.State{15}

	for _, gear := range []float64{0, 6, -1, 3.5, math.NaN()} {
		_, err := v.Derivative(x, sim.Input{0.3, gear, 0}, 0)
		if !errors.Is(err, sim.ErrGear) {
			t.Errorf("gear %g: expected ErrGear, got %v", gear, err)
		}
	}

	for gear := 1.0; gear <= 5.0; gear++ {
		if _, err := v.Derivative(x, sim.Input{0.3, gear, 0}, 0); err != nil {
			t.Errorf("gear %g: unexpected error %v", gear, err)
		}
	}
}

func TestGradeForce(t *testing.T) {
	v := mustNew(t)
	theta := 4.0 / 180.0 * math.Pi

	flat, _ := v.Derivative(sim.State{20}, sim.Input{0.5, 4, 0}, 0)
	hill, _ := v.Derivative(sim.State{20}, sim.Input{0.5, 4, theta}, 0)

	want := 9.8 * math.Sin(theta)
	if math.Abs((flat[0]-hill[0])-want) > 1e-12 {
		t.Errorf("grade decceleration = %g, want %g", flat[0]-hill[0], want)
	}
}

func TestDeterminism(t *testing.T) {
	v := mustNew(t)
	x := sim.State{17.3}
	u := sim.Input{0.42, 4, 0.02}

	a, _ := v.Derivative(x, u, 0)
	b, _ := v.Derivative(x, u, 100)
	if a[0] != b[0] {
		t.Error("derivative must not depend on time or call history")
	}
}

func TestParamsValidate(t *testing.T) {
	bad := DefaultParams()
	bad.Mass = 0
	if _, err := New(bad); err == nil {
		t.Error("expected error for zero mass")
	}

	bad = DefaultParams()
	bad.Ratios = nil
	if _, err := New(bad); err == nil {
		t.Error("expected error for empty gearbox")
	}
}
