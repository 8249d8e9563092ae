// Package scenario builds and runs the hill-response study: assemble
// the cruise loop, trim it on flat road, then integrate the response to
// a road-slope ramp.
package scenario

import (
	"fmt"
	"math"

	"github.com/nmoray/cruisesim/internal/config"
	"github.com/nmoray/cruisesim/internal/integrators"
	"github.com/nmoray/cruisesim/internal/loop"
	"github.com/nmoray/cruisesim/internal/metrics"
	"github.com/nmoray/cruisesim/internal/sim"
	"github.com/nmoray/cruisesim/internal/trim"
)

// Outcome is the result of one scenario run.
type Outcome struct {
	Loop    *loop.Loop
	Trim    trim.Point
	Result  *integrators.Result
	Inputs  [][]float64
	Metrics map[string]float64
	VIdx    int
	UIdx    int
}

// HillProfile is the road slope (rad) at time t: flat until tHill, then
// a linear ramp to grade degrees over the ramp duration, held after.
func HillProfile(t, tHill, ramp, gradeDeg float64) float64 {
	grade := gradeDeg / 180.0 * math.Pi
	switch {
	case t <= tHill:
		return 0
	case t <= tHill+ramp:
		return grade * (t - tHill) / ramp
	default:
		return grade
	}
}

// Grid returns samples evenly spaced over [0, horizon].
func Grid(horizon float64, samples int) []float64 {
	T := make([]float64, samples)
	for i := range T {
		T[i] = horizon * float64(i) / float64(samples-1)
	}
	return T
}

// Inputs builds the exogenous input matrix (vref, gear, theta rows) for
// the grid.
func Inputs(s config.ScenarioConfig, T []float64) [][]float64 {
	U := make([][]float64, 3)
	for i := range U {
		U[i] = make([]float64, len(T))
	}
	for k, t := range T {
		U[0][k] = s.Vref
		U[1][k] = float64(s.Gear)
		U[2][k] = HillProfile(t, s.HillTime, s.Ramp, s.GradeDeg)
	}
	return U
}

// Run executes the full pipeline: build, trim on flat road, integrate
// under the slope disturbance, score. Any stage failure aborts the run;
// a bad trim point would poison everything downstream.
func Run(cfg *config.Config) (*Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sys, err := loop.Cruise(cfg.VehicleParams(), cfg.Controller.Kp, cfg.Controller.Ki)
	if err != nil {
		return nil, err
	}
	vIdx, err := sys.FindOutput("v")
	if err != nil {
		return nil, err
	}
	uIdx, err := sys.FindOutput("u")
	if err != nil {
		return nil, err
	}

	s := cfg.Scenario
	T := Grid(s.Horizon, s.Samples)
	U := Inputs(s, T)

	// Trim on flat road with gear and slope held, reference free and
	// the velocity output pinned.
	pt, err := trim.Find(sys,
		sim.State{s.Vref, 0},
		sim.Input{s.Vref, float64(s.Gear), 0},
		trim.Spec{
			FixedInputs:   []int{1, 2},
			TargetOutputs: map[int]float64{vIdx: s.Vref},
			Tol:           cfg.Solver.TrimTol,
			MaxIter:       cfg.Solver.MaxIter,
		})
	if err != nil {
		return nil, fmt.Errorf("scenario: trim: %w", err)
	}

	integ, err := pickIntegrator(cfg.Solver.Integrator)
	if err != nil {
		return nil, err
	}
	res, err := integrators.Response(sys, T, U, pt.X, integrators.Options{
		Integrator: integ,
		Tol:        cfg.Solver.Tol,
		MaxStages:  cfg.Solver.MaxStages,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario: response: %w", err)
	}

	scores := metrics.Evaluate(res.T, res.Y[vIdx], res.Y[uIdx], metrics.Default(s.Vref))

	return &Outcome{
		Loop:    sys,
		Trim:    pt,
		Result:  res,
		Inputs:  U,
		Metrics: scores,
		VIdx:    vIdx,
		UIdx:    uIdx,
	}, nil
}

func pickIntegrator(name string) (integrators.Integrator, error) {
	switch name {
	case "", "rk45":
		return integrators.NewRK45(), nil
	case "rk4":
		return integrators.NewRK4(), nil
	case "euler":
		return integrators.NewEuler(), nil
	default:
		return nil, fmt.Errorf("scenario: unknown integrator %q", name)
	}
}
