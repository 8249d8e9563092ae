package integrators

import (
	"fmt"
	"math"

	"github.com/nmoray/cruisesim/internal/sim"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the Dormand-Prince 4(5) embedded pair with step-size control.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Step(sys sim.System, x sim.State, f Forcing, t, dt float64) (sim.State, error) {
	next, _, _, err := r.attempt(sys, x, f, t, dt)
	return next, err
}

// attempt takes a single trial step, returning the fifth-order solution,
// the max scaled error estimate and the suggested next step size.
func (r *RK45) attempt(sys sim.System, x sim.State, f Forcing, t, dt float64) (sim.State, float64, float64, error) {
	n := len(x)
	stage := func(xs sim.State, ts float64) (sim.State, error) {
		return sys.Derivative(xs, f(ts), ts)
	}

	k1, err := stage(x, t)
	if err != nil {
		return nil, 0, 0, err
	}

	xs := make(sim.State, n)
	for i := 0; i < n; i++ {
		xs[i] = x[i] + dt*b21*k1[i]
	}
	k2, err := stage(xs, t+a2*dt)
	if err != nil {
		return nil, 0, 0, err
	}

	for i := 0; i < n; i++ {
		xs[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3, err := stage(xs, t+a3*dt)
	if err != nil {
		return nil, 0, 0, err
	}

	for i := 0; i < n; i++ {
		xs[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4, err := stage(xs, t+a4*dt)
	if err != nil {
		return nil, 0, 0, err
	}

	for i := 0; i < n; i++ {
		xs[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5, err := stage(xs, t+a5*dt)
	if err != nil {
		return nil, 0, 0, err
	}

	for i := 0; i < n; i++ {
		xs[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6, err := stage(xs, t+dt)
	if err != nil {
		return nil, 0, 0, err
	}

	next := make(sim.State, n)
	for i := 0; i < n; i++ {
		next[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7, err := stage(next, t+dt)
	if err != nil {
		return nil, 0, 0, err
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(x[i]) + math.Abs(dt*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}
	return next, errMax, dt, nil
}

// Advance integrates from t0 to t1, accepting and rejecting trial steps
// until the local error fits tol. The stage budget bounds runtime on
// pathological dynamics.
func (r *RK45) Advance(sys sim.System, x sim.State, f Forcing, t0, t1, tol float64, budget int) (sim.State, error) {
	if tol <= 0 {
		tol = 1e-8
	}
	t := t0
	dt := t1 - t0
	cur := x.Clone()

	for t < t1 {
		if budget <= 0 {
			return nil, &sim.StepError{Time: t, Wrapped: fmt.Errorf("sim: step budget exhausted")}
		}
		budget--

		if dt > t1-t {
			dt = t1 - t
		}
		next, errMax, _, err := r.attempt(sys, cur, f, t, dt)
		if err != nil {
			return nil, &sim.StepError{Time: t, Wrapped: err}
		}
		if !next.IsValid() {
			return nil, &sim.StepError{Time: t, Wrapped: sim.ErrNonFinite}
		}

		errRatio := errMax / tol
		if errRatio <= 1 {
			t += dt
			cur = next
			if errRatio > 0 {
				dt *= math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			} else {
				dt *= r.maxScale
			}
		} else {
			dt *= math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		}
	}
	return cur, nil
}
