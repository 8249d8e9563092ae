package tf

import "fmt"

// Default speed-controller gains.
const (
	DefaultKp = 0.5
	DefaultKi = 0.1
)

// SpeedController builds the cruise compensator
//
//	         Kp s + Ki
//	C(s) = --------------
//	        s + 0.01 Ki/Kp
//
// a PI law with the integrator pole shifted slightly off the origin so
// the realization stays well conditioned. Input port "u" is the tracking
// error, output port "y" the throttle command.
func SpeedController(kp, ki float64) (*StateSpace, error) {
	if kp <= 0 || ki <= 0 {
		return nil, fmt.Errorf("tf: controller gains must be positive, got kp=%g ki=%g", kp, ki)
	}
	g := TransferFunction{
		Num: []float64{kp, ki},
		Den: []float64{1, 0.01 * ki / kp},
	}
	return g.Realize("u", "y")
}
