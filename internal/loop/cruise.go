package loop

import (
	"github.com/nmoray/cruisesim/internal/tf"
	"github.com/nmoray/cruisesim/internal/vehicle"
)

// Cruise wires the vehicle and the speed controller into the cruise
// loop. The controller consumes vref minus measured velocity (the
// external reference sums into the same port as the negative velocity
// feedback) and drives the vehicle throttle.
//
// External inputs: vref, gear, theta. External outputs: v (measured
// velocity) and u (throttle command entering the vehicle, pre-clamp).
func Cruise(p vehicle.Params, kp, ki float64) (*Loop, error) {
	veh, err := vehicle.New(p)
	if err != nil {
		return nil, err
	}
	ctl, err := tf.SpeedController(kp, ki)
	if err != nil {
		return nil, err
	}

	return NewBuilder().
		Add("vehicle", veh).
		Add("control", ctl).
		Connect("control.u", "vehicle.v", -1).
		Connect("vehicle.u", "control.y", 1).
		MapInput("vref", "control.u").
		MapInput("gear", "vehicle.gear").
		MapInput("theta", "vehicle.theta").
		MapOutput("v", "vehicle.v").
		MapOutput("u", "vehicle.u").
		Build()
}
