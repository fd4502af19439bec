package control

import "errors"

var (
	// ErrInvalidConfiguration indicates an unknown PID form or unusable
	// construction parameters.
	ErrInvalidConfiguration = errors.New("control: invalid configuration")

	// ErrDegenerateGain indicates a zero proportional gain where the
	// gain conversion or the windup limit would divide by it.
	ErrDegenerateGain = errors.New("control: degenerate proportional gain")
)
