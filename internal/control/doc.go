// Package control provides the per-agent velocity-tracking PID controller.
//
// A [VelocityController] reads an [Agent]'s desired and current velocity,
// computes a corrective force, clamps it to the agent's limits and writes it
// back. Gains are fixed at construction and may be given in either of two
// parameterizations:
//
//   - [FormStandard]: [kP, Ti, Td] with time constants in timestep units
//   - [FormParallel]: [kP, kI, kD] with Ti = kP/kI and Td = kD/kP
//
// # Usage
//
//	ctrl, err := control.NewVelocityController(a, 0.1, [3]float64{1, 5, 0}, control.FormStandard)
//	if err != nil {
//		return err
//	}
//	// once per tick, in tick order
//	if err := ctrl.ProcessForce(); err != nil {
//		return err
//	}
//
// # Batching
//
// Integral and derivative state carry one slot per element of the agent's
// velocity batch, so a single controller can serve every environment of a
// vectorized simulation without mixing their histories.
//
// A controller is not safe for concurrent use. Distinct controllers share no
// state and may be driven from different goroutines.
package control
