package control

import (
	"fmt"
	"math"

	"github.com/san-kum/velctl/internal/dynamo"
)

// DefaultForceLimit stands in for an agent without a max force when sizing
// the integrator windup limit.
const DefaultForceLimit = 2.0

// Agent is the state a VelocityController reads and writes each tick.
// Velocity batches hold one row per environment and one column per axis.
type Agent interface {
	DesiredVelocity() dynamo.Batch
	Velocity() dynamo.Batch
	Mass() float64
	MaxForce() (float64, bool)
	ForceRange() (float64, bool)
	SetForce(force dynamo.Batch)
}

type VelocityController struct {
	agent Agent
	dt    float64

	gain          float64
	integralTs    float64
	derivativeTs  float64
	useIntegrator bool
	windupLimit   float64

	accumErr dynamo.Batch
	prevErr  dynamo.Batch

	err   dynamo.Batch
	integ dynamo.Batch
	deriv dynamo.Batch
}

func NewVelocityController(a Agent, dt float64, params [3]float64, form Form) (*VelocityController, error) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfiguration, dt)
	}
	for i, p := range params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: ctrl param %d is %g", ErrInvalidConfiguration, i, p)
		}
	}

	kp, ti, td, err := form.TimeConstants(params)
	if err != nil {
		return nil, err
	}

	c := &VelocityController{
		agent:         a,
		dt:            dt,
		gain:          kp,
		integralTs:    ti,
		derivativeTs:  td,
		useIntegrator: ti != 0,
	}

	if c.useIntegrator {
		if kp == 0 {
			return nil, fmt.Errorf("%w: integrator enabled (Ti=%g) with kP = 0", ErrDegenerateGain, ti)
		}
		if kp < 0 || ti < 0 {
			return nil, fmt.Errorf("%w: integrator needs positive kP and Ti, got kP=%g Ti=%g", ErrDegenerateGain, kp, ti)
		}
		fmax, ok := a.MaxForce()
		if !ok {
			fmax = DefaultForceLimit
		}
		// integral contribution is capped at half the force budget
		c.windupLimit = 0.5 * fmax * ti / (dt * kp)
	}

	v := a.Velocity()
	c.accumErr = dynamo.NewBatch(v.Rows, v.Cols)
	c.prevErr = dynamo.NewBatch(v.Rows, v.Cols)
	c.err = dynamo.NewBatch(v.Rows, v.Cols)
	c.integ = dynamo.NewBatch(v.Rows, v.Cols)
	c.deriv = dynamo.NewBatch(v.Rows, v.Cols)

	c.Reset()
	return c, nil
}

// Reset clears integral and derivative state.
func (c *VelocityController) Reset() {
	c.accumErr.Zero()
	c.prevErr.Zero()
}

// integralTerm accumulates dt*err into the clamped error sum and returns
// sum/Ti. It is a no-op returning zeros when the integrator is disabled.
func (c *VelocityController) integralTerm(err dynamo.Batch) dynamo.Batch {
	if !c.useIntegrator {
		c.integ.Zero()
		return c.integ
	}
	for i, e := range err.Data {
		acc := c.accumErr.Data[i] + c.dt*e
		acc = math.Max(-c.windupLimit, math.Min(c.windupLimit, acc))
		c.accumErr.Data[i] = acc
		c.integ.Data[i] = acc / c.integralTs
	}
	return c.integ
}

// derivativeTerm returns Td*(err-prev)/dt and always records err as prev.
func (c *VelocityController) derivativeTerm(err dynamo.Batch) dynamo.Batch {
	for i, e := range err.Data {
		c.deriv.Data[i] = c.derivativeTs * (e - c.prevErr.Data[i]) / c.dt
		c.prevErr.Data[i] = e
	}
	return c.deriv
}

// ProcessForce runs one control tick and writes the clamped force to the
// agent. The returned error is non-nil only when the agent's velocity shape
// no longer matches the controller state, in which case nothing is mutated.
func (c *VelocityController) ProcessForce() error {
	desired := c.agent.DesiredVelocity()
	current := c.agent.Velocity()
	if !desired.SameShape(current) || !current.SameShape(c.accumErr) {
		return fmt.Errorf("%w: desired %dx%d, velocity %dx%d, controller %dx%d", dynamo.ErrDimensionMismatch,
			desired.Rows, desired.Cols, current.Rows, current.Cols, c.accumErr.Rows, c.accumErr.Cols)
	}

	for i := range c.err.Data {
		c.err.Data[i] = desired.Data[i] - current.Data[i]
	}

	integ := c.integralTerm(c.err)
	deriv := c.derivativeTerm(c.err)

	mass := c.agent.Mass()
	force := dynamo.NewBatch(current.Rows, current.Cols)
	for i, e := range c.err.Data {
		force.Data[i] = c.gain * (e + integ.Data[i] + deriv.Data[i]) * mass
	}

	// norm clamp first, per-component range second
	if maxF, ok := c.agent.MaxForce(); ok {
		dynamo.ClampWithNorm(force, maxF)
	}
	if r, ok := c.agent.ForceRange(); ok {
		dynamo.ClampMagnitude(force, r)
	}

	c.agent.SetForce(force)
	return nil
}

func (c *VelocityController) Gain() float64                   { return c.gain }
func (c *VelocityController) IntegralTimeConstant() float64   { return c.integralTs }
func (c *VelocityController) DerivativeTimeConstant() float64 { return c.derivativeTs }
func (c *VelocityController) UsesIntegrator() bool            { return c.useIntegrator }
func (c *VelocityController) WindupLimit() float64            { return c.windupLimit }
func (c *VelocityController) Dt() float64                     { return c.dt }

// AccumulatedError returns a copy of the clamped integral state.
func (c *VelocityController) AccumulatedError() dynamo.Batch { return c.accumErr.Clone() }

// PreviousError returns a copy of the last error seen.
func (c *VelocityController) PreviousError() dynamo.Batch { return c.prevErr.Clone() }

// IntegratorSaturated reports whether any slot is pinned at the windup limit.
func (c *VelocityController) IntegratorSaturated() bool {
	if !c.useIntegrator {
		return false
	}
	return c.accumErr.MaxAbs() >= c.windupLimit
}

// GetParams returns the derived constants for reporting.
func (c *VelocityController) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     c.gain,
		"Ti":     c.integralTs,
		"Td":     c.derivativeTs,
		"Windup": c.windupLimit,
		"Dt":     c.dt,
	}
}
