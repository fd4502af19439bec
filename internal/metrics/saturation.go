package metrics

import (
	"math"

	"github.com/san-kum/velctl/internal/agent"
	"github.com/san-kum/velctl/internal/control"
)

const saturationTol = 1e-9

// Saturation is the fraction of (tick, env) samples whose force sits on the
// agent's norm or range limit.
type Saturation struct {
	name      string
	saturated int
	samples   int
}

func NewSaturation() *Saturation {
	return &Saturation{
		name: "force_saturation",
	}
}

func (s *Saturation) Name() string {
	return s.name
}

func (s *Saturation) Observe(tick int, t float64, a *agent.Agent, ctrl *control.VelocityController) {
	f := a.Force()
	maxF, hasMax := a.MaxForce()
	rng, hasRange := a.ForceRange()

	for env := 0; env < f.Rows; env++ {
		s.samples++
		if hasMax && f.RowNorm(env) >= maxF-saturationTol {
			s.saturated++
			continue
		}
		if hasRange {
			for _, v := range f.Row(env) {
				if math.Abs(v) >= rng-saturationTol {
					s.saturated++
					break
				}
			}
		}
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}

// IntegratorSaturation is the fraction of ticks on which any integrator slot
// was pinned at the windup limit.
type IntegratorSaturation struct {
	name    string
	pinned  int
	samples int
}

func NewIntegratorSaturation() *IntegratorSaturation {
	return &IntegratorSaturation{
		name: "integrator_saturation",
	}
}

func (s *IntegratorSaturation) Name() string {
	return s.name
}

func (s *IntegratorSaturation) Observe(tick int, t float64, a *agent.Agent, ctrl *control.VelocityController) {
	s.samples++
	if ctrl.IntegratorSaturated() {
		s.pinned++
	}
}

func (s *IntegratorSaturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.pinned) / float64(s.samples)
}

func (s *IntegratorSaturation) Reset() {
	s.pinned = 0
	s.samples = 0
}
