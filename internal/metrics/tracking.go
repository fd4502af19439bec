package metrics

import (
	"math"

	"github.com/san-kum/velctl/internal/agent"
	"github.com/san-kum/velctl/internal/control"
)

// TrackingError is the RMS velocity error over all ticks and environments.
type TrackingError struct {
	name    string
	sumSq   float64
	samples int
}

func NewTrackingError() *TrackingError {
	return &TrackingError{
		name: "tracking_error",
	}
}

func (e *TrackingError) Name() string {
	return e.name
}

func (e *TrackingError) Observe(tick int, t float64, a *agent.Agent, ctrl *control.VelocityController) {
	desired, current := a.DesiredVelocity(), a.Velocity()
	for env := 0; env < current.Rows; env++ {
		d, v := desired.Row(env), current.Row(env)
		for k := range v {
			diff := d[k] - v[k]
			e.sumSq += diff * diff
		}
		e.samples++
	}
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return math.Sqrt(e.sumSq / float64(e.samples))
}

func (e *TrackingError) Reset() {
	e.sumSq = 0
	e.samples = 0
}
