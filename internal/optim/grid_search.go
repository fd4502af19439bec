// Package optim searches controller gains against run metrics.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/san-kum/velctl/internal/agent"
	"github.com/san-kum/velctl/internal/config"
	"github.com/san-kum/velctl/internal/control"
	"github.com/san-kum/velctl/internal/sim"
)

var ErrEmptyGrid = errors.New("optim: empty grid")

// GridSearch evaluates every combination of the three gain ranges in one
// form and keeps the setting with the lowest mean metric across agents.
// Settings the controller rejects are skipped. Per-agent overrides in the
// scenario are left in place.
type GridSearch struct {
	form   control.Form
	ranges [3][]float64
	batch  int
}

type Candidate struct {
	Setting config.ControllerConfig
	Score   float64
}

func NewGridSearch(form control.Form, kp, p1, p2 []float64) *GridSearch {
	return &GridSearch{form: form, ranges: [3][]float64{kp, p1, p2}, batch: 16}
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func (g *GridSearch) settings() []config.ControllerConfig {
	var out []config.ControllerConfig
	for _, kp := range g.ranges[0] {
		for _, p1 := range g.ranges[1] {
			for _, p2 := range g.ranges[2] {
				out = append(out, config.ControllerConfig{Form: g.form, Params: [3]float64{kp, p1, p2}})
			}
		}
	}
	return out
}

// Search runs the accepted settings in parallel batches through a sim.Sweep
// and returns every evaluated candidate along with the best one.
func (g *GridSearch) Search(ctx context.Context, r *sim.Runner, cfg *config.Config, metricName string) (Candidate, []Candidate, error) {
	accepted := lo.Filter(g.settings(), func(s config.ControllerConfig, _ int) bool {
		return accepts(s, cfg.Dt, cfg.Dim)
	})
	if len(accepted) == 0 {
		return Candidate{}, nil, ErrEmptyGrid
	}

	best := Candidate{Score: math.Inf(1)}
	evaluated := make([]Candidate, 0, len(accepted))

	for _, chunk := range lo.Chunk(accepted, g.batch) {
		results, err := sim.NewSweep(r, chunk).Run(ctx, cfg)
		if err != nil {
			return best, evaluated, err
		}
		for i, res := range results {
			score, ok := meanMetric(res, metricName)
			if !ok {
				return best, evaluated, fmt.Errorf("optim: metric %q not recorded", metricName)
			}
			c := Candidate{Setting: chunk[i], Score: score}
			evaluated = append(evaluated, c)
			if score < best.Score {
				best = c
			}
		}
	}

	return best, evaluated, nil
}

// accepts reports whether the controller can be built from s.
func accepts(s config.ControllerConfig, dt float64, dim int) bool {
	probe := agent.New("probe", 1, dim, 1)
	_, err := control.NewVelocityController(probe, dt, s.Params, s.Form)
	return err == nil
}

func meanMetric(res *sim.Result, name string) (float64, bool) {
	sum := 0.0
	for _, agent := range res.Agents {
		v, ok := res.Metrics[agent][name]
		if !ok {
			return 0, false
		}
		sum += v
	}
	return sum / float64(len(res.Agents)), true
}
