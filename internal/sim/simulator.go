package sim

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/san-kum/velctl/internal/agent"
	"github.com/san-kum/velctl/internal/config"
	"github.com/san-kum/velctl/internal/dynamo"
)

// Runner drives a set of agents through the ticks of a scenario, calling
// every agent's controller exactly once per tick.
type Runner struct {
	log       logr.Logger
	metrics   []MetricFactory
	observers []Observer
}

func New(log logr.Logger) *Runner {
	return &Runner{
		log:       log,
		metrics:   make([]MetricFactory, 0),
		observers: make([]Observer, 0),
	}
}

func (r *Runner) AddMetric(m MetricFactory) { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer)    { r.observers = append(r.observers, o) }

// Run executes cfg.Ticks ticks. A nil src uses the scenario's trace file or,
// without one, its profiles.
// On cancellation the partial result, metrics included, is returned with the
// context error.
func (r *Runner) Run(ctx context.Context, cfg *config.Config, src Source) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	agents, ctrls, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	if src == nil {
		if src, err = NewSource(cfg); err != nil {
			return nil, err
		}
	}

	metrics := make([][]Metric, len(agents))
	result := &Result{
		Name:    cfg.Name,
		Times:   make([]float64, 0, cfg.Ticks),
		Agents:  make([]string, len(agents)),
		Forces:  make([][]dynamo.Batch, len(agents)),
		Metrics: make(map[string]map[string]float64, len(agents)),
		Params:  make(map[string]map[string]float64, len(agents)),
	}
	for i, a := range agents {
		result.Agents[i] = a.Name
		result.Forces[i] = make([]dynamo.Batch, 0, cfg.Ticks)
		result.Params[a.Name] = ctrls[i].GetParams()
		for _, f := range r.metrics {
			m := f()
			m.Reset()
			metrics[i] = append(metrics[i], m)
		}
		r.log.V(1).Info("controller ready", "agent", a.Name, "params", result.Params[a.Name])
	}

	r.log.Info("run started", "scenario", cfg.Name, "agents", len(agents), "envs", cfg.Envs, "ticks", cfg.Ticks, "dt", cfg.Dt)

	errs := make([]error, len(agents))
	for tick := 0; tick < cfg.Ticks; tick++ {
		select {
		case <-ctx.Done():
			r.log.Info("run canceled", "tick", tick)
			collectMetrics(result, agents, metrics)
			return result, ctx.Err()
		default:
		}

		t := float64(tick) * cfg.Dt

		if err := src.Fill(tick, agents); err != nil {
			return result, &dynamo.SimulationError{Step: tick, Time: t, Wrapped: err}
		}

		dynamo.ParallelFor(len(agents), 1, func(start, end int) {
			for i := start; i < end; i++ {
				errs[i] = ctrls[i].ProcessForce()
			}
		})

		for i, a := range agents {
			if errs[i] != nil {
				return result, &dynamo.SimulationError{Step: tick, Time: t, Agent: a.Name, Wrapped: errs[i]}
			}
			force := a.Force()
			if !force.IsValid() {
				return result, &dynamo.SimulationError{Step: tick, Time: t, Agent: a.Name, Wrapped: dynamo.ErrInvalidState}
			}
			for _, m := range metrics[i] {
				m.Observe(tick, t, a, ctrls[i])
			}
			result.Forces[i] = append(result.Forces[i], force)
		}

		for _, obs := range r.observers {
			obs.OnStep(tick, t, agents, ctrls)
		}

		result.Times = append(result.Times, t)
		result.StepsTaken++
	}

	collectMetrics(result, agents, metrics)

	r.log.Info("run finished", "scenario", cfg.Name, "steps", result.StepsTaken)
	return result, nil
}

func collectMetrics(result *Result, agents []*agent.Agent, metrics [][]Metric) {
	for i, a := range agents {
		values := make(map[string]float64, len(metrics[i]))
		for _, m := range metrics[i] {
			values[m.Name()] = m.Value()
		}
		result.Metrics[a.Name] = values
	}
}

// RunWithCallback runs like Run but hands every tick to callback instead of
// recording it. Returning false from callback stops the run early.
func (r *Runner) RunWithCallback(ctx context.Context, cfg *config.Config, src Source, callback func(tick int, t float64, forces []dynamo.Batch) bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	agents, ctrls, err := Build(cfg)
	if err != nil {
		return err
	}
	if src == nil {
		if src, err = NewSource(cfg); err != nil {
			return err
		}
	}

	forces := make([]dynamo.Batch, len(agents))
	for tick := 0; tick < cfg.Ticks; tick++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := float64(tick) * cfg.Dt
		if err := src.Fill(tick, agents); err != nil {
			return fmt.Errorf("tick %d: %w", tick, err)
		}
		for i, c := range ctrls {
			if err := c.ProcessForce(); err != nil {
				return &dynamo.SimulationError{Step: tick, Time: t, Agent: agents[i].Name, Wrapped: err}
			}
			forces[i] = agents[i].Force()
		}

		if !callback(tick, t, forces) {
			return nil
		}
	}

	return nil
}
