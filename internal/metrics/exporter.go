package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/velctl/internal/agent"
	"github.com/san-kum/velctl/internal/control"
)

const namespace = "velctl"

// Exporter publishes per-agent controller activity as Prometheus metrics.
// It is driven as a run observer and can be dumped to a textfile afterwards.
type Exporter struct {
	registry *prometheus.Registry

	ticks              prometheus.Counter
	forceNorm          *prometheus.GaugeVec
	forceSaturated     *prometheus.CounterVec
	integratorSaturate *prometheus.CounterVec
	accumulatedError   *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Control ticks processed.",
		}),
		forceNorm: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "force_norm",
			Help:      "Largest force norm across environments on the last tick.",
		}, []string{"agent"}),
		forceSaturated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "force_saturated_total",
			Help:      "Ticks on which some environment hit the agent's max force.",
		}, []string{"agent"}),
		integratorSaturate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrator_saturated_total",
			Help:      "Ticks on which the integrator was pinned at its windup limit.",
		}, []string{"agent"}),
		accumulatedError: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accumulated_error_max",
			Help:      "Largest absolute accumulated error on the last tick.",
		}, []string{"agent"}),
	}

	e.registry.MustRegister(e.ticks, e.forceNorm, e.forceSaturated, e.integratorSaturate, e.accumulatedError)
	return e
}

func (e *Exporter) OnStep(tick int, t float64, agents []*agent.Agent, ctrls []*control.VelocityController) {
	e.ticks.Inc()
	for i, a := range agents {
		f := a.Force()
		peak := 0.0
		for env := 0; env < f.Rows; env++ {
			if n := f.RowNorm(env); n > peak {
				peak = n
			}
		}
		e.forceNorm.WithLabelValues(a.Name).Set(peak)

		if maxF, ok := a.MaxForce(); ok && peak >= maxF-saturationTol {
			e.forceSaturated.WithLabelValues(a.Name).Inc()
		}
		if ctrls[i].IntegratorSaturated() {
			e.integratorSaturate.WithLabelValues(a.Name).Inc()
		}
		e.accumulatedError.WithLabelValues(a.Name).Set(ctrls[i].AccumulatedError().MaxAbs())
	}
}

func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// WriteTextfile writes the current metric values in the Prometheus text format.
func (e *Exporter) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, e.registry)
}
