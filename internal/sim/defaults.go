package sim

import "github.com/san-kum/velctl/internal/metrics"

// DefaultMetrics returns the metrics every CLI run records per agent.
func DefaultMetrics() []MetricFactory {
	return []MetricFactory{
		func() Metric { return metrics.NewControlEffort() },
		func() Metric { return metrics.NewSaturation() },
		func() Metric { return metrics.NewIntegratorSaturation() },
		func() Metric { return metrics.NewTrackingError() },
	}
}
