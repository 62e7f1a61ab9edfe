package graph

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsListener records node executions as prometheus metrics.
type MetricsListener struct {
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	steps      prometheus.Counter
}

// NewMetricsListener creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetricsListener(reg prometheus.Registerer) (*MetricsListener, error) {
	m := &MetricsListener{
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmpractice_graph_node_executions_total",
				Help: "Total number of graph node executions by node and status",
			},
			[]string{"node", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llmpractice_graph_node_duration_seconds",
				Help:    "Duration of graph node executions in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"node"},
		),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "llmpractice_graph_steps_total",
			Help: "Total number of completed graph steps",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.executions, m.duration, m.steps} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *MetricsListener) OnNodeStart(context.Context, string, any) {}

func (m *MetricsListener) OnNodeEnd(_ context.Context, node string, _ any, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.executions.WithLabelValues(node, status).Inc()
	m.duration.WithLabelValues(node).Observe(elapsed.Seconds())
}

func (m *MetricsListener) OnStep(context.Context, int, []string, any) {
	m.steps.Inc()
}
