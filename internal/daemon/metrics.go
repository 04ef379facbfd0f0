package daemon

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics lives on its own registry so tests can build many services.
type metrics struct {
	registry      *prometheus.Registry
	percentage    prometheus.Gauge
	attended      prometheus.Gauge
	total         prometheus.Gauge
	classesNeeded *prometheus.GaugeVec
	pollErrors    prometheus.Counter
	polls         prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		percentage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netra_attendance_percentage",
			Help: "Overall attendance percentage from the last successful poll.",
		}),
		attended: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netra_attendance_attended",
			Help: "Classes attended.",
		}),
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netra_attendance_total",
			Help: "Classes held.",
		}),
		classesNeeded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netra_attendance_classes_needed",
			Help: "Consecutive classes needed to reach the target.",
		}, []string{"target"}),
		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netra_poll_errors_total",
			Help: "Polls that failed to produce a snapshot.",
		}),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netra_polls_total",
			Help: "Successful polls.",
		}),
	}
	m.registry.MustRegister(m.percentage, m.attended, m.total, m.classesNeeded, m.pollErrors, m.polls)
	return m
}

func (m *metrics) observe(s Snapshot) {
	m.polls.Inc()
	m.percentage.Set(s.Percentage)
	m.attended.Set(float64(s.Attended))
	m.total.Set(float64(s.Total))
	m.classesNeeded.WithLabelValues(formatTarget(s.Target)).Set(float64(s.ClassesNeeded))
}

func formatTarget(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
