// Package metrics counts what a run compiled and executed. The collectors
// live in a private registry that can be written to a node_exporter
// textfile when the run ends.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/mitext/internal/diag"
	"github.com/specialistvlad/mitext/internal/script"
)

// Metrics holds the collectors of one run.
type Metrics struct {
	Registry *prometheus.Registry

	Lines    prometheus.Counter
	Commands *prometheus.CounterVec
	Errors   *prometheus.CounterVec
	Execute  prometheus.Histogram
}

// New registers a fresh set of collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Lines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mitext_lines_total",
			Help: "Content lines read from text scripts.",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mitext_commands_total",
			Help: "Completed commands compiled, by call.",
		}, []string{"call"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mitext_errors_total",
			Help: "Errors reported, by kind.",
		}, []string{"kind"}),
		Execute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mitext_execute_seconds",
			Help:    "Time spent executing population scripts.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.Registry.MustRegister(m.Lines, m.Commands, m.Errors, m.Execute)
	return m
}

// ObserveScript counts the lines read and the completed commands of s.
func (m *Metrics) ObserveScript(lines int, s *script.Script) {
	m.Lines.Add(float64(lines))
	for _, c := range s.Completed() {
		m.Commands.WithLabelValues(c.Call).Inc()
	}
}

// ObserveError counts err under its kind; errors outside the taxonomy
// count as "other".
func (m *Metrics) ObserveError(err error) {
	if err == nil {
		return
	}
	kind := "other"
	if k := diag.KindOf(err); k != 0 {
		kind = k.String()
	}
	m.Errors.WithLabelValues(kind).Inc()
}

// ObserveExecute records how long an execution took.
func (m *Metrics) ObserveExecute(d time.Duration) {
	m.Execute.Observe(d.Seconds())
}

// WriteTextfile writes every collector to path in the text exposition
// format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
