package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder exposes case workflow counters on the default prometheus
// registry, served by the /metrics endpoint.
type Recorder struct {
	transitions *prometheus.CounterVec
	created     prometheus.Counter
}

// NewRecorder registers the workflow metrics.
func NewRecorder() *Recorder {
	r := &Recorder{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labflow_case_transitions_total",
			Help: "Number of executed case status transitions.",
		}, []string{"from_status", "to_status"}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labflow_cases_created_total",
			Help: "Number of cases created at reception.",
		}),
	}
	prometheus.MustRegister(r.transitions, r.created)
	return r
}

// RecordTransition counts one executed transition.
func (r *Recorder) RecordTransition(fromStatus, toStatus string) {
	r.transitions.WithLabelValues(fromStatus, toStatus).Inc()
}

// RecordCaseCreated counts one case intake.
func (r *Recorder) RecordCaseCreated() {
	r.created.Inc()
}
