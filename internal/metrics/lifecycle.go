package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hookah_session_transitions_total",
		Help: "Session action attempts by action kind and outcome",
	}, []string{"action", "outcome"}) // outcome=accepted|rejected

	sessionRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hookah_session_rejections_total",
		Help: "Rejected session actions by rejection code",
	}, []string{"code"})

	auditSinkErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hookah_audit_sink_errors_total",
		Help: "Audit entries a sink failed to record",
	}, []string{"sink"})

	sessionsSeeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hookah_sessions_seeded_total",
		Help: "Demo sessions generated by seeding",
	})
)

// RecordTransition counts one action attempt.
func RecordTransition(action, outcome string) {
	sessionTransitionsTotal.WithLabelValues(action, outcome).Inc()
}

func RecordRejection(code string) {
	sessionRejectionsTotal.WithLabelValues(code).Inc()
}

func RecordAuditSinkError(sink string) {
	auditSinkErrorsTotal.WithLabelValues(sink).Inc()
}

func RecordSeeded(n int) {
	sessionsSeeded.Add(float64(n))
}
