// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DialogueRounds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dialogue_rounds_total",
			Help: "Total number of request/response exchanges with the estimation service",
		},
	)

	CollaboratorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collaborator_calls_total",
			Help: "Total number of calls to external collaborators by outcome",
		},
		[]string{"call", "status"},
	)

	CollaboratorCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "collaborator_call_duration_seconds",
			Help: "Duration of external collaborator calls in seconds",
		},
		[]string{"call"},
	)

	TranscriptAutosaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcript_autosaves_total",
			Help: "Total number of debounced transcript saves by outcome",
		},
		[]string{"status"},
	)

	DeferredCompletions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deferred_completions",
			Help: "Completion payloads buffered while contact info is incomplete",
		},
	)
)

// Collaborator call label values.
const (
	CallEstimate   = "estimate"
	CallArtifact   = "artifact"
	CallLead       = "lead"
	CallTranscript = "transcript"
	CallPackage    = "package"

	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ObserveCall records outcome and duration for one collaborator call.
func ObserveCall(call string, seconds float64, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	CollaboratorCalls.WithLabelValues(call, status).Inc()
	CollaboratorCallDuration.WithLabelValues(call).Observe(seconds)
}
