// Package monitor exposes the prometheus instrumentation. Counters live in
// the default registry; the metrics server is started separately from the
// API server so scrapes never compete with user traffic.
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WorkflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdghub_workflow_transitions_total",
		Help: "Project workflow transitions by kind and outcome.",
	}, []string{"kind", "outcome"})

	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdghub_token_refreshes_total",
		Help: "Refresh token rotations by outcome.",
	}, []string{"outcome"})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdghub_logins_total",
		Help: "Successful logins by method.",
	}, []string{"method"})
)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Handler serves the scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
