// Package metrics holds the Prometheus collectors of the web front end.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillcred_http_requests_total",
		Help: "Total number of HTTP requests served, by route and status",
	}, []string{"method", "route", "status"})

	backendCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillcred_backend_calls_total",
		Help: "Total number of backend API calls, by operation and outcome",
	}, []string{"operation", "outcome"})

	oauthExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillcred_oauth_exchanges_total",
		Help: "Total number of GitHub authorization code exchanges, by outcome",
	}, []string{"outcome"})
)

// RecordHTTPRequest counts one served request. route is the matched
// route pattern, never the raw path.
func RecordHTTPRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// RecordBackendCall counts one backend call
func RecordBackendCall(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	backendCalls.WithLabelValues(operation, outcome).Inc()
}

// RecordOAuthExchange counts one code exchange attempt
func RecordOAuthExchange(outcome string) {
	oauthExchanges.WithLabelValues(outcome).Inc()
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
