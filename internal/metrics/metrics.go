package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registryRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_registry_refresh_total",
			Help: "Company access registry refreshes by result.",
		},
		[]string{"result"},
	)

	guardTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_guard_transitions_total",
			Help: "Access guard state transitions by target state.",
		},
		[]string{"to"},
	)

	permissionDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_permission_decisions_total",
			Help: "Permission engine decisions by action and outcome.",
		},
		[]string{"action", "allowed"},
	)

	gatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_gateway_requests_total",
			Help: "Job gateway operations by op and result.",
		},
		[]string{"op", "result"},
	)
)

// Init registers the collectors with the default registry. Call once at startup.
func Init() {
	prometheus.MustRegister(
		registryRefreshTotal,
		guardTransitionsTotal,
		permissionDecisionsTotal,
		gatewayRequestsTotal,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func RegistryRefresh(result string) {
	registryRefreshTotal.WithLabelValues(result).Inc()
}

func GuardTransition(to string) {
	guardTransitionsTotal.WithLabelValues(to).Inc()
}

func PermissionDecision(action string, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	permissionDecisionsTotal.WithLabelValues(action, outcome).Inc()
}

func GatewayRequest(op, result string) {
	gatewayRequestsTotal.WithLabelValues(op, result).Inc()
}
