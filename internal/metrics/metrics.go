// Package metrics defines the custom Prometheus metrics for the acquisitions
// service. It is the single source of truth for metric names and labels;
// HTTP-level metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "acquisitions"

// AuthAttemptsTotal counts authentication attempts by outcome.
// Label:
//   - result: "success", "invalid_credentials", or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of sign-in attempts, labelled by result.",
	},
	[]string{"result"},
)

// UserMutationsTotal counts successful writes to the users table.
// Label:
//   - op: "create", "update", or "delete"
var UserMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_mutations_total",
		Help:      "Total number of successful user create/update/delete operations.",
	},
	[]string{"op"},
)
