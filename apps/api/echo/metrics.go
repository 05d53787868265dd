package echoapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trezcool/darasa/core/access"
)

var gateDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "darasa_gate_decisions_total",
		Help: "Route authorization gate decisions by kind.",
	},
	[]string{"decision"},
)

func observeGateDecision(kind access.DecisionKind) {
	gateDecisions.WithLabelValues(string(kind)).Inc()
}
