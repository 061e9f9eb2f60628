package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeApplied  = "applied"
	outcomeNoop     = "noop"
	outcomeRejected = "rejected"
	outcomeInvalid  = "invalid"
	outcomeError    = "error"
)

var (
	// Command executions partitioned by command and outcome
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mail",
			Name:      "commands_total",
			Help:      "Total number of pipeline command executions",
		},
		[]string{"command", "outcome"},
	)

	// Messages materialized by broadcast fanout
	broadcastMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mail",
			Name:      "broadcast_messages_total",
			Help:      "Total number of messages created by broadcasts",
		},
	)
)

// observe records the outcome of one command execution
func observe(command string, result *CommandResult, err error) {
	var outcome string
	switch {
	case err != nil && IsValidationError(err):
		outcome = outcomeInvalid
	case err != nil, result == nil:
		outcome = outcomeError
	default:
		outcome = result.outcome()
	}
	commandsTotal.WithLabelValues(command, outcome).Inc()
}
