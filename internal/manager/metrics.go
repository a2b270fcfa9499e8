package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	stateGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wearrelay",
			Subsystem: "session",
			Name:      "state",
			Help:      "Current drone session state (0=not_started 1=starting 2=started 3=interrupted 4=destroyed)",
		},
	)

	pendingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wearrelay",
			Subsystem: "session",
			Name:      "pending_commands",
			Help:      "Commands waiting for the drone session to start",
		},
	)

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wearrelay",
			Subsystem: "session",
			Name:      "commands_executed_total",
			Help:      "Drone commands executed",
		},
		[]string{"kind"},
	)

	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wearrelay",
			Subsystem: "session",
			Name:      "actions_total",
			Help:      "Inbound actions received",
		},
		[]string{"action"},
	)

	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wearrelay",
			Subsystem: "session",
			Name:      "companion_messages_total",
			Help:      "Messages handed to the companion transport",
		},
		[]string{"result"},
	)

	watchdogShutdowns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wearrelay",
			Subsystem: "session",
			Name:      "watchdog_shutdowns_total",
			Help:      "Relay shutdowns triggered by the idle watchdog",
		},
	)

	connectionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wearrelay",
			Subsystem: "session",
			Name:      "connection_failures_total",
			Help:      "Vehicle connection failures reported by the drone client",
		},
	)
)

func init() {
	prometheus.MustRegister(stateGauge, pendingGauge, commandsTotal, actionsTotal, messagesTotal, watchdogShutdowns, connectionFailures)
}
