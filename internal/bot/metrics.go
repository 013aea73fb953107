package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_handled_total",
			Help: "Number of handled bot commands, differentiated by command.",
		},
		[]string{"command"},
	)

	commandsDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_denied_total",
			Help: "Number of denied bot commands, differentiated by command and deny reason.",
		},
		[]string{"command", "reason"},
	)

	handlerPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_handler_panics_total",
			Help: "Number of recovered handler panics.",
		},
	)
)
