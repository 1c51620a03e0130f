// Package metrics provides observability for the game server. Counters
// and gauges are registered with the default Prometheus registry and
// served by the promhttp handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	gamesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cb2_games_active",
		Help: "Number of game drivers currently running.",
	})
	gamesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cb2_games_total",
		Help: "Total game drivers ever started.",
	})
	messagesIn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cb2_messages_in_total",
		Help: "Inbound envelopes applied to state machines.",
	})
	messagesOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cb2_messages_out_total",
		Help: "Outbound envelopes produced by state machines.",
	})
	eventsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cb2_events_written_total",
		Help: "Event records persisted to storage.",
	})
	eventWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cb2_event_write_errors_total",
		Help: "Failed event record writes.",
	})
	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cb2_ws_connections",
		Help: "Active WebSocket connections.",
	})
)

// RecordGameStarted notes a driver goroutine starting.
func RecordGameStarted() {
	gamesActive.Inc()
	gamesTotal.Inc()
}

// RecordGameEnded notes a driver goroutine exiting.
func RecordGameEnded() {
	gamesActive.Dec()
}

// RecordMessageIn counts one applied inbound envelope.
func RecordMessageIn() {
	messagesIn.Inc()
}

// RecordMessageOut counts one produced outbound envelope.
func RecordMessageOut() {
	messagesOut.Inc()
}

// RecordEventWrite counts one event persistence attempt.
func RecordEventWrite(err error) {
	eventsWritten.Inc()
	if err != nil {
		eventWriteErrors.Inc()
	}
}

// RecordWSConnection tracks WebSocket connection changes.
func RecordWSConnection(delta float64) {
	wsConnections.Add(delta)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
