package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsActive tracks currently registered WebSocket connections.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "teamflow",
		Subsystem: "relay",
		Name:      "connections_active",
		Help:      "Number of live WebSocket connections.",
	})

	// RoomsActive tracks live rooms per flavor (workspace, board).
	RoomsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "teamflow",
		Subsystem: "relay",
		Name:      "rooms_active",
		Help:      "Number of live rooms per flavor.",
	}, []string{"flavor"})

	// BroadcastsTotal counts room fan-outs by message type.
	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "teamflow",
		Subsystem: "relay",
		Name:      "broadcasts_total",
		Help:      "Total room broadcasts by message type.",
	}, []string{"type"})

	// SendsDropped counts messages dropped because a recipient's send buffer
	// was full.
	SendsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "teamflow",
		Subsystem: "relay",
		Name:      "sends_dropped_total",
		Help:      "Total messages dropped due to a full per-connection send buffer.",
	})
)

// Handler exposes Prometheus metrics at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
