package cloudvar_client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments a session. Pass one through Options; a nil
// *Metrics disables instrumentation, every helper is nil-safe.
type Metrics struct {
	Opens           prometheus.Counter
	Closes          prometheus.Counter
	TransportErrors prometheus.Counter
	PacketsSent     prometheus.Counter
	PacketsReceived prometheus.Counter
	RejectedSets    prometheus.Counter
	QueueDepth      prometheus.Gauge
	Variables       prometheus.Gauge
}

// NewMetrics registers the session metrics with reg under the
// cloudvar_ prefix.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Opens: factory.NewCounter(prometheus.CounterOpts{
			Name: "cloudvar_opens_total",
			Help: "Connections opened, including reconnects.",
		}),
		Closes: factory.NewCounter(prometheus.CounterOpts{
			Name: "cloudvar_closes_total",
			Help: "Connections closed, for any reason.",
		}),
		TransportErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "cloudvar_transport_errors_total",
			Help: "Dial, write, and read failures.",
		}),
		PacketsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "cloudvar_packets_sent_total",
			Help: "Packets written to the transport.",
		}),
		PacketsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "cloudvar_packets_received_total",
			Help: "Well-formed packets decoded from inbound frames.",
		}),
		RejectedSets: factory.NewCounter(prometheus.CounterOpts{
			Name: "cloudvar_rejected_sets_total",
			Help: "Local writes dropped by value validation.",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cloudvar_queue_depth",
			Help: "Packets waiting for a connection.",
		}),
		Variables: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cloudvar_variables",
			Help: "Variables currently tracked.",
		}),
	}
}

func (m *Metrics) incOpens() {
	if m != nil {
		m.Opens.Inc()
	}
}

func (m *Metrics) incCloses() {
	if m != nil {
		m.Closes.Inc()
	}
}

func (m *Metrics) incTransportErrors() {
	if m != nil {
		m.TransportErrors.Inc()
	}
}

func (m *Metrics) addSent(n int) {
	if m != nil {
		m.PacketsSent.Add(float64(n))
	}
}

func (m *Metrics) addReceived(n int) {
	if m != nil {
		m.PacketsReceived.Add(float64(n))
	}
}

func (m *Metrics) incRejectedSets() {
	if m != nil {
		m.RejectedSets.Inc()
	}
}

func (m *Metrics) setQueueDepth(n int) {
	if m != nil {
		m.QueueDepth.Set(float64(n))
	}
}

func (m *Metrics) setVariables(n int) {
	if m != nil {
		m.Variables.Set(float64(n))
	}
}
