package rtudp

import "github.com/prometheus/client_golang/prometheus"

// metricsMirror optionally republishes an Endpoint's stats block as
// Prometheus metrics, labeled by endpoint identity. It is read-only: the
// underlying stats block remains the source of truth returned by
// Endpoint.Stats.
type metricsMirror struct {
	endpoint string

	packetsReq       *prometheus.GaugeVec
	packetsSent      *prometheus.GaugeVec
	packetsRec       *prometheus.GaugeVec
	rxDropped        *prometheus.GaugeVec
	txDropped        *prometheus.GaugeVec
	sendTicks        *prometheus.GaugeVec
	recTicks         *prometheus.GaugeVec
	immediatePackets *prometheus.GaugeVec
	maxLatencyNS     *prometheus.GaugeVec
	minLatencyNS     *prometheus.GaugeVec
	avgLatencyNS     *prometheus.GaugeVec
}

func newMetricsMirror(reg prometheus.Registerer, e *Endpoint) *metricsMirror {
	newGaugeVec := func(name, help string) *prometheus.GaugeVec {
		gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rtudp",
			Name:      name,
			Help:      help,
		}, []string{"endpoint"})
		reg.MustRegister(gv)
		return gv
	}

	m := &metricsMirror{
		endpoint:         e.String(),
		packetsReq:       newGaugeVec("packets_requested_total", "Packets accepted by send_data."),
		packetsSent:      newGaugeVec("packets_sent_total", "Packets successfully dispatched."),
		packetsRec:       newGaugeVec("packets_received_total", "Packets delivered to the caller."),
		rxDropped:        newGaugeVec("rx_packets_dropped_total", "Inbound packets dropped for capacity."),
		txDropped:        newGaugeVec("tx_packets_dropped_total", "Outbound packets dropped by the transport."),
		sendTicks:        newGaugeVec("send_ticks_total", "Dispatcher loop iterations."),
		recTicks:         newGaugeVec("recv_ticks_total", "Reader loop iterations."),
		immediatePackets: newGaugeVec("immediate_packets_total", "Packets dispatched past their deadline."),
		maxLatencyNS:     newGaugeVec("max_latency_ns", "Maximum observed scheduling-slack latency."),
		minLatencyNS:     newGaugeVec("min_latency_ns", "Minimum observed scheduling-slack latency."),
		avgLatencyNS:     newGaugeVec("avg_latency_ns", "Average observed scheduling-slack latency."),
	}
	return m
}

// refresh pushes a fresh snapshot onto the registered gauges. Callers that
// enable WithPrometheus should call this periodically (e.g. on a ticker)
// or before a scrape; it is not wired to a background ticker here since
// scrape cadence is an operator concern, not a core RtUdp responsibility.
func (m *metricsMirror) refresh(s Stats) {
	m.packetsReq.WithLabelValues(m.endpoint).Set(float64(s.NPacketsReq))
	m.packetsSent.WithLabelValues(m.endpoint).Set(float64(s.NPacketsSent))
	m.packetsRec.WithLabelValues(m.endpoint).Set(float64(s.NPacketsRec))
	m.rxDropped.WithLabelValues(m.endpoint).Set(float64(s.NRxPacketsDropped))
	m.txDropped.WithLabelValues(m.endpoint).Set(float64(s.NTxPacketsDropped))
	m.sendTicks.WithLabelValues(m.endpoint).Set(float64(s.NSendTicks))
	m.recTicks.WithLabelValues(m.endpoint).Set(float64(s.NRecTicks))
	m.immediatePackets.WithLabelValues(m.endpoint).Set(float64(s.NImmediatePackets))
	m.maxLatencyNS.WithLabelValues(m.endpoint).Set(float64(s.MaxLatencyNS))
	m.minLatencyNS.WithLabelValues(m.endpoint).Set(float64(s.MinLatencyNS))
	m.avgLatencyNS.WithLabelValues(m.endpoint).Set(float64(s.AvgLatencyNS))
}

// RefreshMetrics pushes the current stats snapshot onto the Prometheus
// mirror registered via WithPrometheus. It is a no-op if no registerer
// was supplied at construction.
func (e *Endpoint) RefreshMetrics() {
	if e.metrics != nil {
		e.metrics.refresh(e.stats.snapshot())
	}
}
