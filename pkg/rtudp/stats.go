package rtudp

import "sync/atomic"

// stats holds the per-endpoint counters and latency extrema. All fields
// are accessed atomically so workers never take a lock to update them; a
// snapshot may observe a consistent-per-field but not cross-field view.
type stats struct {
	nPacketsReq       atomic.Int64
	nPacketsSent      atomic.Int64
	nPacketsRec       atomic.Int64
	nRxDropped        atomic.Int64
	nTxDropped        atomic.Int64
	nSendTicks        atomic.Int64
	nRecTicks         atomic.Int64
	nImmediatePackets atomic.Int64

	// maxNS/minNS/totalNS accumulate scheduling-slack latency for
	// successfully dispatched packets. minNS is stored as minNS+1 so that
	// the zero value unambiguously means "no sample yet" (min latency
	// surfaces as 0 until the first packet is dispatched).
	maxNS   atomic.Int64
	minNS1  atomic.Int64
	totalNS atomic.Int64
}

// Stats is a point-in-time snapshot returned by Endpoint.Stats.
type Stats struct {
	NPacketsReq        int64 `json:"n_packets_req"`
	NPacketsSent       int64 `json:"n_packets_sent"`
	NPacketsRec        int64 `json:"n_packets_rec"`
	NRxPacketsDropped  int64 `json:"n_rx_packets_dropped"`
	NTxPacketsDropped  int64 `json:"n_tx_packets_dropped"`
	MaxLatencyNS       int64 `json:"max_latency_ns"`
	MinLatencyNS       int64 `json:"min_latency_ns"`
	TotalLatencyNS     int64 `json:"total_latency_ns"`
	AvgLatencyNS       int64 `json:"avg_latency_ns"`
	NSendTicks         int64 `json:"n_send_ticks"`
	NRecTicks          int64 `json:"n_rec_ticks"`
	NImmediatePackets  int64 `json:"n_immediate_packets"`
}

func (s *stats) recordDispatch(latencyNS int64, immediate bool) {
	s.nPacketsSent.Add(1)
	if immediate {
		s.nImmediatePackets.Add(1)
	}
	s.totalNS.Add(latencyNS)

	for {
		cur := s.maxNS.Load()
		if latencyNS <= cur {
			break
		}
		if s.maxNS.CompareAndSwap(cur, latencyNS) {
			break
		}
	}
	for {
		cur := s.minNS1.Load()
		if cur != 0 && latencyNS+1 >= cur {
			break
		}
		if s.minNS1.CompareAndSwap(cur, latencyNS+1) {
			break
		}
	}
}

func (s *stats) snapshot() Stats {
	sent := s.nPacketsSent.Load()
	total := s.totalNS.Load()
	avg := int64(0)
	if sent > 0 {
		avg = total / sent
	}
	minNS := s.minNS1.Load()
	if minNS > 0 {
		minNS--
	}
	return Stats{
		NPacketsReq:       s.nPacketsReq.Load(),
		NPacketsSent:      sent,
		NPacketsRec:       s.nPacketsRec.Load(),
		NRxPacketsDropped: s.nRxDropped.Load(),
		NTxPacketsDropped: s.nTxDropped.Load(),
		MaxLatencyNS:      s.maxNS.Load(),
		MinLatencyNS:      minNS,
		TotalLatencyNS:    total,
		AvgLatencyNS:      avg,
		NSendTicks:        s.nSendTicks.Load(),
		NRecTicks:         s.nRecTicks.Load(),
		NImmediatePackets: s.nImmediatePackets.Load(),
	}
}
