package rtudp

import (
	"encoding/binary"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newEmulatedPair(t *testing.T, a, b Addr, capacityB uint32) (*Endpoint, *Endpoint) {
	t.Helper()

	cfgA := *DefaultConfig()
	cfgA.LocalIP, cfgA.LocalPort = a.IP, a.Port
	cfgA.RemoteIP, cfgA.RemotePort = b.IP, b.Port
	cfgA.Direction = DirectionSend
	cfgA.Backend = BackendEmulated

	cfgB := *DefaultConfig()
	cfgB.LocalIP, cfgB.LocalPort = b.IP, b.Port
	cfgB.RemoteIP, cfgB.RemotePort = a.IP, a.Port
	cfgB.Direction = DirectionRecv
	cfgB.Backend = BackendEmulated
	if capacityB > 0 {
		cfgB.Capacity = capacityB
	}

	epA, err := New(cfgA)
	require.NoError(t, err)
	epB, err := New(cfgB)
	require.NoError(t, err)

	require.NoError(t, epA.Init(t.Context()))
	require.NoError(t, epB.Init(t.Context()))
	require.NoError(t, epA.Start())
	require.NoError(t, epB.Start())

	t.Cleanup(func() {
		epA.Stop()
		epB.Stop()
		epA.Close()
		epB.Close()
	})

	return epA, epB
}

// Single-shot send/receive.
func TestEndpoint_SingleShot(t *testing.T) {
	a := Addr{IP: "127.0.0.10", Port: 5000}
	b := Addr{IP: "127.0.0.20", Port: 5001}
	epA, epB := newEmulatedPair(t, a, b, 0)

	require.NoError(t, epA.SendData([]byte{0x01, 0x02}))

	pkt, err := epB.ReceiveData(time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, pkt.Payload)

	require.Eventually(t, func() bool {
		return epA.Stats().NPacketsSent == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, int64(1), epB.Stats().NPacketsRec)
}

// Scheduled burst, trimmed to 100 packets to keep
// the test fast while still exercising deadline-ordered dispatch.
func TestEndpoint_ScheduledBurst(t *testing.T) {
	a := Addr{IP: "127.0.0.11", Port: 5000}
	b := Addr{IP: "127.0.0.21", Port: 5001}
	epA, epB := newEmulatedPair(t, a, b, 0)

	const n = 100
	t0 := time.Now().Add(5 * time.Millisecond).UnixNano()
	for i := 0; i < n; i++ {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(i))
		deadline := t0 + int64(20_000*i)
		require.NoError(t, epA.SendDataAt(buf, deadline))
	}

	var received []uint64
	for {
		pkt, err := epB.ReceiveData(100 * time.Millisecond)
		if err != nil {
			require.ErrorIs(t, err, ErrTimeout)
			break
		}
		received = append(received, binary.BigEndian.Uint64(pkt.Payload))
	}

	require.LessOrEqual(t, len(received), n)
	for i, v := range received {
		require.Equal(t, uint64(i), v, "order must be preserved")
	}

	stats := epA.Stats()
	require.Equal(t, stats.NPacketsSent+stats.NTxPacketsDropped, int64(n))
	require.GreaterOrEqual(t, stats.MaxLatencyNS, int64(0))
}

// Capacity drop under a flood of immediate sends.
func TestEndpoint_CapacityDrop(t *testing.T) {
	a := Addr{IP: "127.0.0.12", Port: 5000}
	b := Addr{IP: "127.0.0.22", Port: 5001}
	epA, epB := newEmulatedPair(t, a, b, 4)

	for i := 0; i < 1000; i++ {
		require.NoError(t, epA.SendData([]byte{byte(i)}))
		require.LessOrEqual(t, epB.ReceiveLength(), 4, "inbox size must never exceed capacity")
	}

	require.Eventually(t, func() bool {
		s := epA.Stats()
		return s.NPacketsSent+s.NTxPacketsDropped == 1000
	}, 2*time.Second, time.Millisecond)

	stats := epA.Stats()
	require.GreaterOrEqual(t, stats.NTxPacketsDropped, int64(996))
}

// Receive timeout against an empty inbox.
func TestEndpoint_ReceiveTimeout(t *testing.T) {
	a := Addr{IP: "127.0.0.13", Port: 5000}
	b := Addr{IP: "127.0.0.23", Port: 5001}
	_, epB := newEmulatedPair(t, a, b, 0)

	start := time.Now()
	_, err := epB.ReceiveData(time.Millisecond)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTimeout)
	require.GreaterOrEqual(t, elapsed, time.Millisecond)
	require.Less(t, elapsed, 50*time.Millisecond)
}

// Batch receive is all-or-nothing.
func TestEndpoint_ReceiveBatch_AllOrNothing(t *testing.T) {
	a := Addr{IP: "127.0.0.14", Port: 5000}
	b := Addr{IP: "127.0.0.24", Port: 5001}
	epA, epB := newEmulatedPair(t, a, b, 0)

	for i := 0; i < 3; i++ {
		require.NoError(t, epA.SendData([]byte{byte(i)}))
	}

	_, err := epB.ReceiveBatch(5, 200*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	// The 3 delivered packets are still sitting in B's inbox; the caller
	// is responsible for draining them.
	require.Eventually(t, func() bool {
		return epB.ReceiveLength() == 3
	}, time.Second, time.Millisecond)
}

// Bidirectional full-duplex exchange.
func TestEndpoint_Bidirectional(t *testing.T) {
	a := Addr{IP: "127.0.0.15", Port: 5000}
	b := Addr{IP: "127.0.0.25", Port: 5001}

	cfgA := *DefaultConfig()
	cfgA.LocalIP, cfgA.LocalPort = a.IP, a.Port
	cfgA.RemoteIP, cfgA.RemotePort = b.IP, b.Port
	cfgA.Direction = DirectionFull
	cfgA.Backend = BackendEmulated

	cfgB := *DefaultConfig()
	cfgB.LocalIP, cfgB.LocalPort = b.IP, b.Port
	cfgB.RemoteIP, cfgB.RemotePort = a.IP, a.Port
	cfgB.Direction = DirectionFull
	cfgB.Backend = BackendEmulated

	epA, err := New(cfgA)
	require.NoError(t, err)
	epB, err := New(cfgB)
	require.NoError(t, err)

	require.NoError(t, epA.Init(t.Context()))
	require.NoError(t, epB.Init(t.Context()))
	require.NoError(t, epA.Start())
	require.NoError(t, epB.Start())
	t.Cleanup(func() {
		epA.Stop()
		epB.Stop()
		epA.Close()
		epB.Close()
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, epA.SendData([]byte(fmt.Sprintf("a-%d", i))))
		require.NoError(t, epB.SendData([]byte(fmt.Sprintf("b-%d", i))))
	}

	for i := 0; i < 5; i++ {
		pkt, err := epB.ReceiveData(time.Second)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("a-%d", i), string(pkt.Payload))

		pkt, err = epA.ReceiveData(time.Second)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("b-%d", i), string(pkt.Payload))
	}
}

func TestEndpoint_Lifecycle(t *testing.T) {
	cfg := *DefaultConfig()
	cfg.LocalIP, cfg.LocalPort = "127.0.0.30", 6000
	cfg.RemoteIP, cfg.RemotePort = "127.0.0.31", 6001
	cfg.Backend = BackendEmulated

	ep, err := New(cfg)
	require.NoError(t, err)

	require.ErrorIs(t, ep.SendData(nil), ErrNotInitialized)
	require.ErrorIs(t, ep.Start(), ErrNotInitialized)

	require.NoError(t, ep.Init(t.Context()))
	require.ErrorIs(t, ep.Init(t.Context()), ErrAlreadyInitialized)

	require.NoError(t, ep.Start())
	require.ErrorIs(t, ep.Start(), ErrAlreadyRunning)

	// stop/close are idempotent.
	require.NoError(t, ep.Stop())
	require.NoError(t, ep.Stop())
	require.NoError(t, ep.Close())
	require.NoError(t, ep.Close())

	// Re-init after close is permitted.
	require.NoError(t, ep.Init(t.Context()))
	require.NoError(t, ep.Close())
}

func TestEndpoint_Identity(t *testing.T) {
	cfg1 := *DefaultConfig()
	cfg1.LocalIP, cfg1.LocalPort = "10.0.0.1", 1
	cfg1.RemoteIP, cfg1.RemotePort = "10.0.0.2", 2
	cfg1.Backend = BackendEmulated

	cfg2 := cfg1 // identical quadruple

	cfg3 := cfg1
	cfg3.RemotePort = 3 // different quadruple

	ep1, err := New(cfg1)
	require.NoError(t, err)
	ep2, err := New(cfg2)
	require.NoError(t, err)
	ep3, err := New(cfg3)
	require.NoError(t, err)

	require.Equal(t, ep1.Hash(), ep2.Hash(), "identical quadruples hash equal")
	require.NotEqual(t, ep1.Hash(), ep3.Hash())
}

func TestEndpoint_SetDirection_LatchesAtStart(t *testing.T) {
	cfg := *DefaultConfig()
	cfg.LocalIP, cfg.LocalPort = "127.0.0.40", 7000
	cfg.RemoteIP, cfg.RemotePort = "127.0.0.41", 7001
	cfg.Backend = BackendEmulated

	ep, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, ep.Init(t.Context()))

	require.NoError(t, ep.SetDirection(DirectionFull))
	require.NoError(t, ep.Start())
	t.Cleanup(func() { ep.Stop(); ep.Close() })

	err = ep.SetDirection(DirectionSend)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
