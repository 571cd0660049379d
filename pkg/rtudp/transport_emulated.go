package rtudp

import (
	"context"

	"github.com/jonboulle/clockwork"
)

// emulatedTransport resolves the peer's inbox via the process-global
// registry and writes into it directly, producing semantics
// indistinguishable to the caller from the socket backend.
type emulatedTransport struct {
	local  Addr
	remote Addr
	clock  clockwork.Clock
	stats  *stats
}

func newEmulatedTransport(cfg *Config, clock clockwork.Clock, st *stats) (*emulatedTransport, *inbox) {
	local := cfg.local()
	remote := cfg.remote()
	ownInbox := globalRegistry.getOrCreate(local, int(cfg.Capacity))
	return &emulatedTransport{
		local:  local,
		remote: remote,
		clock:  clock,
		stats:  st,
	}, ownInbox
}

func (t *emulatedTransport) send(payload []byte) (bool, error) {
	peer := globalRegistry.getOrCreate(t.remote, defaultCapacityForUnknownPeer)
	pkt := DeliveredPacket{
		Payload:   payload,
		ArrivalNS: t.clock.Now().UnixNano(),
	}
	if !peer.tryPut(pkt) {
		t.stats.nTxDropped.Add(1)
		return false, nil
	}
	return true, nil
}

// recvInto is a no-op for the emulated backend: the endpoint's own inbox
// is filled directly by peers' send calls above. The reader worker is
// never spawned for this backend, so this is never called in practice.
func (t *emulatedTransport) recvInto(ctx context.Context, ib *inbox) error {
	return nil
}

func (t *emulatedTransport) close() error {
	return nil
}

func (t *emulatedTransport) localAddr() Addr {
	return t.local
}

// defaultCapacityForUnknownPeer is used when the emulated transport's send
// path is the first to ever reference a remote address: the first caller's
// capacity fixes the inbox size.
const defaultCapacityForUnknownPeer = DefaultCapacity
