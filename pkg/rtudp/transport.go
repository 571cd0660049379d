package rtudp

import "context"

// transport is the single contract both backends (socket, emulated)
// satisfy. The façade holds exactly one instance; there is no dynamic
// dispatch beyond this interface.
type transport interface {
	// send delivers payload toward the configured remote address. A
	// returned ok=false means the packet was dropped (queue full,
	// transient kernel error), never a fatal error.
	send(payload []byte) (ok bool, err error)

	// recvInto drains the transport's receive path into ib. For the
	// socket backend this reads from the kernel; for the emulated
	// backend this is a no-op (peers write into ib directly via the
	// registry).
	recvInto(ctx context.Context, ib *inbox) error

	// close releases any transport-owned resources (e.g. the socket).
	// Idempotent.
	close() error

	// localAddr reports the address this transport is bound/registered to.
	localAddr() Addr
}
