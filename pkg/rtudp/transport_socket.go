package rtudp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jonboulle/clockwork"
)

// socketTransport is the real kernel UDP socket backend. It owns a
// *net.UDPConn; the reader reads from it and the dispatcher writes to it,
// both safe for concurrent use on the same connection.
type socketTransport struct {
	conn       *net.UDPConn
	remote     *net.UDPAddr
	connected  bool // true when cfg.Connect: Write/Read need no explicit addr
	readTimeout time.Duration
	clock      clockwork.Clock
	stats      *stats
	name       string
}

func newSocketTransport(ctx context.Context, cfg *Config, clock clockwork.Clock, st *stats) (*socketTransport, error) {
	localAddr, err := net.ResolveUDPAddr("udp", cfg.local().String())
	if err != nil {
		return nil, fmt.Errorf("%w: resolve local addr: %v", ErrTransportFatal, err)
	}
	remoteAddr, err := net.ResolveUDPAddr("udp", cfg.remote().String())
	if err != nil {
		return nil, fmt.Errorf("%w: resolve remote addr: %v", ErrTransportFatal, err)
	}

	var conn *net.UDPConn
	connected := false

	switch {
	case cfg.Connect:
		d := net.Dialer{LocalAddr: localAddr, Control: reuseAddrControl}
		c, err := d.DialContext(ctx, "udp", remoteAddr.String())
		if err != nil {
			return nil, fmt.Errorf("%w: dial: %v", ErrTransportFatal, err)
		}
		conn = c.(*net.UDPConn)
		connected = true

	case cfg.Bind:
		lc := net.ListenConfig{Control: reuseAddrControl}
		pc, err := lc.ListenPacket(ctx, "udp", localAddr.String())
		if err != nil {
			return nil, fmt.Errorf("%w: listen: %v", ErrTransportFatal, err)
		}
		conn = pc.(*net.UDPConn)

	default:
		pc, err := net.ListenUDP("udp", nil)
		if err != nil {
			return nil, fmt.Errorf("%w: listen ephemeral: %v", ErrTransportFatal, err)
		}
		conn = pc
	}

	return &socketTransport{
		conn:        conn,
		remote:      remoteAddr,
		connected:   connected,
		readTimeout: defaultSocketReadTimeout,
		clock:       clock,
		stats:       st,
		name:        cfg.Name,
	}, nil
}

func (t *socketTransport) send(payload []byte) (bool, error) {
	var err error
	if t.connected {
		_, err = t.conn.Write(payload)
	} else {
		_, err = t.conn.WriteToUDP(payload, t.remote)
	}
	if err == nil {
		return true, nil
	}
	if isTransientSendErr(err) {
		t.stats.nTxDropped.Add(1)
		return false, nil
	}
	return false, fmt.Errorf("%w: %s send: %v", ErrTransportFatal, t.name, err)
}

// recvInto performs a single bounded read and deposits the result into ib,
// timestamping with the transport's clock. It returns promptly on timeout
// or interruption.
func (t *socketTransport) recvInto(ctx context.Context, ib *inbox) error {
	deadline := time.Now().Add(t.readTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		if isClosedErr(err) {
			return nil
		}
		return fmt.Errorf("%w: %s set read deadline: %v", ErrTransportFatal, t.name, err)
	}

	buf := make([]byte, 65535)
	n, err := t.conn.Read(buf)
	if err != nil {
		if isTimeoutErr(err) {
			return nil
		}
		if isClosedErr(err) {
			return nil
		}
		return fmt.Errorf("%w: %s read: %v", ErrTransportFatal, t.name, err)
	}

	arrival := t.clock.Now().UnixNano()
	payload := make([]byte, n)
	copy(payload, buf[:n])

	if !ib.tryPut(DeliveredPacket{Payload: payload, ArrivalNS: arrival}) {
		t.stats.nRxDropped.Add(1)
	}
	return nil
}

func (t *socketTransport) close() error {
	if err := t.conn.Close(); err != nil && !isClosedErr(err) {
		return err
	}
	return nil
}

func (t *socketTransport) localAddr() Addr {
	addr := t.conn.LocalAddr().(*net.UDPAddr)
	ip := addr.IP.String()
	if addr.IP == nil || addr.IP.IsUnspecified() {
		ip = "0.0.0.0"
	}
	return Addr{IP: ip, Port: uint16(addr.Port)}
}

func isTimeoutErr(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

// isTransientSendErr reports whether err represents a transient kernel
// condition (EAGAIN/ENOBUFS-class) that should be counted as a drop rather
// than surfaced as fatal. Timeout is the portable case; EAGAIN/ENOBUFS
// detection is platform-specific (see transport_socket_linux.go /
// transport_socket_other.go).
func isTransientSendErr(err error) bool {
	return isTimeoutErr(err) || isPlatformTransientSendErr(err)
}
