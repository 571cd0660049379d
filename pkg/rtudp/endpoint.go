package rtudp

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

// Endpoint is a configured local/remote address pair with its own workers
// and statistics. Construct with New, then call Init, Start, the
// send/receive methods, Stop, and Close in that order; Init may be called
// again after Close.
type Endpoint struct {
	cfg   Config
	log   *slog.Logger
	clock clockwork.Clock

	stats     stats
	outbox    *outbox
	inbox     *inbox
	transport transport

	mu          sync.Mutex // guards direction latch + lifecycle flags below
	initialized bool
	directionLatched bool

	running atomic.Bool
	fatal   atomic.Bool
	fatalErr atomic.Pointer[error]

	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics *metricsMirror
}

// Option configures an Endpoint at construction time.
type Option func(*Endpoint)

// WithLogger sets the logger used for drop/error/lifecycle diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(e *Endpoint) { e.log = log }
}

// WithClock overrides the clock, primarily for deterministic tests via
// clockwork.NewFakeClock().
func WithClock(clock clockwork.Clock) Option {
	return func(e *Endpoint) { e.clock = clock }
}

// WithPrometheus mirrors this endpoint's stats onto reg when non-nil.
// Disabled by default.
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(e *Endpoint) {
		if reg != nil {
			e.metrics = newMetricsMirror(reg, e)
		}
	}
}

// New validates cfg and constructs an Endpoint. It does not allocate the
// inbox or open any transport; call Init for that.
func New(cfg Config, opts ...Option) (*Endpoint, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	e := &Endpoint{
		cfg:   cfg,
		log:   slog.Default(),
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Init allocates the inbox, registering it in the emulation registry or
// opening the socket depending on the configured backend.
func (e *Endpoint) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return ErrAlreadyInitialized
	}

	switch e.cfg.Backend {
	case BackendEmulated:
		tr, ib := newEmulatedTransport(&e.cfg, e.clock, &e.stats)
		e.transport = tr
		e.inbox = ib
	case BackendSocket:
		tr, err := newSocketTransport(ctx, &e.cfg, e.clock, &e.stats)
		if err != nil {
			return err
		}
		e.transport = tr
		e.inbox = newInbox(int(e.cfg.Capacity))
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, e.cfg.Backend)
	}

	e.outbox = newOutbox()
	e.initialized = true
	e.fatal.Store(false)
	return nil
}

// Close idempotently releases the socket (socket backend); the inbox
// persists in the registry for the emulated backend.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil
	}
	e.initialized = false
	e.directionLatched = false
	if e.transport != nil {
		return e.transport.close()
	}
	return nil
}

// SetDirection changes which workers Start will spawn. Valid only before
// Start latches the direction.
func (e *Endpoint) SetDirection(d Direction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.directionLatched {
		return fmt.Errorf("%w: direction already latched by Start", ErrInvalidConfig)
	}
	if d != DirectionSend && d != DirectionRecv && d != DirectionFull {
		return fmt.Errorf("%w: unknown direction %d", ErrInvalidConfig, d)
	}
	e.cfg.Direction = d
	return nil
}

// Start spawns the dispatcher (direction send/full) and, for the socket
// backend, the reader (direction recv/full), then latches the direction.
func (e *Endpoint) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ErrNotInitialized
	}
	if e.running.Load() {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running.Store(true)
	e.directionLatched = true

	if e.cfg.Direction == DirectionSend || e.cfg.Direction == DirectionFull {
		e.wg.Add(1)
		go e.runDispatcher()
	}
	if _, isSocket := e.transport.(*socketTransport); isSocket {
		if e.cfg.Direction == DirectionRecv || e.cfg.Direction == DirectionFull {
			e.wg.Add(1)
			go e.runReader(ctx)
		}
	}
	return nil
}

// Stop signals workers to exit, discards residual outbox entries, and
// joins workers with a bounded timeout.
func (e *Endpoint) Stop() error {
	e.mu.Lock()
	if !e.running.Load() {
		e.mu.Unlock()
		return nil
	}
	e.running.Store(false)
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()

	// Wake a dispatcher waiting on the outbox; the reader exits once its
	// current socket read times out.
	e.outbox.cond.Broadcast()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(defaultJoinTimeout):
		e.log.Warn("rtudp: workers did not exit within join timeout")
	}

	e.outbox.clear()
	return nil
}

// SendData enqueues payload for immediate dispatch (deadline = now).
func (e *Endpoint) SendData(payload []byte) error {
	return e.SendDataAt(payload, e.clock.Now().UnixNano())
}

// SendDataAt enqueues payload for dispatch no earlier than deadlineNS.
func (e *Endpoint) SendDataAt(payload []byte, deadlineNS int64) error {
	e.mu.Lock()
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}
	if e.fatal.Load() {
		return e.fatalError()
	}

	e.stats.nPacketsReq.Add(1)
	e.outbox.push(ScheduledPacket{DeadlineNS: deadlineNS, Payload: payload})
	return nil
}

// ReceiveData blocks for up to timeout for a packet, returning ErrTimeout
// on expiry.
func (e *Endpoint) ReceiveData(timeout time.Duration) (DeliveredPacket, error) {
	e.mu.Lock()
	initialized := e.initialized
	e.mu.Unlock()
	if !initialized {
		return DeliveredPacket{}, ErrNotInitialized
	}

	pkt, err := e.inbox.get(timeout)
	if err != nil {
		return DeliveredPacket{}, err
	}
	e.stats.nPacketsRec.Add(1)
	return pkt, nil
}

// ReceiveBatch collects exactly n packets against a shared deadline. If
// fewer than n arrive before timeout elapses, it returns ErrTimeout and no
// packets: the caller is responsible for draining any packets left
// sitting in the inbox.
func (e *Endpoint) ReceiveBatch(n int, timeout time.Duration) ([]DeliveredPacket, error) {
	deadline := time.Now().Add(timeout)
	batch := make([]DeliveredPacket, 0, n)
	for len(batch) < n {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrTimeout
		}
		pkt, err := e.ReceiveData(remaining)
		if err != nil {
			return nil, err
		}
		batch = append(batch, pkt)
	}
	return batch, nil
}

// Stats returns a snapshot of this endpoint's counters and derived
// latency statistics.
func (e *Endpoint) Stats() Stats {
	return e.stats.snapshot()
}

// SendLength reports the current outbox length.
func (e *Endpoint) SendLength() int {
	if e.outbox == nil {
		return 0
	}
	return e.outbox.len()
}

// ReceiveLength reports the current inbox length.
func (e *Endpoint) ReceiveLength() int {
	if e.inbox == nil {
		return 0
	}
	return e.inbox.size()
}

// IsRunning reports whether Start has been called without a matching Stop.
func (e *Endpoint) IsRunning() bool {
	return e.running.Load()
}

// Purge clears both the outbox and the inbox.
func (e *Endpoint) Purge() {
	if e.outbox != nil {
		e.outbox.clear()
	}
	if e.inbox != nil {
		e.inbox.clear()
	}
}

// Hash returns an identity hash derived from (local_ip, local_port,
// remote_ip, remote_port); two endpoints constructed with the same
// quadruple hash equal.
func (e *Endpoint) Hash() uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%d>%s:%d", e.cfg.LocalIP, e.cfg.LocalPort, e.cfg.RemoteIP, e.cfg.RemotePort)
	return h.Sum64()
}

// String returns a human-readable representation including direction and
// local address.
func (e *Endpoint) String() string {
	return fmt.Sprintf("rtudp.Endpoint{direction=%s, local=%s, remote=%s, backend=%s}",
		e.cfg.Direction, e.cfg.local(), e.cfg.remote(), e.cfg.Backend)
}

func (e *Endpoint) markFatal(err error) {
	e.fatal.Store(true)
	wrapped := fmt.Errorf("%w: %v", ErrTransportFatal, err)
	e.fatalErr.Store(&wrapped)
	e.log.Error("rtudp: fatal transport error", "endpoint", e.String(), "error", err)
}

func (e *Endpoint) fatalError() error {
	if p := e.fatalErr.Load(); p != nil {
		return *p
	}
	return ErrTransportFatal
}
