package rtudp

import "errors"

var (
	// ErrNotInitialized is returned by send/recv/start operations when init()
	// has not been called, or close() has already been called.
	ErrNotInitialized = errors.New("rtudp: endpoint not initialized")

	// ErrAlreadyInitialized is returned by Init when called a second time
	// without an intervening Close.
	ErrAlreadyInitialized = errors.New("rtudp: endpoint already initialized")

	// ErrAlreadyRunning is returned by Start when called a second time
	// without an intervening Stop.
	ErrAlreadyRunning = errors.New("rtudp: endpoint already running")

	// ErrTimeout is returned by ReceiveData/ReceiveBatch when no packet
	// becomes available within the requested window.
	ErrTimeout = errors.New("rtudp: receive timeout")

	// ErrTransportFatal wraps an unrecoverable transport error. Once
	// returned, the endpoint is no longer usable and must be closed.
	ErrTransportFatal = errors.New("rtudp: fatal transport error")

	// ErrInvalidConfig is returned by construction when a backend name is
	// unknown or a config field is out of range.
	ErrInvalidConfig = errors.New("rtudp: invalid config")
)
