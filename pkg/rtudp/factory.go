package rtudp

// NewPair constructs endpoint A (direction=send, local=a, remote=b) and
// endpoint B (direction=recv, local=b, remote=a) sharing the given
// backend. Callers may call SetDirection afterward to enable full duplex
// on either side before Start.
//
// This is intentionally thin: a convenience wrapper around two ordinary
// New calls with a swapped address pair, not a component in its own right.
func NewPair(a, b Addr, backend Backend, opts ...Option) (sender, receiver *Endpoint, err error) {
	senderCfg := Config{
		LocalIP:    a.IP,
		LocalPort:  a.Port,
		RemoteIP:   b.IP,
		RemotePort: b.Port,
		Direction:  DirectionSend,
		Backend:    backend,
	}
	receiverCfg := Config{
		LocalIP:    b.IP,
		LocalPort:  b.Port,
		RemoteIP:   a.IP,
		RemotePort: a.Port,
		Direction:  DirectionRecv,
		Backend:    backend,
	}

	senderDefaults := DefaultConfig()
	senderCfg.Capacity = senderDefaults.Capacity
	senderCfg.CPU = senderDefaults.CPU
	senderCfg.Timeout = senderDefaults.Timeout
	senderCfg.Bind = senderDefaults.Bind
	senderCfg.Connect = senderDefaults.Connect
	senderCfg.Name = senderDefaults.Name

	receiverDefaults := DefaultConfig()
	receiverCfg.Capacity = receiverDefaults.Capacity
	receiverCfg.CPU = receiverDefaults.CPU
	receiverCfg.Timeout = receiverDefaults.Timeout
	receiverCfg.Bind = receiverDefaults.Bind
	receiverCfg.Connect = receiverDefaults.Connect
	receiverCfg.Name = receiverDefaults.Name

	sender, err = New(senderCfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	receiver, err = New(receiverCfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return sender, receiver, nil
}

// NewBackend validates a backend name and returns it typed, for callers
// (e.g. a CLI flag) that select a backend by string.
func NewBackend(name string) (Backend, error) {
	switch Backend(name) {
	case BackendSocket:
		return BackendSocket, nil
	case BackendEmulated:
		return BackendEmulated, nil
	default:
		return "", ErrInvalidConfig
	}
}
