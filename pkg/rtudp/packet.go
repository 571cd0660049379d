package rtudp

import "time"

// ScheduledPacket is an outbound packet tagged with the deadline at which
// the caller wants it to leave. Ordered strictly by DeadlineNS ascending;
// ties are broken by insertion order.
type ScheduledPacket struct {
	DeadlineNS int64
	Payload    []byte

	seq uint64 // monotonically increasing insertion sequence, for tie-break
}

// DeliveredPacket is an inbound packet stamped with its arrival time: the
// dispatcher's handoff-to-transport time on the sender side, or the
// reader's socket-read time on the receiver side.
type DeliveredPacket struct {
	Payload   []byte
	ArrivalNS int64
}

// ArrivalTime returns ArrivalNS as a time.Time for display convenience.
func (p DeliveredPacket) ArrivalTime() time.Time {
	return time.Unix(0, p.ArrivalNS)
}
