package rtudp

import (
	"container/heap"
	"sync"
	"time"
)

// outbox is a thread-safe priority queue of scheduled packets, ordered by
// DeadlineNS ascending with FIFO tie-break. Pushes signal a condition
// variable the dispatcher waits on.
type outbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	heap   packetHeap
	nextSeq uint64
}

func newOutbox() *outbox {
	ob := &outbox{}
	ob.cond = sync.NewCond(&ob.mu)
	return ob
}

func (ob *outbox) push(pkt ScheduledPacket) {
	ob.mu.Lock()
	pkt.seq = ob.nextSeq
	ob.nextSeq++
	heap.Push(&ob.heap, pkt)
	ob.mu.Unlock()
	ob.cond.Signal()
}

// popReady removes and returns the head packet iff its deadline has
// arrived, i.e. DeadlineNS <= now.
func (ob *outbox) popReady(now int64) (ScheduledPacket, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if len(ob.heap) == 0 || ob.heap[0].DeadlineNS > now {
		return ScheduledPacket{}, false
	}
	pkt := heap.Pop(&ob.heap).(ScheduledPacket)
	return pkt, true
}

// peekDeadline returns the head packet's deadline, if any.
func (ob *outbox) peekDeadline() (int64, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if len(ob.heap) == 0 {
		return 0, false
	}
	return ob.heap[0].DeadlineNS, true
}

func (ob *outbox) len() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return len(ob.heap)
}

func (ob *outbox) clear() {
	ob.mu.Lock()
	ob.heap = ob.heap[:0]
	ob.mu.Unlock()
}

// waitTimeout blocks on the outbox condition variable until either a push
// signals it or d elapses, whichever comes first. This lets the dispatcher
// observe a stop request even while the outbox is empty.
func (ob *outbox) waitTimeout(d time.Duration) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	timer := time.AfterFunc(d, func() {
		ob.mu.Lock()
		ob.cond.Broadcast()
		ob.mu.Unlock()
	})
	defer timer.Stop()

	ob.cond.Wait()
}

// packetHeap implements container/heap.Interface over ScheduledPacket,
// ordered by DeadlineNS ascending with insertion-sequence tie-break.
type packetHeap []ScheduledPacket

func (h packetHeap) Len() int { return len(h) }
func (h packetHeap) Less(i, j int) bool {
	if h[i].DeadlineNS != h[j].DeadlineNS {
		return h[i].DeadlineNS < h[j].DeadlineNS
	}
	return h[i].seq < h[j].seq
}
func (h packetHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *packetHeap) Push(x any) {
	*h = append(*h, x.(ScheduledPacket))
}

func (h *packetHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
