package rtudp

import (
	"time"
)

// runDispatcher drains ready outbox entries and hands them to the
// transport, updating stats, until running reports false.
func (e *Endpoint) runDispatcher() {
	defer e.wg.Done()

	if e.cfg.CPU >= 0 {
		_ = pinToCPU(e.cfg.CPU)
	}

	for e.running.Load() {
		e.stats.nSendTicks.Add(1)

		// Step 2: bounded wait so a push (or stop) is observed promptly
		// even while the outbox is empty.
		e.outbox.waitTimeout(defaultWaitPoll)
		if !e.running.Load() {
			return
		}

		now := e.clock.Now().UnixNano()
		for {
			pkt, ok := e.outbox.popReady(now)
			if !ok {
				break
			}
			immediate := pkt.DeadlineNS < now
			ok, err := e.transport.send(pkt.Payload)
			if err != nil {
				e.markFatal(err)
				return
			}
			if ok {
				latency := now - pkt.DeadlineNS
				e.stats.recordDispatch(latency, immediate)
			}
		}

		if !e.running.Load() {
			return
		}

		if deadline, ok := e.outbox.peekDeadline(); ok {
			now = e.clock.Now().UnixNano()
			sleep := time.Duration(deadline-now) * time.Nanosecond
			if sleep > 0 {
				e.outbox.waitTimeout(sleep)
			}
		}
	}
}
