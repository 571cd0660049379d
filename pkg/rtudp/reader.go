package rtudp

import "context"

// runReader blocks on the socket, depositing packets into the local
// inbox, until running reports false. Socket-only: the emulated backend
// fills its inbox directly via peers' send calls and never spawns this
// worker.
func (e *Endpoint) runReader(ctx context.Context) {
	defer e.wg.Done()

	if e.cfg.CPU >= 0 {
		_ = pinToCPU(e.cfg.CPU)
	}

	for e.running.Load() {
		if err := e.transport.recvInto(ctx, e.inbox); err != nil {
			e.markFatal(err)
			return
		}
		e.stats.nRecTicks.Add(1)
	}
}
