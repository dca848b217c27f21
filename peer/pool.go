package peer

import (
	"net"
	"sync"

	"github.com/ethereum/go-ethereum/metrics"
)

var metricPoolBusy = metrics.NewRegisteredGauge("peer/pool/busy", nil)

// Pool is a fixed-size worker pool dispatching accepted connections to a
// handler, replacing the original's ConnectionThread array plus
// round-robin in_use_ probe (spec.md's Design Notes call that probe out:
// "a bounded task queue plus worker tasks expresses the same contract
// without the probe"). Connections queue on a buffered channel instead of
// spinning for an idle slot.
type Pool struct {
	jobs chan net.Conn
	wg   sync.WaitGroup
}

// NewPool starts workers goroutines, each running handle for every
// connection submitted via Submit until Close.
func NewPool(workers int, handle func(net.Conn)) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{jobs: make(chan net.Conn, workers*4)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for conn := range p.jobs {
				metricPoolBusy.Inc(1)
				handle(conn)
				metricPoolBusy.Dec(1)
			}
		}()
	}
	return p
}

// Submit queues conn for handling by the next free worker, blocking if
// every worker and the queue are both busy — the queue-depth-bounded
// analogue of "at least one slot is guaranteed free" from the original's
// probe loop.
func (p *Pool) Submit(conn net.Conn) {
	p.jobs <- conn
}

// Close stops accepting new work and waits for in-flight handlers to
// finish.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
