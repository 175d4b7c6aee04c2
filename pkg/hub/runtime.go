// Package hub runs lannet servers and clients on a single dispatcher
// goroutine.
//
// A Runtime owns four collections swept in a fixed order on every pass:
// servers (finish handshakes, answer discovery probes), server-held
// connections, client-held connections and discovery receivers. Sockets are
// read by per-connection goroutines that wake the dispatcher, so every
// application callback runs on the dispatcher goroutine, one at a time.
package hub

import (
	"dominicbreuker/lannet/pkg/codec"
	"dominicbreuker/lannet/pkg/log"
	"dominicbreuker/lannet/pkg/metrics"
	"sync"
	"time"
)

// idleInterval is how long the dispatcher sleeps when nothing woke it.
const idleInterval = 50 * time.Millisecond

// Runtime is the dispatcher shared by servers and clients. The zero value
// is not usable; create one with NewRuntime.
type Runtime struct {
	logger  *log.Logger
	metrics *metrics.Metrics
	limits  codec.Limits

	servers   registry[*Server]
	peers     registry[*Peer]
	conns     registry[*clientConn]
	receivers registry[*Client]

	wake chan struct{}

	mu       sync.Mutex
	started  bool
	shutdown bool
	done     chan struct{}
	stopped  chan struct{}
}

// NewRuntime creates a runtime. The dispatcher goroutine starts with the
// first registered server or client. logger and m may be nil.
func NewRuntime(logger *log.Logger, m *metrics.Metrics) *Runtime {
	return &Runtime{
		logger:  logger,
		metrics: m,
		limits:  codec.DefaultLimits(),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Metrics returns the metrics the runtime reports to, possibly nil.
func (r *Runtime) Metrics() *metrics.Metrics {
	return r.metrics
}

// ensureRunning starts the dispatcher if needed. It fails once the runtime
// was shut down.
func (r *Runtime) ensureRunning() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shutdown {
		return ErrRuntimeClosed
	}
	if !r.started {
		r.started = true
		go r.run()
	}
	return nil
}

// notify wakes the dispatcher. It never blocks.
func (r *Runtime) notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runtime) run() {
	defer close(r.stopped)

	timer := time.NewTimer(idleInterval)
	defer timer.Stop()

	for {
		busy := r.pass()

		select {
		case <-r.done:
			r.closeAll()
			return
		default:
		}

		if busy {
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(idleInterval)

		select {
		case <-r.done:
			r.closeAll()
			return
		case <-r.wake:
		case <-timer.C:
		}
	}
}

// pass runs one sweep over every collection. It reports whether anything
// was processed, in which case more work may be queued.
func (r *Runtime) pass() bool {
	busy := false

	r.servers.apply()
	for _, s := range r.servers.items {
		if r.guard("server sweep", s.sweep) {
			busy = true
		}
	}
	r.servers.apply()

	r.peers.apply()
	for _, p := range r.peers.items {
		if r.guard("server-held connection", p.poll) {
			busy = true
		}
	}
	r.peers.apply()

	r.conns.apply()
	for _, cc := range r.conns.items {
		if r.guard("client-held connection", cc.poll) {
			busy = true
		}
	}
	r.conns.apply()

	r.receivers.apply()
	for _, c := range r.receivers.items {
		if r.guard("discovery receiver", c.pollDiscovery) {
			busy = true
		}
	}
	r.receivers.apply()

	r.metrics.Pass()
	return busy
}

// guard runs one unit of a sweep. A panic in application code is logged
// and does not stop the pass.
func (r *Runtime) guard(what string, fn func() bool) (busy bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorMsg("%s: recovered panic: %v", what, rec)
		}
	}()
	return fn()
}

// Shutdown closes every server and client of the runtime and stops the
// dispatcher. No callbacks fire for connections closed this way. Shutdown
// does not wait; use Done for that. It is safe to call more than once and
// from a callback.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		return
	}
	r.shutdown = true
	started := r.started
	close(r.done)
	r.mu.Unlock()

	if !started {
		r.closeAll()
		close(r.stopped)
	}
}

// Done is closed once the runtime has shut down.
func (r *Runtime) Done() <-chan struct{} {
	return r.stopped
}

// closeAll closes what is still registered, logging failures.
func (r *Runtime) closeAll() {
	for _, s := range r.servers.drain() {
		if err := s.Close(); err != nil {
			r.logger.VerboseMsg("closing server on port %d: %s", s.Port(), err)
		}
	}
	for _, c := range r.receivers.drain() {
		if err := c.Close(); err != nil {
			r.logger.VerboseMsg("closing client: %s", err)
		}
	}
	for _, cc := range r.conns.drain() {
		cc.s.shutdown("")
	}
	for _, p := range r.peers.drain() {
		p.s.shutdown(ReasonServerClosing)
	}
}
