package hub

import (
	"bufio"
	"dominicbreuker/lannet/pkg/codec"
	"dominicbreuker/lannet/pkg/metrics"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

const (
	inboxSize = 64
	// closeWriteTimeout bounds writing the close notice to a stuck peer.
	closeWriteTimeout = 2 * time.Second
)

type streamState int32

const (
	statePending streamState = iota
	stateOpen
	stateClosedLocal
	stateClosedRemote
	stateLost
)

// inbound is one result of the reader goroutine.
type inbound struct {
	msg codec.Message
	err error
}

// stream is a handshaken connection. Reads happen on a dedicated goroutine
// that hands decoded frames to the dispatcher through inbox; writes happen
// on any goroutine under wmu. The first transition out of stateOpen wins
// and closes the connection.
type stream struct {
	conn    net.Conn
	role    metrics.Role
	metrics *metrics.Metrics

	state atomic.Int32

	wmu sync.Mutex

	inbox     chan inbound
	done      chan struct{}
	closeOnce sync.Once
}

func newStream(conn net.Conn, role metrics.Role, m *metrics.Metrics) *stream {
	return &stream{
		conn:    conn,
		role:    role,
		metrics: m,
		inbox:   make(chan inbound, inboxSize),
		done:    make(chan struct{}),
	}
}

// start opens the stream and begins reading. notify is called whenever the
// inbox received something.
func (s *stream) start(limits codec.Limits, notify func()) {
	s.state.Store(int32(stateOpen))
	s.metrics.ConnectionOpened(s.role)
	go s.read(limits, notify)
}

func (s *stream) read(limits codec.Limits, notify func()) {
	br := bufio.NewReader(s.conn)
	for {
		msg, err := codec.ReadMessage(br, limits)
		if err != nil && s.current() != stateOpen {
			return
		}

		select {
		case s.inbox <- inbound{msg: msg, err: err}:
		case <-s.done:
			return
		}
		notify()

		if err != nil && !codec.Recoverable(err) {
			return
		}
		if err == nil && codec.IsClose(msg) {
			return
		}
	}
}

func (s *stream) current() streamState {
	return streamState(s.state.Load())
}

func (s *stream) isOpen() bool {
	return s.current() == stateOpen
}

// next returns the oldest unhandled read result without blocking.
func (s *stream) next() (inbound, bool) {
	select {
	case in := <-s.inbox:
		return in, true
	default:
		return inbound{}, false
	}
}

// transition moves an open stream to state and closes the connection. It
// reports whether this call made the transition.
func (s *stream) transition(state streamState) bool {
	if !s.state.CompareAndSwap(int32(stateOpen), int32(state)) {
		return false
	}
	s.finish()
	return true
}

func (s *stream) finish() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
		s.metrics.ConnectionClosed(s.role)
	})
}

// send writes one frame.
func (s *stream) send(m codec.Message) error {
	if !s.isOpen() {
		return ErrConnectionClosed
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	// a close frame may have been written while we waited
	if !s.isOpen() {
		return ErrConnectionClosed
	}

	if err := codec.WriteMessage(s.conn, m); err != nil {
		return fmt.Errorf("codec.WriteMessage(%s): %w", m.Tag(), err)
	}
	s.metrics.MessageSent(m.Tag())
	return nil
}

// shutdown sends the close frame for reason and closes the stream locally.
// The close frame is best effort; the stream is closed either way.
func (s *stream) shutdown(reason string) error {
	if !s.state.CompareAndSwap(int32(stateOpen), int32(stateClosedLocal)) {
		return ErrConnectionClosed
	}
	defer s.finish()

	m := codec.Close(reason)

	s.wmu.Lock()
	defer s.wmu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(closeWriteTimeout))
	if err := codec.WriteMessage(s.conn, m); err != nil {
		return fmt.Errorf("codec.WriteMessage(%s): %w", m.Tag(), err)
	}
	s.metrics.MessageSent(m.Tag())
	return nil
}

// abort closes a stream that never opened or is already closed.
func (s *stream) abort() {
	s.state.CompareAndSwap(int32(statePending), int32(stateClosedLocal))
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}
