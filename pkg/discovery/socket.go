package discovery

import (
	"net"
	"sync"
)

const (
	maxDatagram = 65535
	queueSize   = 256
)

// Datagram is one received packet.
type Datagram struct {
	From net.Addr
	Data []byte
}

// Socket reads a packet connection on its own goroutine and queues the
// datagrams for non-blocking retrieval. Datagrams arriving while the queue
// is full are dropped, as the network would.
type Socket struct {
	pc     net.PacketConn
	in     chan Datagram
	notify func()

	closeOnce sync.Once
	closed    chan struct{}

	mu  sync.Mutex
	err error
}

// NewSocket starts reading pc. notify, if not nil, is called after every
// queued datagram.
func NewSocket(pc net.PacketConn, notify func()) *Socket {
	s := &Socket{
		pc:     pc,
		in:     make(chan Datagram, queueSize),
		notify: notify,
		closed: make(chan struct{}),
	}
	go s.read()
	return s
}

func (s *Socket) read() {
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := s.pc.ReadFrom(buf)
		if err != nil {
			select {
			case <-s.closed:
			default:
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			if s.notify != nil {
				s.notify()
			}
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case s.in <- Datagram{From: from, Data: data}:
		default:
		}
		if s.notify != nil {
			s.notify()
		}
	}
}

// Next returns the oldest queued datagram without blocking.
func (s *Socket) Next() (Datagram, bool) {
	select {
	case d := <-s.in:
		return d, true
	default:
		return Datagram{}, false
	}
}

// Err returns the error that stopped the reader, if the socket was not
// closed locally.
func (s *Socket) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// WriteTo sends p to addr.
func (s *Socket) WriteTo(p []byte, addr net.Addr) (int, error) {
	return s.pc.WriteTo(p, addr)
}

// Conn returns the underlying packet connection.
func (s *Socket) Conn() net.PacketConn {
	return s.pc
}

// LocalAddr returns the local address of the socket.
func (s *Socket) LocalAddr() net.Addr {
	return s.pc.LocalAddr()
}

// Close stops the reader and closes the connection.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.pc.Close()
	})
	return err
}
