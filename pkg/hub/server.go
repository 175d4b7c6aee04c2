package hub

import (
	"context"
	"dominicbreuker/lannet/pkg/config"
	"dominicbreuker/lannet/pkg/discovery"
	"dominicbreuker/lannet/pkg/handshake"
	"dominicbreuker/lannet/pkg/joincode"
	"dominicbreuker/lannet/pkg/log"
	"dominicbreuker/lannet/pkg/metrics"
	"dominicbreuker/lannet/pkg/semaphore"
	"dominicbreuker/lannet/pkg/transport"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
)

// Server accepts clients of one application type and, while public,
// answers discovery probes for that type.
type Server struct {
	rt      *Runtime
	handler ServerHandler
	shared  *config.Shared
	cfg     *config.Server

	mu        sync.Mutex
	open      bool
	public    bool
	accepting bool
	port      int
	ln        net.Listener
	stopLn    context.CancelFunc
	sock      *discovery.Socket
	capture   *log.Capture
	roster    []*Peer
	inFlight  map[*Peer]struct{}

	sem     *semaphore.Semaphore
	pending chan net.Conn
	results chan handshakeResult
}

type handshakeResult struct {
	peer *Peer
	err  error
}

// NewServer creates a closed server. shared selects transport, address,
// type id and timeouts; cfg the public flag and pending limit.
func NewServer(rt *Runtime, handler ServerHandler, shared *config.Shared, cfg *config.Server) *Server {
	n := cfg.Pending()
	return &Server{
		rt:      rt,
		handler: handler,
		shared:  shared,
		cfg:     cfg,
		public:  cfg.Public,
		port:    shared.Port,
		sem:     semaphore.New(n),
		pending: make(chan net.Conn, n),
		results: make(chan handshakeResult, n),
	}
}

// Open binds the listener and, for public servers, joins the discovery
// group. The server accepts connections once Open returns.
func (s *Server) Open() error {
	if err := s.rt.ensureRunning(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return nil
	}

	if s.shared.WireLog != "" {
		c, err := log.OpenCapture(s.shared.WireLog)
		if err != nil {
			return fmt.Errorf("log.OpenCapture(%s): %w", s.shared.WireLog, err)
		}
		s.capture = c
	}

	ln, err := s.listen(s.port)
	if err != nil {
		s.closeCapture()
		return err
	}

	if s.public {
		if err := s.openDiscovery(); err != nil {
			ln.Close()
			s.closeCapture()
			return err
		}
	}

	s.drainPending()
	s.inFlight = make(map[*Peer]struct{})
	s.roster = nil

	s.ln = ln
	s.open = true
	s.accepting = true
	s.startAccepting()

	s.rt.servers.add(s)
	s.rt.notify()

	s.logger().VerboseMsg("server listening on %s (%s, type %d, public=%t)", ln.Addr(), s.shared.Protocol, s.shared.TypeID, s.public)
	return nil
}

func (s *Server) logger() *log.Logger {
	return s.rt.logger
}

func (s *Server) listen(port int) (net.Listener, error) {
	addr := net.JoinHostPort(s.shared.Host, strconv.Itoa(port))
	return transport.Listen(s.shared.Protocol, addr, s.shared.Deps)
}

// openDiscovery must be called with s.mu held.
func (s *Server) openDiscovery() error {
	group, err := s.shared.Group()
	if err != nil {
		return err
	}

	ifi, _, err := discovery.UsableInterface()
	if err != nil {
		ifi = nil
	}

	listenFn := config.GetMulticastListenerFunc(s.shared.Deps, discovery.ListenMulticast)
	pc, err := listenFn(group, ifi)
	if err != nil {
		return fmt.Errorf("joining discovery group %s: %w", group, err)
	}

	s.sock = discovery.NewSocket(pc, s.rt.notify)
	return nil
}

// startAccepting runs the accept loop of s.ln. Must be called with s.mu held.
func (s *Server) startAccepting() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopLn = cancel
	go s.acceptLoop(ctx, s.ln, s.capture)
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener, capture *log.Capture) {
	for {
		if err := s.sem.Acquire(ctx); err != nil {
			return
		}

		conn, err := ln.Accept()
		if err != nil {
			s.sem.Release()
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				s.logger().ErrorMsg("Accept(): %s", err)
			}
			return
		}

		select {
		case s.pending <- log.NewLoggedConn(conn, capture):
			s.rt.notify()
		case <-ctx.Done():
			conn.Close()
			s.sem.Release()
			return
		}
	}
}

// SetPublic starts or stops answering discovery probes.
func (s *Server) SetPublic(public bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.public == public {
		return nil
	}
	s.public = public
	if !s.open {
		return nil
	}

	if public {
		if err := s.openDiscovery(); err != nil {
			s.public = false
			return err
		}
		return nil
	}

	s.sock.Close()
	s.sock = nil
	return nil
}

// IsPublic reports whether the server advertises itself.
func (s *Server) IsPublic() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.public
}

// StopAccepting leaves new connections waiting in the listener backlog.
// Established connections are not affected.
func (s *Server) StopAccepting() error {
	return s.setAccepting(false)
}

// ResumeAccepting handshakes waiting and new connections again.
func (s *Server) ResumeAccepting() error {
	return s.setAccepting(true)
}

func (s *Server) setAccepting(accepting bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrServerClosed
	}
	s.accepting = accepting
	s.rt.notify()
	return nil
}

// IsAccepting reports whether new connections are handshaken.
func (s *Server) IsAccepting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open && s.accepting
}

// IsOpen reports whether the server is open.
func (s *Server) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Addr returns the listener address, or nil while closed.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Port returns the bound port while open and the configured port otherwise.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundPort()
}

// boundPort must be called with s.mu held.
func (s *Server) boundPort() int {
	if s.ln != nil {
		if p := portOf(s.ln.Addr()); p != 0 {
			return p
		}
	}
	return s.port
}

func portOf(addr net.Addr) int {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.Port
	case *net.UDPAddr:
		return a.Port
	}
	if addr == nil {
		return 0
	}
	_, p, err := net.SplitHostPort(addr.String())
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(p)
	return port
}

// SetPort changes the port. An open server binds the new port before
// releasing the old one. Established tcp and ws connections stay up; udp
// sessions share the old socket and end with it.
func (s *Server) SetPort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("port %d out of range [0, 65535]", port)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		s.port = port
		return nil
	}

	ln, err := s.listen(port)
	if err != nil {
		return err
	}

	s.stopLn()
	old := s.ln
	s.ln = ln
	s.port = port
	s.startAccepting()
	old.Close()
	return nil
}

// JoinCode returns the join code of the server's address on the LAN: the
// configured host if it is an IPv4 address, otherwise the first usable
// interface address.
func (s *Server) JoinCode() (string, error) {
	s.mu.Lock()
	port := s.boundPort()
	s.mu.Unlock()

	ip := net.ParseIP(s.shared.Host).To4()
	if ip == nil || ip.IsUnspecified() {
		_, ifIP, err := discovery.UsableInterface()
		if err != nil {
			return "", fmt.Errorf("discovery.UsableInterface(): %w", err)
		}
		ip = ifIP
	}

	return joincode.Encode(ip, port)
}

// Connections returns a snapshot of the roster.
func (s *Server) Connections() []*Peer {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Peer, len(s.roster))
	copy(out, s.roster)
	return out
}

// drop removes p from the roster and the runtime.
func (s *Server) drop(p *Peer) {
	s.mu.Lock()
	for i, q := range s.roster {
		if q == p {
			s.roster = append(s.roster[:i], s.roster[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.rt.peers.remove(p)
}

// Close kicks every client with a reason, then releases the listener and
// the discovery socket. Closing a closed server does nothing.
func (s *Server) Close() error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil
	}
	s.open = false
	s.accepting = false
	roster := s.roster
	s.roster = nil
	inFlight := s.inFlight
	s.inFlight = nil
	s.port = s.boundPort()
	ln, sock, capture := s.ln, s.sock, s.capture
	s.ln, s.sock, s.capture = nil, nil, nil
	s.stopLn()
	s.mu.Unlock()

	for _, p := range roster {
		if err := p.s.shutdown(ReasonServerClosing); err != nil && !errors.Is(err, ErrConnectionClosed) {
			s.logger().VerboseMsg("kicking %s: %s", p.RemoteAddr(), err)
		}
		s.rt.peers.remove(p)
	}
	for p := range inFlight {
		p.s.abort()
	}
	s.drainPending()

	s.rt.servers.remove(s)

	var errs []error
	if err := ln.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing listener: %w", err))
	}
	if sock != nil {
		if err := sock.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing discovery socket: %w", err))
		}
	}
	if capture != nil {
		capture.Close()
	}
	return errors.Join(errs...)
}

func (s *Server) drainPending() {
	for {
		select {
		case conn := <-s.pending:
			conn.Close()
			s.sem.Release()
		default:
			return
		}
	}
}

// closeCapture must be called with s.mu held.
func (s *Server) closeCapture() {
	if s.capture != nil {
		s.capture.Close()
		s.capture = nil
	}
}

// sweep is the server's part of a dispatcher pass.
func (s *Server) sweep() bool {
	s.mu.Lock()
	open, accepting, sock := s.open, s.accepting, s.sock
	s.mu.Unlock()

	if !open {
		s.rt.servers.remove(s)
		return false
	}

	busy := false

	if accepting {
		for done := false; !done; {
			select {
			case conn := <-s.pending:
				s.begin(conn)
				busy = true
			default:
				done = true
			}
		}
	}

	for done := false; !done; {
		select {
		case r := <-s.results:
			s.finish(r)
			busy = true
		default:
			done = true
		}
	}

	if sock != nil {
		for {
			d, ok := sock.Next()
			if !ok {
				break
			}
			s.answer(sock, d)
			busy = true
		}
	}

	return busy
}

// begin announces a new connection and starts its handshake.
func (s *Server) begin(conn net.Conn) {
	p := newPeer(s, conn)
	p.receiver = s.handler.NewReceiver(p)
	if p.receiver == nil {
		p.receiver = NopReceiver{}
	}

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		conn.Close()
		s.sem.Release()
		return
	}
	s.inFlight[p] = struct{}{}
	s.mu.Unlock()

	s.handler.OnPreAuth(p)

	auth, _ := s.handler.(ServerAuthenticator)
	typeID := s.shared.TypeID
	go func() {
		err := p.handshake(typeID, auth)
		s.results <- handshakeResult{peer: p, err: err}
		s.rt.notify()
	}()
}

// finish admits or rejects a handshaken connection.
func (s *Server) finish(r handshakeResult) {
	defer s.sem.Release()
	p := r.peer

	if !s.settle(p, r.err == nil) {
		// the server closed while the handshake ran
		p.s.abort()
		return
	}

	if r.err == nil {
		s.rt.peers.add(p)
		s.rt.metrics.ConnectionAccepted()
		s.logger().VerboseMsg("%s joined", p.RemoteAddr())
		s.handler.OnPostAuth(p)
		return
	}

	p.s.abort()
	switch {
	case errors.Is(r.err, handshake.ErrCancelled):
		s.rt.metrics.ConnectionRejected(metrics.RejectCancelled)
		s.logger().VerboseMsg("%s cancelled the handshake", p.RemoteAddr())
		s.handler.OnCancelledConnect(p)
	case errors.Is(r.err, errRejected):
		s.rt.metrics.ConnectionRejected(metrics.RejectAuth)
		s.logger().VerboseMsg("%s rejected by authenticator", p.RemoteAddr())
	default:
		s.rt.metrics.ConnectionRejected(metrics.RejectError)
		s.logger().VerboseMsg("handshake with %s: %s", p.RemoteAddr(), r.err)
	}
}

// settle takes p out of the in-flight set and, if admit is set, opens it
// and adds it to the roster. It fails for handshakes that outlived a Close.
func (s *Server) settle(p *Peer, admit bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inFlight[p]; !ok || !s.open {
		return false
	}
	delete(s.inFlight, p)

	if admit {
		p.s.start(s.rt.limits, s.rt.notify)
		s.roster = append(s.roster, p)
	}
	return true
}

// answer replies to a probe for the server's type while the server is
// open, public and accepting. Everything else is dropped.
func (s *Server) answer(sock *discovery.Socket, d discovery.Datagram) {
	typeID, ok := discovery.DecodeProbe(d.Data)
	if !ok {
		return
	}
	s.rt.metrics.ProbeReceived()

	if typeID != s.shared.TypeID {
		return
	}

	s.mu.Lock()
	reply := s.open && s.public && s.accepting
	port := s.boundPort()
	s.mu.Unlock()
	if !reply {
		return
	}

	if err := discovery.WriteReply(sock.Conn(), d.From, port, s.handler.AdvertisedInfo()); err != nil {
		s.logger().VerboseMsg("answering probe from %s: %s", d.From, err)
		return
	}
	s.rt.metrics.ReplySent()
}
