package hub

import (
	"context"
	"dominicbreuker/lannet/pkg/codec"
	"dominicbreuker/lannet/pkg/config"
	"dominicbreuker/lannet/pkg/discovery"
	"dominicbreuker/lannet/pkg/handshake"
	"dominicbreuker/lannet/pkg/joincode"
	"dominicbreuker/lannet/pkg/log"
	"dominicbreuker/lannet/pkg/metrics"
	"dominicbreuker/lannet/pkg/transport"
	"errors"
	"fmt"
	"sync"
)

// Client joins at most one server at a time and searches the LAN for
// servers of its type. A new client is open: its discovery socket is bound
// and registered with the runtime.
type Client struct {
	rt      *Runtime
	handler ClientHandler
	shared  *config.Shared

	mu      sync.Mutex
	closed  bool
	joining bool
	conn    *clientConn
	sock    *discovery.Socket
	capture *log.Capture

	// asm is only touched by the dispatcher.
	asm *discovery.Assembler
}

// clientConn is the client-held end of one joined session.
type clientConn struct {
	client *Client
	s      *stream
}

// NewClient creates a client and opens its discovery socket.
func NewClient(rt *Runtime, handler ClientHandler, shared *config.Shared) (*Client, error) {
	c := &Client{
		rt:      rt,
		handler: handler,
		shared:  shared,
		asm:     discovery.NewAssembler(),
		closed:  true,
	}
	if err := c.Reopen(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reopen opens a closed client again. Opening an open client does nothing.
func (c *Client) Reopen() error {
	if err := c.rt.ensureRunning(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		return nil
	}

	packetFn := config.GetPacketListenerFunc(c.shared.Deps)
	pc, err := packetFn("udp4", ":0")
	if err != nil {
		return fmt.Errorf("net.ListenPacket(udp4, :0): %w", err)
	}

	ifi, _, err := discovery.UsableInterface()
	if err != nil {
		ifi = nil
	}
	if err := discovery.ConfigureSender(pc, ifi); err != nil {
		c.rt.logger.VerboseMsg("configuring discovery socket: %s", err)
	}

	if c.shared.WireLog != "" {
		capture, err := log.OpenCapture(c.shared.WireLog)
		if err != nil {
			pc.Close()
			return fmt.Errorf("log.OpenCapture(%s): %w", c.shared.WireLog, err)
		}
		c.capture = capture
	}

	c.sock = discovery.NewSocket(pc, c.rt.notify)
	c.closed = false
	c.rt.receivers.add(c)
	c.rt.notify()
	return nil
}

// IsClosed reports whether the client was closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// IsOpen reports whether the client is in a server and the connection is
// still up.
func (c *Client) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.conn.s.isOpen()
}

// InServer reports whether the client joined a server it has not left yet.
func (c *Client) InServer() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// JoinServer connects to the server at addr (host:port) and runs the
// handshake. It blocks until the handshake completed or failed; a type
// mismatch fails with *handshake.TypeMismatchError.
func (c *Client) JoinServer(ctx context.Context, addr string) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClientClosed
	case c.conn != nil || c.joining:
		c.mu.Unlock()
		return ErrAlreadyJoined
	}
	c.joining = true
	capture := c.capture
	c.mu.Unlock()

	cc, err := c.join(ctx, addr, capture)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.joining = false

	if err != nil {
		return err
	}
	if c.closed {
		cc.s.abort()
		return ErrClientClosed
	}

	cc.s.start(c.rt.limits, c.rt.notify)
	c.conn = cc
	c.rt.conns.add(cc)
	c.rt.notify()
	c.rt.logger.VerboseMsg("joined %s", addr)
	return nil
}

func (c *Client) join(ctx context.Context, addr string, capture *log.Capture) (*clientConn, error) {
	conn, err := transport.Dial(ctx, c.shared.Protocol, addr, c.shared.Timeout, c.shared.Deps)
	if err != nil {
		return nil, err
	}
	conn = log.NewLoggedConn(conn, capture)

	if err := handshake.Client(conn, c.shared.TypeID, c.shared.Timeout); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake with %s: %w", addr, err)
	}

	if auth, ok := c.handler.(ClientAuthenticator); ok {
		if err := auth.AuthenticateServer(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("authenticating %s: %w", addr, err)
		}
	}

	return &clientConn{
		client: c,
		s:      newStream(conn, metrics.RoleClient, c.rt.metrics),
	}, nil
}

// JoinCode decodes a join code and joins the server it names.
func (c *Client) JoinCode(ctx context.Context, code string) error {
	addr, err := joincode.Decode(code)
	if err != nil {
		return err
	}
	return c.JoinServer(ctx, addr.String())
}

// Search sends a discovery probe for the client's type. Replies arrive
// through OnServerInfo.
func (c *Client) Search() error {
	c.mu.Lock()
	sock := c.sock
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return ErrClientClosed
	}

	group, err := c.shared.Group()
	if err != nil {
		return err
	}
	return discovery.SendProbe(sock.Conn(), group, c.shared.TypeID)
}

// Send frames v and writes it to the server. Values map to messages as in
// codec.FromValue. It fails with ErrConnectionClosed when the client is not
// in a server.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	cc := c.conn
	c.mu.Unlock()

	if cc == nil {
		return ErrConnectionClosed
	}

	m, err := codec.FromValue(v)
	if err != nil {
		return fmt.Errorf("codec.FromValue(%T): %w", v, err)
	}
	if codec.IsClose(m) {
		return errors.New("hub: use LeaveServer to close a connection")
	}
	return cc.s.send(m)
}

// LeaveServer closes the connection without a reason.
func (c *Client) LeaveServer() error {
	return c.LeaveServerWithReason("")
}

// LeaveServerWithReason tells the server reason and closes the connection.
// OnLeftServer follows on the dispatcher with forced set to false.
func (c *Client) LeaveServerWithReason(reason string) error {
	c.mu.Lock()
	cc := c.conn
	c.conn = nil
	c.mu.Unlock()

	if cc == nil {
		return ErrConnectionClosed
	}
	return cc.s.shutdown(reason)
}

// Close leaves the server and closes the discovery socket.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cc := c.conn
	c.conn = nil
	sock, capture := c.sock, c.capture
	c.sock, c.capture = nil, nil
	c.mu.Unlock()

	var errs []error
	if cc != nil {
		if err := cc.s.shutdown(""); err != nil && !errors.Is(err, ErrConnectionClosed) {
			errs = append(errs, fmt.Errorf("leaving server: %w", err))
		}
	}

	c.rt.receivers.remove(c)
	if err := sock.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing discovery socket: %w", err))
	}
	if capture != nil {
		capture.Close()
	}
	return errors.Join(errs...)
}

// detach forgets cc if it is still the current connection.
func (c *Client) detach(cc *clientConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == cc {
		c.conn = nil
	}
}

// poll handles at most one read result. Only the dispatcher calls it.
func (cc *clientConn) poll() bool {
	c := cc.client
	rt := c.rt

	switch cc.s.current() {
	case stateOpen:
	case stateClosedLocal:
		rt.conns.remove(cc)
		c.handler.OnLeftServer(ReasonClientClosed, false)
		return false
	default:
		rt.conns.remove(cc)
		return false
	}

	in, ok := cc.s.next()
	if !ok {
		return false
	}

	if in.err != nil {
		if codec.Recoverable(in.err) {
			rt.logger.VerboseMsg("server connection: skipping frame: %s", in.err)
			return true
		}
		if cc.s.transition(stateLost) {
			rt.logger.VerboseMsg("server connection lost: %s", in.err)
			c.detach(cc)
			rt.conns.remove(cc)
			c.handler.OnLeftServer(ReasonForcedClose, true)
		}
		return true
	}

	rt.metrics.MessageReceived(in.msg.Tag())

	switch m := in.msg.(type) {
	case codec.CloseNotice:
		if cc.s.transition(stateClosedRemote) {
			c.detach(cc)
			rt.conns.remove(cc)
			c.handler.OnLeftServer(m.Reason, true)
		}
	case codec.ForcedClose:
		if cc.s.transition(stateClosedRemote) {
			c.detach(cc)
			rt.conns.remove(cc)
			c.handler.OnLeftServer("", true)
		}
	default:
		deliver(c.handler, m)
	}
	return true
}

// pollDiscovery feeds every queued datagram to the assembler. Only the
// dispatcher calls it.
func (c *Client) pollDiscovery() bool {
	c.mu.Lock()
	sock := c.sock
	c.mu.Unlock()

	if sock == nil {
		c.rt.receivers.remove(c)
		return false
	}

	busy := false
	for {
		d, ok := sock.Next()
		if !ok {
			return busy
		}
		busy = true

		info, ok := c.asm.Feed(d.From, d.Data)
		if !ok {
			continue
		}
		c.rt.metrics.ServerInfoDelivered()
		c.handler.OnServerInfo(info)
	}
}
