package hub

import (
	"dominicbreuker/lannet/pkg/codec"
	"dominicbreuker/lannet/pkg/handshake"
	"dominicbreuker/lannet/pkg/metrics"
	"errors"
	"fmt"
	"net"
)

// Peer is the server-held end of a connection.
type Peer struct {
	server   *Server
	s        *stream
	receiver Receiver
}

func newPeer(srv *Server, conn net.Conn) *Peer {
	return &Peer{
		server: srv,
		s:      newStream(conn, metrics.RoleServer, srv.rt.metrics),
	}
}

// Server returns the server p connected to.
func (p *Peer) Server() *Server {
	return p.server
}

// RemoteAddr returns the client's address.
func (p *Peer) RemoteAddr() net.Addr {
	return p.s.conn.RemoteAddr()
}

// IsOpen reports whether p completed its handshake and is still connected.
func (p *Peer) IsOpen() bool {
	return p.s.isOpen()
}

// Send frames v and writes it to the client. Values map to messages as in
// codec.FromValue. It fails with ErrConnectionClosed when p is not open.
func (p *Peer) Send(v any) error {
	m, err := codec.FromValue(v)
	if err != nil {
		return fmt.Errorf("codec.FromValue(%T): %w", v, err)
	}
	if codec.IsClose(m) {
		return errors.New("hub: use Kick to close a connection")
	}
	return p.s.send(m)
}

// Kick disconnects the client without a reason.
func (p *Peer) Kick() error {
	return p.KickWithReason("")
}

// KickWithReason disconnects the client, telling it reason. OnDisconnect is
// not called for kicked peers.
func (p *Peer) KickWithReason(reason string) error {
	if !p.s.isOpen() {
		return ErrConnectionClosed
	}
	p.server.drop(p)
	return p.s.shutdown(reason)
}

// handshake runs the server side of the preamble and the optional
// authenticator on the handshake goroutine.
func (p *Peer) handshake(typeID int32, auth ServerAuthenticator) error {
	srv := p.server
	if err := handshake.Server(p.s.conn, typeID, srv.shared.Timeout); err != nil {
		return err
	}
	if auth != nil && !auth.AuthenticateClient(p, p.s.conn) {
		return errRejected
	}
	return nil
}

var errRejected = errors.New("hub: rejected by authenticator")

// poll handles at most one read result. Only the dispatcher calls it.
func (p *Peer) poll() bool {
	if !p.s.isOpen() {
		p.server.rt.peers.remove(p)
		return false
	}

	in, ok := p.s.next()
	if !ok {
		return false
	}

	rt := p.server.rt
	if in.err != nil {
		if codec.Recoverable(in.err) {
			rt.logger.VerboseMsg("peer %s: skipping frame: %s", p.RemoteAddr(), in.err)
			return true
		}
		if p.s.transition(stateLost) {
			rt.logger.VerboseMsg("peer %s: connection lost: %s", p.RemoteAddr(), in.err)
			p.server.drop(p)
			p.server.handler.OnDisconnect(p, "", true)
		}
		return true
	}

	rt.metrics.MessageReceived(in.msg.Tag())

	switch m := in.msg.(type) {
	case codec.CloseNotice:
		if p.s.transition(stateClosedRemote) {
			p.server.drop(p)
			p.server.handler.OnDisconnect(p, m.Reason, false)
		}
	case codec.ForcedClose:
		if p.s.transition(stateClosedRemote) {
			p.server.drop(p)
			p.server.handler.OnDisconnect(p, "", false)
		}
	default:
		deliver(p.receiver, m)
	}
	return true
}
