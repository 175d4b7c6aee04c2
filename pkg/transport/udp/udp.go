// Package udp provides a reliable stream transport over UDP using KCP.
//
// A KCP listener only learns about a new peer when the first datagram
// arrives, while the lannet handshake starts with the accepting side
// writing. The dialer therefore sends a single activation byte right after
// the session is created, and accepted sessions drop that byte before the
// first read.
package udp

import (
	"context"
	"dominicbreuker/lannet/pkg/config"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	kcp "github.com/xtaci/kcp-go/v5"
)

const activationByte = 0x01

// configure applies the same low-latency settings on both ends.
func configure(s *kcp.UDPSession) {
	// SetNoDelay(nodelay, interval, resend, nc)
	// nodelay: 1 enables no-delay mode
	// interval: internal update interval in ms
	// resend: 2 ACK crosses trigger fast resend
	// nc: 1 disables congestion control
	s.SetNoDelay(1, 10, 2, 1)
	s.SetStreamMode(true)
	s.SetWindowSize(1024, 1024)
}

// Dial opens a KCP session to addr over a fresh UDP socket and sends the
// activation byte. KCP has no connection setup, so timeout only bounds the
// activation write. The deps parameter is optional.
func Dial(ctx context.Context, addr string, timeout time.Duration, deps *config.Dependencies) (net.Conn, error) {
	remote, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveUDPAddr(udp, %s): %w", addr, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dial(udp, %s): %w", addr, err)
	}

	packetConnFn := config.GetPacketListenerFunc(deps)
	pc, err := packetConnFn("udp", ":0")
	if err != nil {
		return nil, fmt.Errorf("net.ListenPacket(udp, :0): %w", err)
	}

	// Parameters: remoteAddr, block cipher (nil for no encryption), dataShards (0), parityShards (0), conn
	s, err := kcp.NewConn(remote.String(), nil, 0, 0, pc)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("kcp.NewConn(%s): %w", remote, err)
	}
	configure(s)

	conn := &dialedConn{UDPSession: s, pc: pc}

	if timeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	if _, err := conn.Write([]byte{activationByte}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("activate session %s: %w", remote, err)
	}
	conn.SetWriteDeadline(time.Time{})

	return conn, nil
}

// dialedConn owns its packet socket, which kcp.NewConn leaves open on Close.
type dialedConn struct {
	*kcp.UDPSession
	pc net.PacketConn
}

func (c *dialedConn) Close() error {
	err := c.UDPSession.Close()
	c.pc.Close()
	return err
}

// Listen binds a UDP socket on addr and serves KCP sessions on it.
// Closing the listener closes the socket and with it every session it
// accepted. The deps parameter is optional.
func Listen(addr string, deps *config.Dependencies) (net.Listener, error) {
	if _, err := net.ResolveUDPAddr("udp", addr); err != nil {
		return nil, fmt.Errorf("net.ResolveUDPAddr(udp, %s): %w", addr, err)
	}

	packetConnFn := config.GetPacketListenerFunc(deps)
	pc, err := packetConnFn("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen(udp, %s): %w", addr, err)
	}

	// Parameters: block cipher (nil for no encryption), dataShards (0), parityShards (0), conn
	kl, err := kcp.ServeConn(nil, 0, 0, pc)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("kcp.ServeConn(): %w", err)
	}

	return &listener{kl: kl, pc: pc}, nil
}

type listener struct {
	kl *kcp.Listener
	pc net.PacketConn
}

func (l *listener) Accept() (net.Conn, error) {
	s, err := l.kl.AcceptKCP()
	if err != nil {
		return nil, err
	}
	configure(s)
	return &session{Conn: s}, nil
}

func (l *listener) Close() error {
	err := l.kl.Close()
	l.pc.Close()
	return err
}

func (l *listener) Addr() net.Addr {
	return l.kl.Addr()
}

// session discards the activation byte before the first read.
type session struct {
	net.Conn

	mu        sync.Mutex
	activated bool
}

func (s *session) Read(b []byte) (int, error) {
	s.mu.Lock()
	if !s.activated {
		var one [1]byte
		if _, err := io.ReadFull(s.Conn, one[:]); err != nil {
			s.mu.Unlock()
			return 0, err
		}
		s.activated = true
	}
	s.mu.Unlock()

	return s.Conn.Read(b)
}
