package mocks

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// MockTCPNetwork simulates a TCP network for testing without real network connections.
// Connections are pairs of in-memory pipes; port 0 binds an ephemeral port.
type MockTCPNetwork struct {
	listeners map[string]*mockTCPListener
	nextPort  int
	mu        sync.Mutex
}

// NewMockTCPNetwork creates a new mock TCP network.
func NewMockTCPNetwork() *MockTCPNetwork {
	return &MockTCPNetwork{
		listeners: make(map[string]*mockTCPListener),
		nextPort:  30000,
	}
}

// ListenTCP creates a mock TCP listener on the specified address.
func (m *MockTCPNetwork) ListenTCP(network string, laddr *net.TCPAddr) (net.Listener, error) {
	if network != "tcp" && network != "tcp4" {
		return nil, fmt.Errorf("unsupported network type: %s", network)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	addr := &net.TCPAddr{IP: hostIP(laddr.IP), Port: laddr.Port}
	if addr.Port == 0 {
		addr.Port = m.allocPort(addr.IP)
	}

	key := addr.String()
	if _, exists := m.listeners[key]; exists {
		return nil, fmt.Errorf("address already in use: %s", key)
	}

	listener := &mockTCPListener{
		addr:    addr,
		connCh:  make(chan net.Conn, 10),
		closeCh: make(chan struct{}),
		network: m,
	}
	m.listeners[key] = listener

	return listener, nil
}

// allocPort must be called with m.mu held.
func (m *MockTCPNetwork) allocPort(ip net.IP) int {
	for {
		m.nextPort++
		if _, used := m.listeners[(&net.TCPAddr{IP: ip, Port: m.nextPort}).String()]; !used {
			return m.nextPort
		}
	}
}

// DialTCP creates a mock TCP connection to the specified address.
func (m *MockTCPNetwork) DialTCP(network string, laddr, raddr *net.TCPAddr) (net.Conn, error) {
	if network != "tcp" && network != "tcp4" {
		return nil, fmt.Errorf("unsupported network type: %s", network)
	}

	target := &net.TCPAddr{IP: hostIP(raddr.IP), Port: raddr.Port}

	m.mu.Lock()
	listener, exists := m.listeners[target.String()]
	local := laddr
	if local == nil {
		local = &net.TCPAddr{IP: target.IP, Port: m.allocPort(target.IP)}
	}
	m.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("connection refused: no listener on %s", target)
	}

	clientConn, serverConn := net.Pipe()

	mockClient := &mockTCPConn{Conn: clientConn, localAddr: local, remoteAddr: target}
	mockServer := &mockTCPConn{Conn: serverConn, localAddr: target, remoteAddr: local}

	select {
	case listener.connCh <- mockServer:
	case <-listener.closeCh:
		clientConn.Close()
		serverConn.Close()
		return nil, fmt.Errorf("connection refused: listener closed")
	case <-time.After(1 * time.Second):
		clientConn.Close()
		serverConn.Close()
		return nil, fmt.Errorf("connection timeout")
	}

	return mockClient, nil
}

// mockTCPListener is a mock implementation of net.TCPListener.
type mockTCPListener struct {
	addr    *net.TCPAddr
	connCh  chan net.Conn
	closeCh chan struct{}
	closed  bool
	mu      sync.Mutex
	network *MockTCPNetwork
}

// Accept waits for and returns the next connection to the listener.
func (l *mockTCPListener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.connCh:
		return conn, nil
	case <-l.closeCh:
		return nil, net.ErrClosed
	}
}

// Close closes the listener and frees its address.
func (l *mockTCPListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	close(l.closeCh)

	l.network.mu.Lock()
	delete(l.network.listeners, l.addr.String())
	l.network.mu.Unlock()

	return nil
}

// Addr returns the listener's network address.
func (l *mockTCPListener) Addr() net.Addr {
	return l.addr
}

// mockTCPConn is a pipe end reporting TCP addresses.
type mockTCPConn struct {
	net.Conn
	localAddr  *net.TCPAddr
	remoteAddr *net.TCPAddr
}

func (c *mockTCPConn) LocalAddr() net.Addr {
	return c.localAddr
}

func (c *mockTCPConn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// hostIP maps unspecified addresses to the loopback address, which stands
// in for the single host of the mock network.
func hostIP(ip net.IP) net.IP {
	if ip == nil || ip.IsUnspecified() {
		return net.IPv4(127, 0, 0, 1).To4()
	}
	if ip4 := ip.To4(); ip4 != nil {
		return ip4
	}
	return ip
}

var _ net.Listener = (*mockTCPListener)(nil)
var _ net.Conn = (*mockTCPConn)(nil)
