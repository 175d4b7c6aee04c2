package mocks

import (
	"fmt"
	"net"
	"sync"
	"time"
)

const udpQueueSize = 256

// MockUDPNetwork simulates a UDP network with multicast for testing without
// real sockets. Datagrams to a multicast group reach every socket that
// joined it, including sockets of the sender's host. Like real UDP,
// datagrams to unknown destinations or full queues are dropped.
type MockUDPNetwork struct {
	conns    map[string]*mockUDPConn
	groups   map[string][]*mockUDPConn
	nextPort int
	mu       sync.Mutex
}

// NewMockUDPNetwork creates a new mock UDP network.
func NewMockUDPNetwork() *MockUDPNetwork {
	return &MockUDPNetwork{
		conns:    make(map[string]*mockUDPConn),
		groups:   make(map[string][]*mockUDPConn),
		nextPort: 40000,
	}
}

// ListenPacket binds a mock UDP socket. Its signature matches
// config.PacketListenerFunc.
func (m *MockUDPNetwork) ListenPacket(network, address string) (net.PacketConn, error) {
	if network != "udp" && network != "udp4" {
		return nil, fmt.Errorf("unsupported network type: %s", network)
	}

	laddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	addr := &net.UDPAddr{IP: hostIP(laddr.IP), Port: laddr.Port}
	if addr.Port == 0 {
		for {
			m.nextPort++
			if _, used := m.conns[(&net.UDPAddr{IP: addr.IP, Port: m.nextPort}).String()]; !used {
				break
			}
		}
		addr.Port = m.nextPort
	}

	key := addr.String()
	if _, exists := m.conns[key]; exists {
		return nil, fmt.Errorf("address already in use: %s", key)
	}

	c := m.newConn(addr)
	m.conns[key] = c
	return c, nil
}

// ListenMulticast joins group. Any number of sockets may join the same
// group; they share the group port as their local address. Its signature
// matches config.MulticastListenerFunc.
func (m *MockUDPNetwork) ListenMulticast(group *net.UDPAddr, ifi *net.Interface) (net.PacketConn, error) {
	if !group.IP.IsMulticast() {
		return nil, fmt.Errorf("%s is not a multicast address", group.IP)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.newConn(&net.UDPAddr{IP: hostIP(nil), Port: group.Port})
	c.group = group.String()
	m.groups[c.group] = append(m.groups[c.group], c)
	return c, nil
}

// Members returns the number of sockets currently joined to group.
func (m *MockUDPNetwork) Members(group string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.groups[group])
}

// newConn must be called with m.mu held.
func (m *MockUDPNetwork) newConn(addr *net.UDPAddr) *mockUDPConn {
	return &mockUDPConn{
		addr:    addr,
		packets: make(chan mockUDPPacket, udpQueueSize),
		closeCh: make(chan struct{}),
		network: m,
	}
}

func (m *MockUDPNetwork) deliver(src *net.UDPAddr, dst *net.UDPAddr, p []byte) {
	m.mu.Lock()
	var targets []*mockUDPConn
	if dst.IP.IsMulticast() {
		targets = append(targets, m.groups[dst.String()]...)
	} else {
		key := (&net.UDPAddr{IP: hostIP(dst.IP), Port: dst.Port}).String()
		if c, ok := m.conns[key]; ok {
			targets = append(targets, c)
		}
	}
	m.mu.Unlock()

	for _, c := range targets {
		data := make([]byte, len(p))
		copy(data, p)
		select {
		case c.packets <- mockUDPPacket{data: data, addr: src}:
		default:
		}
	}
}

func (m *MockUDPNetwork) remove(c *mockUDPConn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.group == "" {
		delete(m.conns, c.addr.String())
		return
	}

	members := m.groups[c.group]
	for i, other := range members {
		if other == c {
			m.groups[c.group] = append(members[:i:i], members[i+1:]...)
			break
		}
	}
	if len(m.groups[c.group]) == 0 {
		delete(m.groups, c.group)
	}
}

type mockUDPPacket struct {
	data []byte
	addr *net.UDPAddr
}

// mockUDPConn is a mock implementation of net.PacketConn for UDP.
type mockUDPConn struct {
	addr    *net.UDPAddr
	group   string
	packets chan mockUDPPacket
	closeCh chan struct{}
	closed  bool
	mu      sync.Mutex
	network *MockUDPNetwork

	deadline time.Time
}

// ReadFrom reads a packet from the connection.
func (c *mockUDPConn) ReadFrom(p []byte) (int, net.Addr, error) {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()

	var timeout <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case packet := <-c.packets:
		n := copy(p, packet.data)
		return n, packet.addr, nil
	case <-c.closeCh:
		return 0, nil, net.ErrClosed
	case <-timeout:
		return 0, nil, errTimeout{}
	}
}

// WriteTo writes a packet to the specified address.
func (c *mockUDPConn) WriteTo(p []byte, addr net.Addr) (int, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return 0, net.ErrClosed
	}

	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return 0, fmt.Errorf("address must be *net.UDPAddr, got %T", addr)
	}

	c.network.deliver(c.addr, udpAddr, p)
	return len(p), nil
}

// Close closes the connection and leaves its group.
func (c *mockUDPConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.closeCh)
	c.mu.Unlock()

	c.network.remove(c)
	return nil
}

// LocalAddr returns the local network address.
func (c *mockUDPConn) LocalAddr() net.Addr {
	return c.addr
}

func (c *mockUDPConn) SetDeadline(t time.Time) error {
	return c.SetReadDeadline(t)
}

func (c *mockUDPConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	return nil
}

func (c *mockUDPConn) SetWriteDeadline(t time.Time) error {
	return nil
}

type errTimeout struct{}

func (errTimeout) Error() string   { return "i/o timeout" }
func (errTimeout) Timeout() bool   { return true }
func (errTimeout) Temporary() bool { return true }

var _ net.PacketConn = (*mockUDPConn)(nil)
var _ net.Error = errTimeout{}
