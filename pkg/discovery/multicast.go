package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/ipv4"
)

// MulticastTTL lets probes and replies cross routers inside the site.
const MulticastTTL = 255

// ErrNoInterface is returned when no interface qualifies for multicast.
var ErrNoInterface = errors.New("discovery: no usable network interface")

// ListenMulticast binds the port of group with SO_REUSEADDR, so several
// servers on one host can listen side by side, and joins group on ifi.
// A nil ifi lets the system choose the interface.
func ListenMulticast(group *net.UDPAddr, ifi *net.Interface) (net.PacketConn, error) {
	lc := net.ListenConfig{Control: reuseAddr}

	addr := fmt.Sprintf("0.0.0.0:%d", group.Port)
	c, err := lc.ListenPacket(context.Background(), "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("ListenPacket(udp4, %s): %w", addr, err)
	}

	p := ipv4.NewPacketConn(c)
	if err := p.JoinGroup(ifi, &net.UDPAddr{IP: group.IP}); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("JoinGroup(%s): %w", group.IP, err)
	}
	if err := configure(p, ifi); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// ConfigureSender sets the multicast TTL, loopback and outgoing interface
// on pc so probes reach servers on this host and beyond. Connections that
// are not real UDP sockets are left untouched.
func ConfigureSender(pc net.PacketConn, ifi *net.Interface) error {
	if _, ok := pc.(*net.UDPConn); !ok {
		return nil
	}
	return configure(ipv4.NewPacketConn(pc), ifi)
}

func configure(p *ipv4.PacketConn, ifi *net.Interface) error {
	if err := p.SetMulticastTTL(MulticastTTL); err != nil {
		return fmt.Errorf("SetMulticastTTL(%d): %w", MulticastTTL, err)
	}
	if err := p.SetMulticastLoopback(true); err != nil {
		return fmt.Errorf("SetMulticastLoopback(true): %w", err)
	}
	if ifi != nil {
		if err := p.SetMulticastInterface(ifi); err != nil {
			return fmt.Errorf("SetMulticastInterface(%s): %w", ifi.Name, err)
		}
	}
	return nil
}

// UsableInterface returns the first interface that is up, not a loopback,
// not a known virtual adapter and carries an IPv4 address, together with
// that address.
func UsableInterface() (*net.Interface, net.IP, error) {
	ifis, err := net.Interfaces()
	if err != nil {
		return nil, nil, fmt.Errorf("net.Interfaces(): %w", err)
	}

	for i := range ifis {
		ifi := &ifis[i]
		if !usable(ifi) {
			continue
		}

		addrs, err := ifi.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipn, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipn.IP.To4(); ip4 != nil {
				return ifi, ip4, nil
			}
		}
	}

	return nil, nil, ErrNoInterface
}

var virtualPrefixes = []string{"vbox", "vmnet", "docker", "veth", "br-", "virbr"}

func usable(ifi *net.Interface) bool {
	if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
		return false
	}
	name := strings.ToLower(ifi.Name)
	if strings.Contains(name, "virtualbox") {
		return false
	}
	for _, p := range virtualPrefixes {
		if strings.HasPrefix(name, p) {
			return false
		}
	}
	return true
}
