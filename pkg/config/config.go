// Package config holds the settings shared by servers and clients and the
// injectable dependencies used to swap out the network for tests.
package config

import (
	"fmt"
	"net"
	"time"

	"dominicbreuker/lannet/pkg/log"
)

// DefaultDiscoveryGroup is the multicast group servers listen on for probes.
const DefaultDiscoveryGroup = "232.45.103.96:2562"

// DefaultTimeout bounds handshakes and dials unless configured otherwise.
const DefaultTimeout = 10 * time.Second

// Protocol selects the stream transport.
type Protocol int

const (
	ProtoTCP Protocol = iota + 1
	ProtoWS
	ProtoUDP
)

func (p Protocol) String() string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoWS:
		return "ws"
	case ProtoUDP:
		return "udp"
	default:
		return ""
	}
}

// ParseProtocol parses the name of a transport.
func ParseProtocol(s string) (Protocol, error) {
	switch s {
	case "tcp":
		return ProtoTCP, nil
	case "ws":
		return ProtoWS, nil
	case "udp":
		return ProtoUDP, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q, must be one of tcp, ws, udp", s)
	}
}

// Shared holds settings used by both sides of a connection.
type Shared struct {
	Protocol Protocol
	Host     string
	Port     int

	// TypeID is the application type exchanged during the handshake.
	TypeID int32
	// Timeout bounds dials and handshakes. Zero waits indefinitely.
	Timeout time.Duration

	DiscoveryGroup string
	// WireLog names a file that receives a hex dump of all stream traffic.
	WireLog string

	Verbose bool
	Logger  *log.Logger
	Deps    *Dependencies
}

// Validate checks the shared settings.
func (c *Shared) Validate() []error {
	var errs []error

	if c.Protocol.String() == "" {
		errs = append(errs, fmt.Errorf("invalid protocol %d", c.Protocol))
	}

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("'--port' must be in [0, 65535]"))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("'--timeout' must not be negative"))
	}

	if c.DiscoveryGroup != "" {
		if _, err := ParseGroup(c.DiscoveryGroup); err != nil {
			errs = append(errs, fmt.Errorf("'--group': %w", err))
		}
	}

	return errs
}

// Group returns the configured discovery group or the default one.
func (c *Shared) Group() (*net.UDPAddr, error) {
	if c.DiscoveryGroup == "" {
		return ParseGroup(DefaultDiscoveryGroup)
	}
	return ParseGroup(c.DiscoveryGroup)
}

// ParseGroup parses an IPv4 multicast group address with port.
func ParseGroup(s string) (*net.UDPAddr, error) {
	addr, err := net.ResolveUDPAddr("udp4", s)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveUDPAddr(udp4, %s): %w", s, err)
	}
	if !addr.IP.IsMulticast() {
		return nil, fmt.Errorf("%s is not a multicast address", addr.IP)
	}
	if err := validatePort(addr.Port); err != nil {
		return nil, fmt.Errorf("group port: %w", err)
	}
	return addr, nil
}

// Server holds settings only servers use.
type Server struct {
	// Public servers answer discovery probes.
	Public bool
	// Info is the payload advertised in discovery replies.
	Info string
	// MaxPending bounds the connections accepted but not yet handshaken.
	MaxPending int
}

// DefaultMaxPending is used when Server.MaxPending is zero.
const DefaultMaxPending = 16

// Validate checks the server settings.
func (c *Server) Validate() []error {
	var errs []error

	if c.MaxPending < 0 {
		errs = append(errs, fmt.Errorf("'--max-pending' must not be negative"))
	}

	// the payload must fit into a single datagram
	if len(c.Info) > 65507 {
		errs = append(errs, fmt.Errorf("'--info' must not exceed 65507 bytes"))
	}

	return errs
}

// Pending returns the effective pending handshake limit.
func (c *Server) Pending() int {
	if c.MaxPending == 0 {
		return DefaultMaxPending
	}
	return c.MaxPending
}
