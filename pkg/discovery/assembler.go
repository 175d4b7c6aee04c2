package discovery

import (
	"encoding/binary"
	"net"
)

// ServerInfo is a fully assembled reply.
type ServerInfo struct {
	// Addr is the reply's source IP combined with the advertised port.
	Addr *net.TCPAddr
	Info []byte
}

type step int

const (
	stepPort step = iota
	stepLength
	stepPayload
)

type partial struct {
	step   step
	port   int
	length int
}

// Assembler reassembles reply sequences, keeping one partial sequence per
// source address. A datagram that does not fit the expected step drops the
// partial sequence; the magic always starts a new one.
type Assembler struct {
	pending map[string]*partial
}

func NewAssembler() *Assembler {
	return &Assembler{pending: make(map[string]*partial)}
}

// Feed consumes one datagram from from. It returns the server info once a
// sequence is complete.
func (a *Assembler) Feed(from net.Addr, p []byte) (ServerInfo, bool) {
	key := from.String()
	st, ok := a.pending[key]

	if ok && st.step == stepPayload && len(p) == st.length {
		delete(a.pending, key)

		ip := sourceIP(from)
		if ip == nil {
			return ServerInfo{}, false
		}
		info := make([]byte, len(p))
		copy(info, p)
		return ServerInfo{Addr: &net.TCPAddr{IP: ip, Port: st.port}, Info: info}, true
	}

	if string(p) == Magic {
		a.pending[key] = &partial{step: stepPort}
		return ServerInfo{}, false
	}

	if !ok {
		return ServerInfo{}, false
	}

	switch {
	case st.step == stepPort && len(p) == 2:
		st.port = int(binary.LittleEndian.Uint16(p))
		st.step = stepLength
	case st.step == stepLength && len(p) == 4:
		n := int32(binary.BigEndian.Uint32(p))
		if n < 0 {
			delete(a.pending, key)
			break
		}
		st.length = int(n)
		st.step = stepPayload
	default:
		delete(a.pending, key)
	}

	return ServerInfo{}, false
}

// Pending returns the number of incomplete sequences.
func (a *Assembler) Pending() int {
	return len(a.pending)
}

func sourceIP(addr net.Addr) net.IP {
	switch v := addr.(type) {
	case *net.UDPAddr:
		return v.IP
	case *net.TCPAddr:
		return v.IP
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}
