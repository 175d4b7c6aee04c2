// Package joincode turns an IPv4 address and port into a short base-36 code
// that can be shared out of band to join a private session, and back.
//
// The code encodes N = port + Σ octet_k · 10^5 · 1000^k, where octet_0 is the
// last octet of the address. The port occupies the five low decimal digits
// and every octet three further digits.
package joincode

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

const (
	portSpan  = 100000
	octetSpan = 1000
	maxPort   = 65535
)

// ErrInvalidCode is returned when a code does not decode to an IPv4 address
// and port.
var ErrInvalidCode = errors.New("joincode: invalid code")

// Encode returns the join code for ip and port. ip must be an IPv4 address.
func Encode(ip net.IP, port int) (string, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return "", fmt.Errorf("joincode: %s is not an IPv4 address", ip)
	}
	if port < 0 || port > maxPort {
		return "", fmt.Errorf("joincode: port %d not in [0, %d]", port, maxPort)
	}

	n := uint64(port)
	mult := uint64(portSpan)
	for i := len(ip4) - 1; i >= 0; i-- {
		n += mult * uint64(ip4[i])
		mult *= octetSpan
	}

	return strings.ToUpper(strconv.FormatUint(n, 36)), nil
}

// EncodeAddr returns the join code for addr.
func EncodeAddr(addr netip.AddrPort) (string, error) {
	a := addr.Addr().Unmap()
	if !a.Is4() {
		return "", fmt.Errorf("joincode: %s is not an IPv4 address", a)
	}
	b := a.As4()
	return Encode(net.IP(b[:]), int(addr.Port()))
}

// Decode reverses Encode. Codes are case-insensitive.
func Decode(code string) (*net.TCPAddr, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidCode)
	}

	n, err := strconv.ParseUint(code, 36, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidCode, code, err)
	}

	port := n % portSpan
	if port > maxPort {
		return nil, fmt.Errorf("%w: %q: port %d out of range", ErrInvalidCode, code, port)
	}
	n /= portSpan

	ip := make(net.IP, net.IPv4len)
	for i := net.IPv4len - 1; i >= 0; i-- {
		octet := n % octetSpan
		if octet > 255 {
			return nil, fmt.Errorf("%w: %q: octet %d out of range", ErrInvalidCode, code, octet)
		}
		ip[i] = byte(octet)
		n /= octetSpan
	}
	if n != 0 {
		return nil, fmt.Errorf("%w: %q: too long", ErrInvalidCode, code)
	}

	return &net.TCPAddr{IP: ip, Port: int(port)}, nil
}
