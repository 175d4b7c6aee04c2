// Package format renders addresses and advertised server info for display.
package format

import (
	"net"
	"strconv"
	"unicode/utf8"
)

// Addr joins host and port, bracketing IPv6 hosts.
func Addr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Info renders an advertised payload. Valid UTF-8 is quoted as text,
// anything else is shown as hex.
func Info(p []byte) string {
	if len(p) == 0 {
		return "-"
	}
	if utf8.Valid(p) {
		return strconv.Quote(string(p))
	}
	const hex = "0123456789abcdef"
	out := make([]byte, 0, 2+2*len(p))
	out = append(out, '0', 'x')
	for _, b := range p {
		out = append(out, hex[b>>4], hex[b&0x0f])
	}
	return string(out)
}
