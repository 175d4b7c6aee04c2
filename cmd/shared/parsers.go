package shared

import (
	"dominicbreuker/lannet/pkg/config"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var transportRe = regexp.MustCompile(`^(tcp|ws|udp)://([^:]*):(\d+)$`)

// ParseTransport parses a transport string in the format "protocol://host:port"
// where protocol is one of tcp, ws, or udp. The host can be empty or "*" to
// bind to all interfaces. Port 0 picks an ephemeral port when serving.
func ParseTransport(s string) (proto config.Protocol, host string, port int, err error) {
	matches := transportRe.FindStringSubmatch(s)

	if len(matches) != 4 {
		err = parsingError(s)
		return
	}

	proto, err = config.ParseProtocol(matches[1])
	if err != nil {
		err = parsingError(s)
		return
	}

	host = matches[2]
	if host == "*" { // also counts as all interfaces
		host = ""
	}

	port, err = strconv.Atoi(matches[3])
	if err != nil || port < 0 || port > 65535 {
		err = parsingError(s)
		return
	}

	return
}

// IsTransport reports whether s looks like a transport rather than a join
// code.
func IsTransport(s string) bool {
	return strings.Contains(s, "://")
}

func parsingError(s string) error {
	return fmt.Errorf("parsing %s: format should be 'protocol://host:port', where protocol = tcp|ws|udp", s)
}
