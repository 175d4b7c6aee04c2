// Package transport opens the byte streams lannet connections run on.
// Each transport (tcp, ws, udp) implements two functions instead of
// interfaces:
//
// Dial functions:
//   - Establish an outbound stream
//   - Accept: context, address, timeout, and optional dependencies
//   - Return: net.Conn or error
//
// Listen functions:
//   - Bind a local endpoint
//   - Accept: address and optional dependencies
//   - Return: net.Listener whose Addr reports the bound port
//
// The handshake and wire protocol run unchanged on every transport.
package transport

import (
	"context"
	"dominicbreuker/lannet/pkg/config"
	"dominicbreuker/lannet/pkg/transport/tcp"
	"dominicbreuker/lannet/pkg/transport/udp"
	"dominicbreuker/lannet/pkg/transport/ws"
	"fmt"
	"net"
	"time"
)

// Listen binds a listener for proto on addr.
func Listen(proto config.Protocol, addr string, deps *config.Dependencies) (net.Listener, error) {
	switch proto {
	case config.ProtoTCP:
		return tcp.Listen(addr, deps)
	case config.ProtoWS:
		return ws.Listen(addr, deps)
	case config.ProtoUDP:
		return udp.Listen(addr, deps)
	default:
		return nil, fmt.Errorf("unsupported protocol %d", proto)
	}
}

// Dial opens a stream for proto to addr.
func Dial(ctx context.Context, proto config.Protocol, addr string, timeout time.Duration, deps *config.Dependencies) (net.Conn, error) {
	switch proto {
	case config.ProtoTCP:
		return tcp.Dial(ctx, addr, timeout, deps)
	case config.ProtoWS:
		return ws.Dial(ctx, addr, timeout, deps)
	case config.ProtoUDP:
		return udp.Dial(ctx, addr, timeout, deps)
	default:
		return nil, fmt.Errorf("unsupported protocol %d", proto)
	}
}
