package tcp

import (
	"dominicbreuker/lannet/pkg/config"
	"fmt"
	"net"
)

// Listen binds a TCP listener on addr. Port 0 picks a free port, which can
// be read back from the listener's Addr. The deps parameter is optional.
func Listen(addr string, deps *config.Dependencies) (net.Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %w", addr, err)
	}

	listenerFn := config.GetTCPListenerFunc(deps)
	nl, err := listenerFn("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen(tcp, %s): %w", addr, err)
	}

	return &listener{Listener: nl}, nil
}

// listener turns on keep-alive for every accepted connection.
type listener struct {
	net.Listener
}

func (l *listener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetKeepAlive(true)
	}
	return conn, nil
}
