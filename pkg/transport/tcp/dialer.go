// Package tcp provides the plain TCP transport.
package tcp

import (
	"context"
	"dominicbreuker/lannet/pkg/config"
	"fmt"
	"net"
	"time"
)

// Dial establishes a TCP connection to addr with keep-alive enabled.
// The dial is abandoned when ctx is cancelled or timeout expires; a zero
// timeout waits for ctx only. The deps parameter is optional.
func Dial(ctx context.Context, addr string, timeout time.Duration, deps *config.Dependencies) (net.Conn, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %w", addr, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dialFn := config.GetTCPDialerFunc(deps)

	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := dialFn("tcp", nil, tcpAddr)
		done <- result{conn, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("net.DialTCP(tcp, %s): %w", tcpAddr, r.err)
		}
		if tc, ok := r.conn.(*net.TCPConn); ok {
			tc.SetKeepAlive(true)
		}
		return r.conn, nil
	case <-ctx.Done():
		// a connection that completes after we gave up must not leak
		go func() {
			if r := <-done; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, fmt.Errorf("net.DialTCP(tcp, %s): %w", tcpAddr, ctx.Err())
	}
}
