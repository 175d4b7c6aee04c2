// Package ws provides a stream transport tunnelled through WebSocket binary
// messages, for networks that only let HTTP through.
package ws

import (
	"context"
	"dominicbreuker/lannet/pkg/config"
	"dominicbreuker/lannet/pkg/transport/tcp"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	subprotocol = "bin"
	readLimit   = 64 << 20
)

// Dial upgrades an HTTP connection to addr into a WebSocket and exposes it
// as a net.Conn. The underlying TCP connection is made with the tcp
// transport, so injected dependencies apply. The deps parameter is optional.
func Dial(ctx context.Context, addr string, timeout time.Duration, deps *config.Dependencies) (net.Conn, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	url := fmt.Sprintf("ws://%s/", addr)
	opts := &websocket.DialOptions{
		Subprotocols: []string{subprotocol},
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
					return tcp.Dial(ctx, address, 0, deps)
				},
			},
		},
	}

	c, _, err := websocket.Dial(ctx, url, opts)
	if err != nil {
		return nil, fmt.Errorf("websocket.Dial(%s): %w", url, err)
	}
	c.SetReadLimit(readLimit)

	// the dial context ends with this call, the connection must outlive it
	return websocket.NetConn(context.Background(), c, websocket.MessageBinary), nil
}

// Listen serves WebSocket upgrades on addr and returns every upgraded
// connection through Accept. Closing the listener stops the HTTP server but
// leaves established connections open. The deps parameter is optional.
func Listen(addr string, deps *config.Dependencies) (net.Listener, error) {
	nl, err := tcp.Listen(addr, deps)
	if err != nil {
		return nil, err
	}

	l := &listener{
		nl:    nl,
		conns: make(chan net.Conn),
		done:  make(chan struct{}),
	}
	l.srv = &http.Server{
		Handler:           http.HandlerFunc(l.upgrade),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := l.srv.Serve(nl)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.fail(err)
		}
		l.Close()
	}()

	return l, nil
}

type listener struct {
	nl    net.Listener
	srv   *http.Server
	conns chan net.Conn

	once sync.Once
	done chan struct{}

	mu  sync.Mutex
	err error
}

func (l *listener) upgrade(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{subprotocol},
	})
	if err != nil {
		return
	}
	c.SetReadLimit(readLimit)

	conn := &closeNotifyConn{
		Conn:   websocket.NetConn(context.Background(), c, websocket.MessageBinary),
		closed: make(chan struct{}),
	}

	select {
	case l.conns <- conn:
	case <-l.done:
		conn.Close()
		return
	}

	// keep the handler alive for as long as the connection is in use
	<-conn.closed
}

func (l *listener) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err == nil {
		l.err = err
	}
}

func (l *listener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.done:
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.err != nil {
			return nil, fmt.Errorf("http.Server.Serve(): %w", l.err)
		}
		return nil, net.ErrClosed
	}
}

func (l *listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		err = l.srv.Close()
	})
	return err
}

func (l *listener) Addr() net.Addr {
	return l.nl.Addr()
}

// closeNotifyConn signals when the application closed the connection.
type closeNotifyConn struct {
	net.Conn

	once   sync.Once
	closed chan struct{}
}

func (c *closeNotifyConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() { close(c.closed) })
	return err
}
