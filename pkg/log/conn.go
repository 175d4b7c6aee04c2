package log

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

// Capture is an append-only file shared by all connections whose traffic is
// recorded. Each read or write becomes one record: a header line naming the
// direction and peer, followed by a hex dump.
type Capture struct {
	mu sync.Mutex
	f  *os.File
}

// OpenCapture creates or appends to the capture file at path.
func OpenCapture(path string) (*Capture, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Capture{f: f}, nil
}

// Close closes the capture file.
func (c *Capture) Close() error {
	return c.f.Close()
}

func (c *Capture) record(dir string, peer net.Addr, b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.f, "%s %s %d bytes\n", dir, peer, len(b)); err != nil {
		return err
	}
	_, err := c.f.WriteString(hex.Dump(b))
	return err
}

// loggedConn wraps a net.Conn and records all read/write operations.
type loggedConn struct {
	conn    net.Conn
	capture *Capture
}

func (lc *loggedConn) Read(b []byte) (int, error) {
	n, err := lc.conn.Read(b)
	if n > 0 {
		if cerr := lc.capture.record("<-", lc.conn.RemoteAddr(), b[:n]); cerr != nil {
			return n, fmt.Errorf("capturing read: %w", cerr)
		}
	}
	return n, err
}

func (lc *loggedConn) Write(b []byte) (int, error) {
	n, err := lc.conn.Write(b)
	if n > 0 {
		if cerr := lc.capture.record("->", lc.conn.RemoteAddr(), b[:n]); cerr != nil {
			return n, fmt.Errorf("capturing write: %w", cerr)
		}
	}
	return n, err
}

func (lc *loggedConn) Close() error {
	return lc.conn.Close()
}

func (lc *loggedConn) LocalAddr() net.Addr {
	return lc.conn.LocalAddr()
}

func (lc *loggedConn) RemoteAddr() net.Addr {
	return lc.conn.RemoteAddr()
}

func (lc *loggedConn) SetDeadline(t time.Time) error {
	return lc.conn.SetDeadline(t)
}

func (lc *loggedConn) SetReadDeadline(t time.Time) error {
	return lc.conn.SetReadDeadline(t)
}

func (lc *loggedConn) SetWriteDeadline(t time.Time) error {
	return lc.conn.SetWriteDeadline(t)
}

// NewLoggedConn wraps a network connection so that all data read from and
// written to it is recorded in c. A nil capture returns conn unchanged.
func NewLoggedConn(conn net.Conn, c *Capture) net.Conn {
	if c == nil {
		return conn
	}
	return &loggedConn{conn: conn, capture: c}
}
