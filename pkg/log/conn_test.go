package log

import (
	"bytes"
	"encoding/hex"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// mockConn implements net.Conn for testing
type mockConn struct {
	readBuf  *bytes.Buffer
	writeBuf *bytes.Buffer
}

func newMockConn() *mockConn {
	return &mockConn{
		readBuf:  new(bytes.Buffer),
		writeBuf: new(bytes.Buffer),
	}
}

func (m *mockConn) Read(b []byte) (int, error)         { return m.readBuf.Read(b) }
func (m *mockConn) Write(b []byte) (int, error)        { return m.writeBuf.Write(b) }
func (m *mockConn) Close() error                       { return nil }
func (m *mockConn) SetDeadline(t time.Time) error      { return nil }
func (m *mockConn) SetReadDeadline(t time.Time) error  { return nil }
func (m *mockConn) SetWriteDeadline(t time.Time) error { return nil }

func (m *mockConn) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 8080}
}

func (m *mockConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9090}
}

func openTestCapture(t *testing.T) (*Capture, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wire.log")
	c, err := OpenCapture(path)
	if err != nil {
		t.Fatalf("OpenCapture() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, path
}

func TestNewLoggedConn_NilCapture(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	if got := NewLoggedConn(conn, nil); got != net.Conn(conn) {
		t.Errorf("NewLoggedConn(conn, nil) wrapped the connection")
	}
}

func TestLoggedConn_Write(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file system test in short mode")
	}

	c, path := openTestCapture(t)
	conn := newMockConn()
	lc := NewLoggedConn(conn, c)

	testData := []byte{0x00, 0x00, 0x00, 0x00, 0x2a}
	n, err := lc.Write(testData)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(testData) {
		t.Errorf("Write() wrote %d bytes, want %d", n, len(testData))
	}
	if !bytes.Equal(conn.writeBuf.Bytes(), testData) {
		t.Errorf("underlying conn got %x, want %x", conn.writeBuf.Bytes(), testData)
	}

	logData, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(logData)
	if !strings.HasPrefix(out, "-> 127.0.0.1:9090 5 bytes\n") {
		t.Errorf("capture header = %q", out)
	}
	if !strings.Contains(out, hex.Dump(testData)) {
		t.Errorf("capture does not contain hex dump: %q", out)
	}
}

func TestLoggedConn_Read(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file system test in short mode")
	}

	c, path := openTestCapture(t)
	conn := newMockConn()
	testData := []byte("read test data")
	conn.readBuf.Write(testData)

	lc := NewLoggedConn(conn, c)

	buf := make([]byte, len(testData))
	n, err := lc.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != len(testData) {
		t.Errorf("Read() read %d bytes, want %d", n, len(testData))
	}

	logData, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(logData), "<- 127.0.0.1:9090 14 bytes\n") {
		t.Errorf("capture header = %q", logData)
	}
}

func TestLoggedConn_Read_EOF(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file system test in short mode")
	}

	c, path := openTestCapture(t)
	lc := NewLoggedConn(newMockConn(), c)

	buf := make([]byte, 10)
	if _, err := lc.Read(buf); err != io.EOF {
		t.Errorf("Read() error = %v, want EOF", err)
	}

	logData, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(logData) != 0 {
		t.Errorf("capture should be empty after EOF, got %q", logData)
	}
}

func TestLoggedConn_AddressesAndDeadlines(t *testing.T) {
	t.Parallel()

	c, _ := openTestCapture(t)
	lc := NewLoggedConn(newMockConn(), c)

	if lc.LocalAddr() == nil || lc.RemoteAddr() == nil {
		t.Error("address accessor returned nil")
	}

	deadline := time.Now().Add(time.Second)
	if err := lc.SetDeadline(deadline); err != nil {
		t.Errorf("SetDeadline() error = %v", err)
	}
	if err := lc.SetReadDeadline(deadline); err != nil {
		t.Errorf("SetReadDeadline() error = %v", err)
	}
	if err := lc.SetWriteDeadline(deadline); err != nil {
		t.Errorf("SetWriteDeadline() error = %v", err)
	}
}
