package ws

import (
	"context"
	"dominicbreuker/lannet/mocks"
	"dominicbreuker/lannet/pkg/config"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

func exchange(t *testing.T, l net.Listener, deps *config.Dependencies) {
	t.Helper()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	conn, err := Dial(context.Background(), l.Addr().String(), 5*time.Second, deps)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	var server net.Conn
	select {
	case server = <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("Accept() did not return")
	}
	defer server.Close()

	go server.Write([]byte{0, 0, 0, 9})
	buf := make([]byte, 4)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("client ReadFull() error = %v", err)
	}
	if buf[3] != 9 {
		t.Errorf("client read %x, want 00000009", buf)
	}

	go conn.Write([]byte("ack"))
	reply := make([]byte, 3)
	if _, err := io.ReadFull(server, reply); err != nil {
		t.Fatalf("server ReadFull() error = %v", err)
	}
	if string(reply) != "ack" {
		t.Errorf("server read %q, want %q", reply, "ack")
	}
}

func TestListenAndDial_Mock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping http test in short mode")
	}

	mockNet := mocks.NewMockTCPNetwork()
	deps := &config.Dependencies{
		TCPDialer:   mockNet.DialTCP,
		TCPListener: mockNet.ListenTCP,
	}

	l, err := Listen("127.0.0.1:0", deps)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	exchange(t, l, deps)
}

func TestListenAndDial_Loopback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}

	l, err := Listen("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	exchange(t, l, nil)
}

func TestListener_Close(t *testing.T) {
	t.Parallel()

	mockNet := mocks.NewMockTCPNetwork()
	deps := &config.Dependencies{TCPListener: mockNet.ListenTCP}

	l, err := Listen("127.0.0.1:0", deps)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := l.Accept()
		errCh <- err
	}()

	l.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, net.ErrClosed) {
			t.Errorf("Accept() after Close error = %v, want net.ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Accept() did not return after Close")
	}

	// closing twice is harmless
	if err := l.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestDial_Refused(t *testing.T) {
	t.Parallel()

	mockNet := mocks.NewMockTCPNetwork()
	deps := &config.Dependencies{TCPDialer: mockNet.DialTCP}

	if _, err := Dial(context.Background(), "127.0.0.1:5000", time.Second, deps); err == nil {
		t.Error("Dial() without listener expected error, got nil")
	}
}
