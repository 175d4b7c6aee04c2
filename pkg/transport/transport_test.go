package transport

import (
	"context"
	"dominicbreuker/lannet/mocks"
	"dominicbreuker/lannet/pkg/config"
	"net"
	"testing"
	"time"
)

func TestUnsupportedProtocol(t *testing.T) {
	t.Parallel()

	if _, err := Listen(config.Protocol(0), "127.0.0.1:0", nil); err == nil {
		t.Error("Listen() with unknown protocol expected error, got nil")
	}
	if _, err := Dial(context.Background(), config.Protocol(42), "127.0.0.1:1", time.Second, nil); err == nil {
		t.Error("Dial() with unknown protocol expected error, got nil")
	}
}

func TestTCP_Mock(t *testing.T) {
	t.Parallel()

	mockNet := mocks.NewMockTCPNetwork()
	deps := &config.Dependencies{
		TCPDialer:   mockNet.DialTCP,
		TCPListener: mockNet.ListenTCP,
	}

	l, err := Listen(config.ProtoTCP, ":0", deps)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	port := l.Addr().(*net.TCPAddr).Port
	if port == 0 {
		t.Fatal("listener did not report its bound port")
	}

	go func() {
		if conn, err := l.Accept(); err == nil {
			conn.Close()
		}
	}()

	conn, err := Dial(context.Background(), config.ProtoTCP, l.Addr().String(), time.Second, deps)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	conn.Close()
}
