package discovery

import (
	"bytes"
	"net"
	"testing"
	"time"
)

// recorder is a net.PacketConn that keeps every datagram written to it.
type recorder struct {
	net.PacketConn
	sent [][]byte
	to   []net.Addr
}

func (r *recorder) WriteTo(p []byte, addr net.Addr) (int, error) {
	r.sent = append(r.sent, append([]byte(nil), p...))
	r.to = append(r.to, addr)
	return len(p), nil
}

func TestProbe(t *testing.T) {
	t.Parallel()

	for _, id := range []int32{0, 1, -1, 123456789} {
		p := EncodeProbe(id)
		if len(p) != 4 {
			t.Fatalf("len(EncodeProbe(%d)) = %d", id, len(p))
		}
		got, ok := DecodeProbe(p)
		if !ok || got != id {
			t.Errorf("DecodeProbe(EncodeProbe(%d)) = %d, %v", id, got, ok)
		}
	}

	if !bytes.Equal(EncodeProbe(258), []byte{0, 0, 1, 2}) {
		t.Errorf("EncodeProbe(258) = %v, want big-endian", EncodeProbe(258))
	}
	if _, ok := DecodeProbe([]byte{1, 2, 3}); ok {
		t.Error("DecodeProbe(3 bytes) ok = true")
	}
}

func TestWriteReply(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	dst := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 9), Port: 50000}

	if err := WriteReply(r, dst, 0x1234, []byte("room")); err != nil {
		t.Fatalf("WriteReply() error = %v", err)
	}

	want := [][]byte{
		[]byte("sinfo"),
		{0x34, 0x12},
		{0, 0, 0, 4},
		[]byte("room"),
	}
	if len(r.sent) != len(want) {
		t.Fatalf("WriteReply() sent %d datagrams, want %d", len(r.sent), len(want))
	}
	for i := range want {
		if !bytes.Equal(r.sent[i], want[i]) {
			t.Errorf("datagram %d = %v, want %v", i, r.sent[i], want[i])
		}
		if r.to[i] != dst {
			t.Errorf("datagram %d sent to %v, want %v", i, r.to[i], dst)
		}
	}
}

func TestSendProbe(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	group := &net.UDPAddr{IP: net.IPv4(232, 45, 103, 96), Port: 2562}
	if err := SendProbe(r, group, 9); err != nil {
		t.Fatalf("SendProbe() error = %v", err)
	}
	if len(r.sent) != 1 || !bytes.Equal(r.sent[0], EncodeProbe(9)) || r.to[0] != group {
		t.Errorf("SendProbe() wrote %v to %v", r.sent, r.to)
	}
}

func TestSocket(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}
	t.Parallel()

	a, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	b, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	defer b.Close()

	notified := make(chan struct{}, 16)
	s := NewSocket(a, func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})

	if _, ok := s.Next(); ok {
		t.Fatal("Next() on empty socket ok = true")
	}

	if _, err := b.WriteTo([]byte("hello"), a.LocalAddr()); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("no notification for received datagram")
	}

	d, ok := s.Next()
	if !ok {
		t.Fatal("Next() ok = false after notification")
	}
	if string(d.Data) != "hello" || d.From.String() != b.LocalAddr().String() {
		t.Errorf("Next() = %q from %v", d.Data, d.From)
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := s.Err(); err != nil {
		t.Errorf("Err() after local Close() = %v", err)
	}
}

func TestListenMulticast(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping multicast test in short mode")
	}
	t.Parallel()

	group := &net.UDPAddr{IP: net.IPv4(239, 45, 103, 96), Port: 42562}

	first, err := ListenMulticast(group, nil)
	if err != nil {
		t.Skipf("multicast unavailable: %v", err)
	}
	defer first.Close()

	second, err := ListenMulticast(group, nil)
	if err != nil {
		t.Fatalf("second ListenMulticast() on shared port error = %v", err)
	}
	defer second.Close()
}

func TestUsableInterface(t *testing.T) {
	t.Parallel()

	ifi, ip, err := UsableInterface()
	if err == ErrNoInterface {
		t.Skip("no usable interface on this host")
	}
	if err != nil {
		t.Fatalf("UsableInterface() error = %v", err)
	}
	if ifi.Flags&net.FlagLoopback != 0 || ifi.Flags&net.FlagUp == 0 {
		t.Errorf("UsableInterface() = %s with flags %v", ifi.Name, ifi.Flags)
	}
	if ip.To4() == nil {
		t.Errorf("UsableInterface() ip = %v, want IPv4", ip)
	}
}

func TestUsable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ifi  net.Interface
		want bool
	}{
		{"ethernet", net.Interface{Name: "eth0", Flags: net.FlagUp | net.FlagMulticast}, true},
		{"down", net.Interface{Name: "eth1"}, false},
		{"loopback", net.Interface{Name: "lo", Flags: net.FlagUp | net.FlagLoopback}, false},
		{"docker bridge", net.Interface{Name: "docker0", Flags: net.FlagUp}, false},
		{"virtualbox", net.Interface{Name: "VirtualBox Host-Only", Flags: net.FlagUp}, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := usable(&tc.ifi); got != tc.want {
				t.Errorf("usable(%s) = %v, want %v", tc.ifi.Name, got, tc.want)
			}
		})
	}
}
