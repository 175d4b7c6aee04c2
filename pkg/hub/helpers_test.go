package hub

import (
	"dominicbreuker/lannet/mocks"
	"dominicbreuker/lannet/pkg/codec"
	"dominicbreuker/lannet/pkg/config"
	"dominicbreuker/lannet/pkg/discovery"
	"testing"
	"time"
)

const waitTimeout = 3 * time.Second

type event struct {
	kind   string
	peer   *Peer
	value  any
	reason string
	forced bool
	info   discovery.ServerInfo
}

// recorder implements Receiver by recording every message.
type recorder struct {
	events chan event
	peer   *Peer
	// onInt32 runs after an int32 was recorded.
	onInt32 func(p *Peer, v int32)
}

func (r *recorder) put(kind string, v any) {
	r.events <- event{kind: kind, peer: r.peer, value: v}
}

func (r *recorder) ReceiveInt32(v int32) {
	r.put("int32", v)
	if r.onInt32 != nil {
		r.onInt32(r.peer, v)
	}
}
func (r *recorder) ReceiveChar(v uint16)         { r.put("char", v) }
func (r *recorder) ReceiveInt64(v int64)         { r.put("int64", v) }
func (r *recorder) ReceiveFloat64(v float64)     { r.put("float64", v) }
func (r *recorder) ReceiveByte(v byte)           { r.put("byte", v) }
func (r *recorder) ReceiveInt16(v int16)         { r.put("int16", v) }
func (r *recorder) ReceiveFloat32(v float32)     { r.put("float32", v) }
func (r *recorder) ReceiveBool(v bool)           { r.put("bool", v) }
func (r *recorder) ReceiveString(v string)       { r.put("string", v) }
func (r *recorder) ReceiveObject(o codec.Object) { r.put("object", o) }

type serverRecorder struct {
	events  chan event
	info    []byte
	onInt32 func(p *Peer, v int32)
}

func newServerRecorder(info string) *serverRecorder {
	return &serverRecorder{events: make(chan event, 100), info: []byte(info)}
}

func (h *serverRecorder) AdvertisedInfo() []byte { return h.info }

func (h *serverRecorder) NewReceiver(p *Peer) Receiver {
	return &recorder{events: h.events, peer: p, onInt32: h.onInt32}
}

func (h *serverRecorder) OnPreAuth(p *Peer) {
	h.events <- event{kind: "preauth", peer: p}
}

func (h *serverRecorder) OnCancelledConnect(p *Peer) {
	h.events <- event{kind: "cancelled", peer: p}
}

func (h *serverRecorder) OnPostAuth(p *Peer) {
	h.events <- event{kind: "postauth", peer: p}
}

func (h *serverRecorder) OnDisconnect(p *Peer, reason string, forced bool) {
	h.events <- event{kind: "disconnect", peer: p, reason: reason, forced: forced}
}

type clientRecorder struct {
	recorder
}

func newClientRecorder() *clientRecorder {
	return &clientRecorder{recorder{events: make(chan event, 100)}}
}

func (h *clientRecorder) OnServerInfo(info discovery.ServerInfo) {
	h.events <- event{kind: "serverinfo", info: info}
}

func (h *clientRecorder) OnLeftServer(reason string, forced bool) {
	h.events <- event{kind: "left", reason: reason, forced: forced}
}

// next returns the next event or fails the test.
func next(t *testing.T, events chan event) event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for event")
		return event{}
	}
}

// expect returns the next event and fails unless it has kind.
func expect(t *testing.T, events chan event, kind string) event {
	t.Helper()
	e := next(t, events)
	if e.kind != kind {
		t.Fatalf("got %q event, want %q", e.kind, kind)
	}
	return e
}

// quiet fails if any event arrives within d.
func quiet(t *testing.T, events chan event, d time.Duration) {
	t.Helper()
	select {
	case e := <-events:
		t.Fatalf("unexpected %q event", e.kind)
	case <-time.After(d):
	}
}

type testNet struct {
	tcp  *mocks.MockTCPNetwork
	udp  *mocks.MockUDPNetwork
	deps *config.Dependencies
}

func newTestNet() *testNet {
	tcpNet := mocks.NewMockTCPNetwork()
	udpNet := mocks.NewMockUDPNetwork()
	return &testNet{
		tcp: tcpNet,
		udp: udpNet,
		deps: &config.Dependencies{
			TCPDialer:         tcpNet.DialTCP,
			TCPListener:       tcpNet.ListenTCP,
			PacketListener:    udpNet.ListenPacket,
			MulticastListener: udpNet.ListenMulticast,
		},
	}
}

func (n *testNet) shared(typeID int32) *config.Shared {
	return &config.Shared{
		Protocol: config.ProtoTCP,
		Host:     "127.0.0.1",
		TypeID:   typeID,
		Timeout:  2 * time.Second,
		Deps:     n.deps,
	}
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt := NewRuntime(nil, nil)
	t.Cleanup(rt.Shutdown)
	return rt
}

// openServer opens a server of typeID on an ephemeral port.
func openServer(t *testing.T, rt *Runtime, n *testNet, typeID int32, public bool, h ServerHandler) *Server {
	t.Helper()
	s := NewServer(rt, h, n.shared(typeID), &config.Server{Public: public})
	if err := s.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newClient(t *testing.T, rt *Runtime, n *testNet, typeID int32, h ClientHandler) *Client {
	t.Helper()
	c, err := NewClient(rt, h, n.shared(typeID))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}
