package hub

import (
	"dominicbreuker/lannet/pkg/codec"
	"dominicbreuker/lannet/pkg/discovery"
	"net"
)

// Receiver gets the decoded messages of one connection. Exactly one method
// is called per message, on the dispatcher goroutine.
type Receiver interface {
	ReceiveInt32(v int32)
	ReceiveChar(v uint16)
	ReceiveInt64(v int64)
	ReceiveFloat64(v float64)
	ReceiveByte(v byte)
	ReceiveInt16(v int16)
	ReceiveFloat32(v float32)
	ReceiveBool(v bool)
	ReceiveString(v string)
	ReceiveObject(o codec.Object)
}

// NopReceiver ignores every message. Embed it to implement only the
// receive methods an application cares about.
type NopReceiver struct{}

func (NopReceiver) ReceiveInt32(int32)         {}
func (NopReceiver) ReceiveChar(uint16)         {}
func (NopReceiver) ReceiveInt64(int64)         {}
func (NopReceiver) ReceiveFloat64(float64)     {}
func (NopReceiver) ReceiveByte(byte)           {}
func (NopReceiver) ReceiveInt16(int16)         {}
func (NopReceiver) ReceiveFloat32(float32)     {}
func (NopReceiver) ReceiveBool(bool)           {}
func (NopReceiver) ReceiveString(string)       {}
func (NopReceiver) ReceiveObject(codec.Object) {}

// deliver calls the receive method matching m.
func deliver(r Receiver, m codec.Message) {
	switch m := m.(type) {
	case codec.Int32:
		r.ReceiveInt32(int32(m))
	case codec.Char:
		r.ReceiveChar(uint16(m))
	case codec.Int64:
		r.ReceiveInt64(int64(m))
	case codec.Float64:
		r.ReceiveFloat64(float64(m))
	case codec.Byte:
		r.ReceiveByte(byte(m))
	case codec.Int16:
		r.ReceiveInt16(int16(m))
	case codec.Float32:
		r.ReceiveFloat32(float32(m))
	case codec.Bool:
		r.ReceiveBool(bool(m))
	case codec.String:
		r.ReceiveString(string(m))
	case codec.Object:
		r.ReceiveObject(m)
	}
}

// ServerHandler supplies the application side of a Server. All methods are
// called on the dispatcher goroutine.
type ServerHandler interface {
	// AdvertisedInfo is the payload sent in discovery replies.
	AdvertisedInfo() []byte
	// NewReceiver returns the receiver for a connection that is about to
	// run its handshake.
	NewReceiver(p *Peer) Receiver

	// OnPreAuth is called before the handshake of p starts.
	OnPreAuth(p *Peer)
	// OnCancelledConnect is called when the client abandoned the handshake.
	OnCancelledConnect(p *Peer)
	// OnPostAuth is called once p is in the roster and can send.
	OnPostAuth(p *Peer)
	// OnDisconnect is called when the client left. forced is true when the
	// connection was lost without a close notice. It is not called for
	// peers the server kicked.
	OnDisconnect(p *Peer, reason string, forced bool)
}

// BaseServerHandler advertises nothing, ignores messages and all lifecycle
// events. Embed it to override only what is needed.
type BaseServerHandler struct{}

func (BaseServerHandler) AdvertisedInfo() []byte           { return nil }
func (BaseServerHandler) NewReceiver(*Peer) Receiver       { return NopReceiver{} }
func (BaseServerHandler) OnPreAuth(*Peer)                  {}
func (BaseServerHandler) OnCancelledConnect(*Peer)         {}
func (BaseServerHandler) OnPostAuth(*Peer)                 {}
func (BaseServerHandler) OnDisconnect(*Peer, string, bool) {}

// ServerAuthenticator is an optional ServerHandler extension. It runs after
// the type handshake on the raw connection and decides whether the client
// is admitted. It runs on the handshake goroutine of the connection, not on
// the dispatcher. Without it every client is admitted.
type ServerAuthenticator interface {
	AuthenticateClient(p *Peer, conn net.Conn) bool
}

// ClientHandler supplies the application side of a Client. All methods are
// called on the dispatcher goroutine.
type ClientHandler interface {
	Receiver
	// OnServerInfo is called for every complete discovery reply.
	OnServerInfo(info discovery.ServerInfo)
	// OnLeftServer is called when the connection to the server ended.
	// forced is false only when the client left on its own.
	OnLeftServer(reason string, forced bool)
}

// ClientAuthenticator is an optional ClientHandler extension. It runs on
// the raw connection right after the type handshake, on the goroutine
// calling JoinServer. A non-nil error aborts the join.
type ClientAuthenticator interface {
	AuthenticateServer(conn net.Conn) error
}
