package hub

import "errors"

var (
	// ErrConnectionClosed is returned when sending on, or closing, a
	// connection that is not open. A client can reopen and join again.
	ErrConnectionClosed = errors.New("hub: connection closed")
	// ErrServerClosed is returned by operations that need an open server.
	ErrServerClosed = errors.New("hub: server closed")
	// ErrClientClosed is returned by operations on a closed client.
	ErrClientClosed = errors.New("hub: client closed")
	// ErrAlreadyJoined is returned by JoinServer while the client is in a
	// server or joining one.
	ErrAlreadyJoined = errors.New("hub: client already in a server")
	// ErrRuntimeClosed is returned when registering with a shut down runtime.
	ErrRuntimeClosed = errors.New("hub: runtime shut down")
)

// Reasons reported to OnLeftServer and sent to peers.
const (
	ReasonServerClosing = "The server is closing"
	ReasonForcedClose   = "The connection was forcibly closed from the other side"
	ReasonClientClosed  = "The client closed the connection"
)
