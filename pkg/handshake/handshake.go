// Package handshake implements the connection preamble exchanged before any
// framed message. The server announces its 4-byte big-endian type id; the
// client answers with 1 if it expects that type and -1 otherwise.
//
// Both sides run on the raw connection. Buffered readers must only be
// attached once the preamble has completed.
package handshake

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	// Accept is the client's answer when the server type matches.
	Accept int32 = 1
	// Cancel is the client's answer when it abandons the connection.
	Cancel int32 = -1
)

// ErrCancelled is returned by Server when the client answered Cancel.
var ErrCancelled = errors.New("handshake: cancelled by client")

// TypeMismatchError is returned by Client when the server announces a type
// id different from the one the client expects.
type TypeMismatchError struct {
	Server int32
	Client int32
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("handshake: server type %d does not match client type %d", e.Server, e.Client)
}

// Server announces typeID and waits for the client's answer. A zero timeout
// waits indefinitely. The deadline is cleared before returning.
func Server(conn net.Conn, typeID int32, timeout time.Duration) error {
	if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
		defer func() { _ = conn.SetDeadline(time.Time{}) }()
	}

	if err := writeInt32(conn, typeID); err != nil {
		return fmt.Errorf("writing type id: %w", err)
	}

	answer, err := readInt32(conn)
	if err != nil {
		return fmt.Errorf("reading answer: %w", err)
	}
	if answer == Cancel {
		return ErrCancelled
	}

	return nil
}

// Client reads the server's type id and answers it. On a mismatch it sends
// Cancel and returns a *TypeMismatchError; closing the connection is left to
// the caller. A zero timeout waits indefinitely.
func Client(conn net.Conn, typeID int32, timeout time.Duration) error {
	if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
		defer func() { _ = conn.SetDeadline(time.Time{}) }()
	}

	serverType, err := readInt32(conn)
	if err != nil {
		return fmt.Errorf("reading server type: %w", err)
	}

	if serverType != typeID {
		// the server only needs the answer to release its slot, a failed
		// write changes nothing for the caller
		_ = writeInt32(conn, Cancel)
		return &TypeMismatchError{Server: serverType, Client: typeID}
	}

	if err := writeInt32(conn, Accept); err != nil {
		return fmt.Errorf("writing answer: %w", err)
	}

	return nil
}

func writeInt32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func readInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}
