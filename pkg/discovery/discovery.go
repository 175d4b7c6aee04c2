// Package discovery implements LAN server discovery over UDP multicast.
//
// A client sends a probe, the 4-byte big-endian type id it is looking for,
// to the multicast group. Every public server of that type answers the
// sender with four datagrams:
//
//	"sinfo"                  magic
//	port                     2 bytes, little-endian
//	length                   4 bytes, big-endian
//	payload                  length bytes of advertised info
package discovery

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Magic opens every reply sequence.
const Magic = "sinfo"

// EncodeProbe returns the probe datagram for typeID.
func EncodeProbe(typeID int32) []byte {
	var p [4]byte
	binary.BigEndian.PutUint32(p[:], uint32(typeID))
	return p[:]
}

// DecodeProbe parses a probe datagram.
func DecodeProbe(p []byte) (int32, bool) {
	if len(p) != 4 {
		return 0, false
	}
	return int32(binary.BigEndian.Uint32(p)), true
}

// SendProbe sends a probe for typeID to group.
func SendProbe(pc net.PacketConn, group net.Addr, typeID int32) error {
	if _, err := pc.WriteTo(EncodeProbe(typeID), group); err != nil {
		return fmt.Errorf("WriteTo(%s): %w", group, err)
	}
	return nil
}

// WriteReply sends the reply sequence for a server listening on port to addr.
func WriteReply(pc net.PacketConn, addr net.Addr, port int, info []byte) error {
	var portBuf [2]byte
	binary.LittleEndian.PutUint16(portBuf[:], uint16(port))

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(info)))

	for _, p := range [][]byte{[]byte(Magic), portBuf[:], lenBuf[:], info} {
		if _, err := pc.WriteTo(p, addr); err != nil {
			return fmt.Errorf("WriteTo(%s): %w", addr, err)
		}
	}
	return nil
}
