package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf16"
)

// Limits bounds the memory a single frame may claim.
type Limits struct {
	// MaxStringUnits caps the unit count of String and CloseNotice frames.
	MaxStringUnits int
	// MaxObjectBytes caps the transport bytes of an Object frame.
	MaxObjectBytes int
}

// DefaultLimits returns limits suitable for interactive applications.
func DefaultLimits() Limits {
	return Limits{
		MaxStringUnits: 1 << 20,
		MaxObjectBytes: 16 * 1024 * 1024,
	}
}

var fixedSize = map[Tag]int{
	TagInt32:   4,
	TagChar:    2,
	TagInt64:   8,
	TagFloat64: 8,
	TagByte:    1,
	TagInt16:   2,
	TagFloat32: 4,
	TagBool:    1,
}

// FixedSize returns the payload size of a fixed-width tag.
func FixedSize(t Tag) (int, bool) {
	n, ok := fixedSize[t]
	return n, ok
}

// ReadMessage reads exactly one frame from r. It blocks until the whole
// frame is available; a partially received frame is never returned.
//
// EOF before the tag byte yields ErrStreamClosed, EOF inside a frame yields
// io.ErrUnexpectedEOF.
func ReadMessage(r *bufio.Reader, limits Limits) (Message, error) {
	b, err := r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrStreamClosed, err)
		}
		return nil, err
	}
	tag := Tag(b)

	if n, ok := fixedSize[tag]; ok {
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return nil, unexpected(err)
		}
		return decodeFixed(tag, buf[:n]), nil
	}

	switch tag {
	case TagString:
		s, err := readUTF16(r, limits.MaxStringUnits)
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case TagCloseNotice:
		s, err := readUTF16(r, limits.MaxStringUnits)
		if err != nil {
			return nil, err
		}
		return CloseNotice{Reason: s}, nil
	case TagForcedClose:
		return ForcedClose{}, nil
	case TagObject:
		raw, err := Unpack(r, limits.MaxObjectBytes)
		if err != nil {
			return nil, unexpected(err)
		}
		obj, err := ObjectFromRaw(raw)
		if err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, b)
	}
}

func decodeFixed(tag Tag, p []byte) Message {
	switch tag {
	case TagInt32:
		return Int32(binary.BigEndian.Uint32(p))
	case TagChar:
		return Char(binary.BigEndian.Uint16(p))
	case TagInt64:
		return Int64(binary.BigEndian.Uint64(p))
	case TagFloat64:
		return Float64(math.Float64frombits(binary.BigEndian.Uint64(p)))
	case TagByte:
		return Byte(p[0])
	case TagInt16:
		return Int16(binary.BigEndian.Uint16(p))
	case TagFloat32:
		return Float32(math.Float32frombits(binary.BigEndian.Uint32(p)))
	default: // TagBool
		return Bool(p[0] == 1)
	}
}

func readUTF16(r io.Reader, max int) (string, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return "", unexpected(err)
	}

	n := int32(binary.BigEndian.Uint32(hdr[:]))
	if n < 0 {
		return "", fmt.Errorf("%w: string of %d units", ErrInvalidLength, n)
	}
	if max > 0 && int(n) > max {
		return "", fmt.Errorf("%w: string of %d units", ErrTooLarge, n)
	}

	p := make([]byte, 2*int(n))
	if _, err := io.ReadFull(r, p); err != nil {
		return "", unexpected(err)
	}

	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(p[2*i:])
	}
	return string(utf16.Decode(units)), nil
}

// unexpected maps a clean EOF inside a frame to io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
