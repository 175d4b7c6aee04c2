package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf16"
)

// Encode frames m. The returned slice holds the complete frame.
func Encode(m Message) ([]byte, error) {
	buf := []byte{byte(m.Tag())}

	switch v := m.(type) {
	case Int32:
		buf = binary.BigEndian.AppendUint32(buf, uint32(v))
	case Char:
		buf = binary.BigEndian.AppendUint16(buf, uint16(v))
	case Int64:
		buf = binary.BigEndian.AppendUint64(buf, uint64(v))
	case Float64:
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(float64(v)))
	case Byte:
		buf = append(buf, byte(v))
	case Int16:
		buf = binary.BigEndian.AppendUint16(buf, uint16(v))
	case Float32:
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(v)))
	case Bool:
		if v {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case String:
		buf = appendUTF16(buf, string(v))
	case Object:
		buf = append(buf, Pack(v.raw)...)
	case CloseNotice:
		buf = appendUTF16(buf, v.Reason)
	case ForcedClose:
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, m)
	}

	return buf, nil
}

// appendUTF16 appends the unit count and the UTF-16 code units of s.
func appendUTF16(buf []byte, s string) []byte {
	units := utf16.Encode([]rune(s))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(units)))
	for _, u := range units {
		buf = binary.BigEndian.AppendUint16(buf, u)
	}
	return buf
}

// WriteMessage frames m and writes it with a single call to w.
func WriteMessage(w io.Writer, m Message) error {
	buf, err := Encode(m)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing %s frame: %w", m.Tag(), err)
	}
	return nil
}
