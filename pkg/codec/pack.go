package codec

import (
	"fmt"
	"io"
)

const terminator = 0x80

// Pack spreads p over 7-bit groups, least significant bits first, one group
// per output byte. The high bit of the last output byte is set and every
// other output byte has it clear, so the result delimits itself without a
// length prefix. An empty p packs to a single terminator byte.
func Pack(p []byte) []byte {
	out := make([]byte, 0, PackedLen(len(p)))

	var acc uint16
	var bits uint
	for _, b := range p {
		acc |= uint16(b) << bits
		bits += 8
		for bits >= 7 {
			out = append(out, byte(acc&0x7f))
			acc >>= 7
			bits -= 7
		}
	}
	if bits > 0 || len(out) == 0 {
		out = append(out, byte(acc&0x7f))
	}

	out[len(out)-1] |= terminator
	return out
}

// PackedLen returns the number of transport bytes Pack produces for n bytes.
func PackedLen(n int) int {
	if n == 0 {
		return 1
	}
	return (8*n + 6) / 7
}

// Unpack reads transport bytes up to and including the terminator and
// returns the reconstructed payload. More than max transport bytes without a
// terminator fails with ErrTooLarge; max <= 0 disables the check.
func Unpack(r io.ByteReader, max int) ([]byte, error) {
	var out []byte
	var acc uint16
	var bits uint

	for n := 1; ; n++ {
		if max > 0 && n > max {
			return nil, fmt.Errorf("%w: object longer than %d bytes", ErrTooLarge, max)
		}

		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}

		acc |= uint16(b&0x7f) << bits
		bits += 7
		if bits >= 8 {
			out = append(out, byte(acc))
			acc >>= 8
			bits -= 8
		}

		if b&terminator != 0 {
			return out, nil
		}
	}
}
