package codec

import (
	"bufio"
	"bytes"
	"math/rand"
	"testing"
)

func countTerminators(p []byte) int {
	n := 0
	for _, b := range p {
		if b&terminator != 0 {
			n++
		}
	}
	return n
}

func TestPackUnpack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", []byte{}},
		{"single zero", []byte{0x00}},
		{"single ff", []byte{0xff}},
		{"seven bytes", []byte{1, 2, 3, 4, 5, 6, 7}},
		{"eight bytes", []byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb, 0xfa, 0xf9, 0xf8}},
		{"high bits", bytes.Repeat([]byte{0x80}, 13)},
		{"text", []byte("the quick brown fox")},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			packed := Pack(tc.in)
			if len(packed) != PackedLen(len(tc.in)) {
				t.Errorf("len(Pack()) = %d, want %d", len(packed), PackedLen(len(tc.in)))
			}
			if n := countTerminators(packed); n != 1 {
				t.Errorf("terminator set on %d bytes, want 1", n)
			}
			if packed[len(packed)-1]&terminator == 0 {
				t.Error("terminator not on the last byte")
			}

			got, err := Unpack(bytes.NewReader(packed), 0)
			if err != nil {
				t.Fatalf("Unpack() error = %v", err)
			}
			if !bytes.Equal(got, tc.in) {
				t.Errorf("Unpack(Pack(%x)) = %x", tc.in, got)
			}
		})
	}
}

func TestPackUnpack_Random(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		in := make([]byte, rng.Intn(300))
		rng.Read(in)

		packed := Pack(in)
		if n := countTerminators(packed); n != 1 {
			t.Fatalf("iteration %d: terminator set on %d bytes", i, n)
		}

		got, err := Unpack(bytes.NewReader(packed), 0)
		if err != nil {
			t.Fatalf("iteration %d: Unpack() error = %v", i, err)
		}
		if !bytes.Equal(got, in) {
			t.Fatalf("iteration %d: round trip mismatch\n in: %x\nout: %x", i, in, got)
		}
	}
}

func TestUnpack_StopsAtTerminator(t *testing.T) {
	t.Parallel()

	stream := append(Pack([]byte("abc")), 0x01, 0x02)
	r := bufio.NewReader(bytes.NewReader(stream))

	got, err := Unpack(r, 0)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if string(got) != "abc" {
		t.Errorf("Unpack() = %q, want %q", got, "abc")
	}
	if r.Buffered() != 2 {
		t.Errorf("Unpack() consumed past the terminator, %d bytes left", r.Buffered())
	}
}
