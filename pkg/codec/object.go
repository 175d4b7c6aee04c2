package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: cbor enc mode: %s", err))
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("codec: cbor dec mode: %s", err))
	}
	return dm
}

// Object carries an arbitrary application value serialized as CBOR.
type Object struct {
	raw []byte
}

// NewObject serializes v.
func NewObject(v any) (Object, error) {
	raw, err := encMode.Marshal(v)
	if err != nil {
		return Object{}, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}
	return Object{raw: raw}, nil
}

// ObjectFromRaw wraps an already serialized value after checking that it is
// well-formed.
func ObjectFromRaw(raw []byte) (Object, error) {
	if err := decMode.Wellformed(raw); err != nil {
		return Object{}, fmt.Errorf("%w: %w", ErrObjectDecode, err)
	}
	return Object{raw: raw}, nil
}

// Raw returns the serialized form.
func (o Object) Raw() []byte {
	return o.raw
}

// Decode deserializes the object into v, which must be a pointer.
func (o Object) Decode(v any) error {
	if err := decMode.Unmarshal(o.raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrObjectDecode, err)
	}
	return nil
}

// Value deserializes the object into its generic form (maps, slices,
// numbers, strings).
func (o Object) Value() (any, error) {
	var v any
	if err := o.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
