package codec

import (
	"fmt"
	"math"
)

// FromValue maps a Go value to the message that carries it. Primitive types
// map to their fixed-width message; an int must fit into an Int32. Messages
// pass through unchanged and everything else is serialized as an Object.
func FromValue(v any) (Message, error) {
	switch x := v.(type) {
	case Message:
		return x, nil
	case int32:
		return Int32(x), nil
	case uint16:
		return Char(x), nil
	case int64:
		return Int64(x), nil
	case float64:
		return Float64(x), nil
	case byte:
		return Byte(x), nil
	case int16:
		return Int16(x), nil
	case float32:
		return Float32(x), nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		if x < math.MinInt32 || x > math.MaxInt32 {
			return nil, fmt.Errorf("%w: int %d does not fit into int32", ErrUnsupportedValue, x)
		}
		return Int32(x), nil
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedValue)
	}

	obj, err := NewObject(v)
	if err != nil {
		return nil, err
	}
	return obj, nil
}
