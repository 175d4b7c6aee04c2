package codec

import "errors"

var (
	// ErrStreamClosed is returned when the stream ends on a frame boundary.
	ErrStreamClosed = errors.New("codec: stream closed")
	// ErrUnknownTag is returned for a tag byte that names no message type.
	// The tag byte has been consumed; the stream stays usable.
	ErrUnknownTag = errors.New("codec: unknown tag")
	// ErrInvalidLength is returned for a negative length prefix.
	ErrInvalidLength = errors.New("codec: invalid length")
	// ErrTooLarge is returned when a frame exceeds the configured Limits.
	ErrTooLarge = errors.New("codec: frame exceeds limits")
	// ErrObjectDecode is returned when an object frame was read completely
	// but its content is not a well-formed serialized value.
	ErrObjectDecode = errors.New("codec: malformed object")
	// ErrUnsupportedValue is returned by FromValue for values that can be
	// neither mapped to a primitive message nor serialized as an object.
	ErrUnsupportedValue = errors.New("codec: unsupported value")
)

// Recoverable reports whether the stream can still be read after err.
// Frame content errors leave the stream positioned at the next frame;
// everything else means the stream is out of sync or gone.
func Recoverable(err error) bool {
	return errors.Is(err, ErrUnknownTag) || errors.Is(err, ErrObjectDecode)
}
