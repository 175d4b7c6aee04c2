package codec

import "fmt"

// Tag identifies the message type on the wire.
type Tag byte

const (
	TagInt32       Tag = 0
	TagChar        Tag = 1
	TagInt64       Tag = 2
	TagFloat64     Tag = 3
	TagByte        Tag = 4
	TagInt16       Tag = 5
	TagFloat32     Tag = 6
	TagBool        Tag = 7
	TagString      Tag = 8
	TagObject      Tag = 9
	TagCloseNotice Tag = 11
	TagForcedClose Tag = 12
)

var tagNames = map[Tag]string{
	TagInt32:       "int32",
	TagChar:        "char",
	TagInt64:       "int64",
	TagFloat64:     "float64",
	TagByte:        "byte",
	TagInt16:       "int16",
	TagFloat32:     "float32",
	TagBool:        "bool",
	TagString:      "string",
	TagObject:      "object",
	TagCloseNotice: "close",
	TagForcedClose: "forced-close",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tag(%d)", byte(t))
}

// Message is one complete frame. The set of implementations is closed.
type Message interface {
	Tag() Tag
	sealed()
}

type (
	Int32   int32
	Char    uint16
	Int64   int64
	Float64 float64
	Byte    byte
	Int16   int16
	Float32 float32
	Bool    bool
	String  string
)

// CloseNotice announces a graceful close with a reason.
type CloseNotice struct {
	Reason string
}

// ForcedClose announces a close without a reason.
type ForcedClose struct{}

func (Int32) Tag() Tag       { return TagInt32 }
func (Char) Tag() Tag        { return TagChar }
func (Int64) Tag() Tag       { return TagInt64 }
func (Float64) Tag() Tag     { return TagFloat64 }
func (Byte) Tag() Tag        { return TagByte }
func (Int16) Tag() Tag       { return TagInt16 }
func (Float32) Tag() Tag     { return TagFloat32 }
func (Bool) Tag() Tag        { return TagBool }
func (String) Tag() Tag      { return TagString }
func (Object) Tag() Tag      { return TagObject }
func (CloseNotice) Tag() Tag { return TagCloseNotice }
func (ForcedClose) Tag() Tag { return TagForcedClose }

func (Int32) sealed()       {}
func (Char) sealed()        {}
func (Int64) sealed()       {}
func (Float64) sealed()     {}
func (Byte) sealed()        {}
func (Int16) sealed()       {}
func (Float32) sealed()     {}
func (Bool) sealed()        {}
func (String) sealed()      {}
func (Object) sealed()      {}
func (CloseNotice) sealed() {}
func (ForcedClose) sealed() {}

// IsClose reports whether m ends the connection.
func IsClose(m Message) bool {
	t := m.Tag()
	return t == TagCloseNotice || t == TagForcedClose
}

// Close returns the close frame for reason: a ForcedClose when reason is
// empty, a CloseNotice otherwise.
func Close(reason string) Message {
	if reason == "" {
		return ForcedClose{}
	}
	return CloseNotice{Reason: reason}
}
