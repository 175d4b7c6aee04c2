// Package codec implements the framed wire format shared by every
// connection.
//
// A frame starts with a one byte tag followed by a tag specific payload:
//
//	tag  type         payload
//	0    Int32        4 bytes
//	1    Char         2 bytes (one UTF-16 code unit)
//	2    Int64        8 bytes
//	3    Float64      8 bytes (IEEE 754)
//	4    Byte         1 byte
//	5    Int16        2 bytes
//	6    Float32      4 bytes (IEEE 754)
//	7    Bool         1 byte
//	8    String       int32 unit count, then count UTF-16 code units
//	9    Object       CBOR stream packed 7 bits per byte, high bit ends it
//	11   CloseNotice  same layout as String, the reason
//	12   ForcedClose  no payload
//
// All multi-byte integers are big-endian. The tag values are the wire
// contract; Go type names are not.
package codec
