package mft

import (
	"encoding/binary"
	"unicode/utf16"
)

// decodeUTF16 decodes a UTF-16LE byte slice, same as the teacher's
// decodeUTF16 helper in the original ntfs package.
func decodeUTF16(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units))
}
