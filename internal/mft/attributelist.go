package mft

import (
	"encoding/binary"
	"fmt"

	"github.com/shubham/indxripper/internal/nterr"
)

const attributeListEntryMinSize = 26

// AttributeListEntry is one entry of a parsed $ATTRIBUTE_LIST: it names an
// attribute instance (type + optional name) living at StartVCN within the
// extension record ExtensionRef.
type AttributeListEntry struct {
	Type         uint32
	Name         string
	StartVCN     uint64
	ExtensionRef FileReference
}

// ParseAttributeList parses the reconstructed logical content of an
// $ATTRIBUTE_LIST attribute into its entries.
func ParseAttributeList(data []byte) ([]AttributeListEntry, error) {
	var entries []AttributeListEntry

	offset := 0
	for offset+attributeListEntryMinSize <= len(data) {
		recordLength := binary.LittleEndian.Uint16(data[offset+4 : offset+6])
		if recordLength == 0 {
			break
		}
		if int(recordLength) > len(data)-offset {
			return nil, fmt.Errorf("%w: attribute list entry overruns buffer", nterr.ErrBadAttribute)
		}

		entry := data[offset : offset+int(recordLength)]
		nameLength := entry[6]
		nameOffset := entry[7]

		e := AttributeListEntry{
			Type:         binary.LittleEndian.Uint32(entry[0:4]),
			StartVCN:     binary.LittleEndian.Uint64(entry[8:16]),
			ExtensionRef: FileReference(binary.LittleEndian.Uint64(entry[16:24])),
		}
		if nameLength > 0 {
			end := int(nameOffset) + int(nameLength)*2
			if end <= len(entry) {
				e.Name = decodeUTF16(entry[nameOffset:end])
			}
		}
		entries = append(entries, e)

		offset += int(recordLength)
	}

	return entries, nil
}
