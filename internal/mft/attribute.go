package mft

import (
	"encoding/binary"
	"fmt"

	"github.com/shubham/indxripper/internal/nterr"
	"github.com/shubham/indxripper/internal/runlist"
)

// Attribute type codes that matter to this reader. Anything else is parsed
// down to a generic Attribute (header + raw body) and otherwise ignored,
// per spec.md §3 "others-ignored".
const (
	AttrTypeStandardInformation uint32 = 0x10
	AttrTypeAttributeList      uint32 = 0x20
	AttrTypeFileName           uint32 = 0x30
	AttrTypeData               uint32 = 0x80
	AttrTypeIndexRoot          uint32 = 0x90
	AttrTypeIndexAllocation    uint32 = 0xA0

	attrTerminator uint32 = 0xFFFFFFFF
)

// Attribute is the tagged variant described in spec.md §3: resident
// attributes carry their value inline, non-resident attributes carry a raw
// runlist plus logical/allocated sizes. Kind-specific content ($FILE_NAME,
// $ATTRIBUTE_LIST) is parsed from the stored bytes on demand rather than
// eagerly, since most attribute instances are never inspected.
type Attribute struct {
	Type        uint32
	Name        string
	NonResident bool
	StartVCN    uint64 // only meaningful for non-resident instances

	ResidentData []byte // valid when !NonResident

	RunlistBytes    []byte // valid when NonResident
	AllocatedSize   uint64
	RealSize        uint64
	InitializedSize uint64

	// Runs is set only for attributes that were reassembled across
	// $ATTRIBUTE_LIST extension records (see mergeAttributeList); it holds
	// the already-decoded, VCN-ordered concatenation of every instance's
	// runlist. Callers should prefer it over re-decoding RunlistBytes when
	// it is non-nil.
	Runs []runlist.Run
}

// parseAttributes walks the attribute stream of a record starting at
// attrsOffset until the 0xFFFFFFFF terminator or the end of the buffer.
func parseAttributes(record []byte, attrsOffset int) ([]Attribute, error) {
	var attrs []Attribute

	offset := attrsOffset
	for offset+16 <= len(record) {
		attrType := binary.LittleEndian.Uint32(record[offset:])
		if attrType == attrTerminator {
			break
		}

		attrLen := binary.LittleEndian.Uint32(record[offset+4:])
		if attrLen < 16 || int(attrLen) > len(record)-offset {
			return nil, fmt.Errorf("%w: attribute length %d at offset %d out of bounds",
				nterr.ErrBadAttribute, attrLen, offset)
		}

		body := record[offset : offset+int(attrLen)]
		attr, err := parseOneAttribute(attrType, body)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)

		offset += int(attrLen)
	}

	return attrs, nil
}

func parseOneAttribute(attrType uint32, body []byte) (Attribute, error) {
	if len(body) < 16 {
		return Attribute{}, fmt.Errorf("%w: attribute header too short", nterr.ErrBadAttribute)
	}

	nonResident := body[8]
	nameLength := body[9]
	nameOffset := binary.LittleEndian.Uint16(body[10:12])

	var name string
	if nameLength > 0 {
		end := int(nameOffset) + int(nameLength)*2
		if end > len(body) {
			return Attribute{}, fmt.Errorf("%w: attribute name out of bounds", nterr.ErrBadAttribute)
		}
		name = decodeUTF16(body[nameOffset:end])
	}

	attr := Attribute{Type: attrType, Name: name, NonResident: nonResident != 0}

	if nonResident == 0 {
		if len(body) < 24 {
			return Attribute{}, fmt.Errorf("%w: resident attribute header too short", nterr.ErrBadAttribute)
		}
		valueLength := binary.LittleEndian.Uint32(body[16:20])
		valueOffset := binary.LittleEndian.Uint16(body[20:22])
		end := int(valueOffset) + int(valueLength)
		if end > len(body) {
			return Attribute{}, fmt.Errorf("%w: resident value out of bounds", nterr.ErrBadAttribute)
		}
		attr.ResidentData = body[valueOffset:end]
		return attr, nil
	}

	if len(body) < 64 {
		return Attribute{}, fmt.Errorf("%w: non-resident attribute header too short", nterr.ErrBadAttribute)
	}
	attr.StartVCN = binary.LittleEndian.Uint64(body[16:24])
	dataRunsOffset := binary.LittleEndian.Uint16(body[32:34])
	attr.AllocatedSize = binary.LittleEndian.Uint64(body[40:48])
	attr.RealSize = binary.LittleEndian.Uint64(body[48:56])
	attr.InitializedSize = binary.LittleEndian.Uint64(body[56:64])
	if int(dataRunsOffset) > len(body) {
		return Attribute{}, fmt.Errorf("%w: data runs offset out of bounds", nterr.ErrBadAttribute)
	}
	attr.RunlistBytes = body[dataRunsOffset:]

	return attr, nil
}
