// Package mft parses NTFS Master File Table records and maintains the
// catalogue of every in-use (and not-in-use, for parent-chain purposes)
// record, keyed by record number.
package mft

import (
	"encoding/binary"
	"fmt"

	"github.com/shubham/indxripper/internal/fixup"
	"github.com/shubham/indxripper/internal/nterr"
)

const recordMagic = "FILE"

// Record flag bits.
const (
	FlagInUse       uint16 = 0x0001
	FlagIsDirectory uint16 = 0x0002
)

// Record is a parsed MFT record: header fields plus its attribute stream.
// Attributes here are exactly what lives in this one physical record —
// following $ATTRIBUTE_LIST into extension records is the catalogue
// builder's job (see catalogue.go), not this parser's.
type Record struct {
	RecordNumber        uint64
	SequenceNumber      uint16
	Flags               uint16
	BaseRecordReference FileReference
	Attributes          []Attribute
}

// InUse reports whether the record's in-use flag is set.
func (r Record) InUse() bool { return r.Flags&FlagInUse != 0 }

// IsDirectory reports whether the record's is-directory flag is set.
func (r Record) IsDirectory() bool { return r.Flags&FlagIsDirectory != 0 }

// IsBaseRecord reports whether this record is a base record (as opposed to
// an extension record referenced from another record's $ATTRIBUTE_LIST).
func (r Record) IsBaseRecord() bool { return r.BaseRecordReference == 0 }

// ParseRecord parses a fixed-size MFT record buffer (fixup not yet
// applied) into a Record. buf is mutated in place by the fixup step.
func ParseRecord(buf []byte, recordNumber uint64, sectorSize int) (Record, error) {
	if len(buf) < 48 {
		return Record{}, fmt.Errorf("%w: record buffer too short", nterr.ErrBadAttribute)
	}
	if string(buf[0:4]) != recordMagic {
		return Record{}, fmt.Errorf("%w: record %d missing FILE magic", nterr.ErrBadAttribute, recordNumber)
	}

	usaOffset, usaSize, err := fixup.ReadUSAFields(buf)
	if err != nil {
		return Record{}, err
	}
	if err := fixup.Apply(buf, usaOffset, usaSize, sectorSize); err != nil {
		return Record{}, err
	}

	sequence := binary.LittleEndian.Uint16(buf[16:18])
	attrsOffset := binary.LittleEndian.Uint16(buf[20:22])
	flags := binary.LittleEndian.Uint16(buf[22:24])
	baseRef := binary.LittleEndian.Uint64(buf[32:40])

	if int(attrsOffset) >= len(buf) {
		return Record{}, fmt.Errorf("%w: record %d attribute offset out of bounds", nterr.ErrBadAttribute, recordNumber)
	}

	attrs, err := parseAttributes(buf, int(attrsOffset))
	if err != nil {
		return Record{}, err
	}

	return Record{
		RecordNumber:        recordNumber,
		SequenceNumber:      sequence,
		Flags:               flags,
		BaseRecordReference: FileReference(baseRef),
		Attributes:          attrs,
	}, nil
}

// Find returns the first attribute of the given type and name ("" for
// unnamed) in r's own attribute list, not following $ATTRIBUTE_LIST.
func (r Record) Find(attrType uint32, name string) (Attribute, bool) {
	for _, a := range r.Attributes {
		if a.Type == attrType && a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// FindAll returns every attribute of the given type in r's own attribute
// list, in on-disk order.
func (r Record) FindAll(attrType uint32) []Attribute {
	var out []Attribute
	for _, a := range r.Attributes {
		if a.Type == attrType {
			out = append(out, a)
		}
	}
	return out
}
