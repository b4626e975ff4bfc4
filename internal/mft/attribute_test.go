package mft

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/shubham/indxripper/internal/nterr"
)

// buildResidentAttr builds a minimal resident attribute header + value.
func buildResidentAttr(attrType uint32, value []byte) []byte {
	const headerSize = 24
	buf := make([]byte, headerSize+len(value))
	binary.LittleEndian.PutUint32(buf[0:4], attrType)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(buf)))
	buf[8] = 0 // resident
	buf[9] = 0 // name length
	binary.LittleEndian.PutUint16(buf[10:12], headerSize)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(value))) // value length
	binary.LittleEndian.PutUint16(buf[20:22], headerSize)         // value offset
	copy(buf[headerSize:], value)
	return buf
}

// buildNonResidentAttr builds a minimal non-resident attribute header with
// a trailing runlist byte blob.
func buildNonResidentAttr(attrType uint32, runlistBytes []byte, allocSize, realSize, initSize uint64) []byte {
	const headerSize = 64
	buf := make([]byte, headerSize+len(runlistBytes))
	binary.LittleEndian.PutUint32(buf[0:4], attrType)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(buf)))
	buf[8] = 1 // non-resident
	buf[9] = 0 // name length
	binary.LittleEndian.PutUint16(buf[10:12], headerSize)
	binary.LittleEndian.PutUint64(buf[16:24], 0) // StartVCN
	binary.LittleEndian.PutUint16(buf[32:34], headerSize)
	binary.LittleEndian.PutUint64(buf[40:48], allocSize)
	binary.LittleEndian.PutUint64(buf[48:56], realSize)
	binary.LittleEndian.PutUint64(buf[56:64], initSize)
	copy(buf[headerSize:], runlistBytes)
	return buf
}

func TestParseAttributesResident(t *testing.T) {
	attr := buildResidentAttr(AttrTypeFileName, []byte{1, 2, 3, 4})
	terminator := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	record := append(append([]byte{}, attr...), terminator...)

	attrs, err := parseAttributes(record, 0)
	if err != nil {
		t.Fatalf("parseAttributes: %v", err)
	}
	if len(attrs) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(attrs))
	}
	if attrs[0].NonResident {
		t.Error("expected resident attribute")
	}
	if string(attrs[0].ResidentData) != "\x01\x02\x03\x04" {
		t.Errorf("ResidentData = %v, want [1 2 3 4]", attrs[0].ResidentData)
	}
}

func TestParseAttributesNonResident(t *testing.T) {
	runlistBytes := []byte{0x21, 0x04, 0x10, 0x00, 0x00}
	attr := buildNonResidentAttr(AttrTypeData, runlistBytes, 4096, 4000, 4000)
	terminator := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	record := append(append([]byte{}, attr...), terminator...)

	attrs, err := parseAttributes(record, 0)
	if err != nil {
		t.Fatalf("parseAttributes: %v", err)
	}
	if len(attrs) != 1 || !attrs[0].NonResident {
		t.Fatalf("expected 1 non-resident attribute, got %+v", attrs)
	}
	if attrs[0].AllocatedSize != 4096 || attrs[0].RealSize != 4000 {
		t.Errorf("sizes = (%d, %d), want (4096, 4000)", attrs[0].AllocatedSize, attrs[0].RealSize)
	}
}

func TestParseAttributesRejectsOutOfBoundsLength(t *testing.T) {
	record := make([]byte, 20)
	binary.LittleEndian.PutUint32(record[0:4], AttrTypeFileName)
	binary.LittleEndian.PutUint32(record[4:8], 1000) // claims far more than is present

	_, err := parseAttributes(record, 0)
	if !errors.Is(err, nterr.ErrBadAttribute) {
		t.Fatalf("parseAttributes error = %v, want %v", err, nterr.ErrBadAttribute)
	}
}

func TestParseAttributesStopsAtTerminator(t *testing.T) {
	record := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	attrs, err := parseAttributes(record, 0)
	if err != nil {
		t.Fatalf("parseAttributes: %v", err)
	}
	if len(attrs) != 0 {
		t.Fatalf("expected 0 attributes, got %d", len(attrs))
	}
}
