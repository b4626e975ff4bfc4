package mft

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"
)

func buildAttributeListEntry(attrType uint32, name string, startVCN uint64, ext FileReference) []byte {
	units := utf16.Encode([]rune(name))
	recordLength := attributeListEntryMinSize + len(units)*2
	buf := make([]byte, recordLength)

	binary.LittleEndian.PutUint32(buf[0:4], attrType)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(recordLength))
	buf[6] = byte(len(units))
	buf[7] = attributeListEntryMinSize
	binary.LittleEndian.PutUint64(buf[8:16], startVCN)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(ext))
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[attributeListEntryMinSize+i*2:], u)
	}
	return buf
}

func TestParseAttributeListMultipleEntries(t *testing.T) {
	ext := NewFileReference(42, 3)
	e1 := buildAttributeListEntry(AttrTypeData, "", 0, ext)
	e2 := buildAttributeListEntry(AttrTypeData, "", 4, ext)

	data := append(append([]byte{}, e1...), e2...)

	entries, err := ParseAttributeList(data)
	if err != nil {
		t.Fatalf("ParseAttributeList: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].StartVCN != 0 || entries[1].StartVCN != 4 {
		t.Errorf("unexpected StartVCNs: %d, %d", entries[0].StartVCN, entries[1].StartVCN)
	}
	if entries[0].ExtensionRef != ext {
		t.Errorf("ExtensionRef = %v, want %v", entries[0].ExtensionRef, ext)
	}
}

func TestParseAttributeListWithName(t *testing.T) {
	data := buildAttributeListEntry(AttrTypeData, "stream", 0, NewFileReference(1, 1))
	entries, err := ParseAttributeList(data)
	if err != nil {
		t.Fatalf("ParseAttributeList: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "stream" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParseAttributeListStopsAtZeroLength(t *testing.T) {
	data := make([]byte, attributeListEntryMinSize)
	entries, err := ParseAttributeList(data)
	if err != nil {
		t.Fatalf("ParseAttributeList: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %d", len(entries))
	}
}
