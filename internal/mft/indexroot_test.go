package mft

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/shubham/indxripper/internal/nterr"
)

func TestParseIndexRoot(t *testing.T) {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], AttrTypeFileName)
	binary.LittleEndian.PutUint32(buf[8:12], 4096)

	header, err := ParseIndexRoot(buf)
	if err != nil {
		t.Fatalf("ParseIndexRoot: %v", err)
	}
	if header.IndexedAttrType != AttrTypeFileName {
		t.Errorf("IndexedAttrType = %#x, want %#x", header.IndexedAttrType, AttrTypeFileName)
	}
	if header.BytesPerIndexRecord != 4096 {
		t.Errorf("BytesPerIndexRecord = %d, want 4096", header.BytesPerIndexRecord)
	}
}

func TestParseIndexRootRejectsShortBuffer(t *testing.T) {
	_, err := ParseIndexRoot(make([]byte, 4))
	if !errors.Is(err, nterr.ErrBadAttribute) {
		t.Fatalf("ParseIndexRoot error = %v, want %v", err, nterr.ErrBadAttribute)
	}
}
