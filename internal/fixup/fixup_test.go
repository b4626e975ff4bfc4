package fixup

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/shubham/indxripper/internal/nterr"
)

func TestApplyRoundTrip(t *testing.T) {
	const sectorSize = 512
	numSectors := 3
	buf := make([]byte, sectorSize*numSectors)

	usaOffset := uint16(4)
	usaSize := uint16(numSectors + 1)
	binary.LittleEndian.PutUint16(buf[4:6], usaOffset)
	binary.LittleEndian.PutUint16(buf[6:8], usaSize)

	usn := []byte{0xAB, 0xCD}
	originals := [][]byte{{0x11, 0x22}, {0x33, 0x44}, {0x55, 0x66}}

	copy(buf[usaOffset:usaOffset+2], usn)
	for i, orig := range originals {
		entryOff := int(usaOffset) + 2 + i*2
		copy(buf[entryOff:entryOff+2], orig)

		trailerOff := (i+1)*sectorSize - 2
		copy(buf[trailerOff:trailerOff+2], usn)
	}

	if err := Apply(buf, usaOffset, usaSize, sectorSize); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	for i, orig := range originals {
		trailerOff := (i+1)*sectorSize - 2
		got := buf[trailerOff : trailerOff+2]
		if got[0] != orig[0] || got[1] != orig[1] {
			t.Errorf("sector %d trailer = %v, want %v", i, got, orig)
		}
	}
}

func TestApplyRejectsMismatchedUSN(t *testing.T) {
	const sectorSize = 512
	buf := make([]byte, sectorSize*2)

	usaOffset := uint16(4)
	usaSize := uint16(3)
	binary.LittleEndian.PutUint16(buf[4:6], usaOffset)
	binary.LittleEndian.PutUint16(buf[6:8], usaSize)

	copy(buf[usaOffset:usaOffset+2], []byte{0xAB, 0xCD})
	// Leave the sector trailers as zero, which won't match the USN.

	err := Apply(buf, usaOffset, usaSize, sectorSize)
	if !errors.Is(err, nterr.ErrFixupMismatch) {
		t.Fatalf("Apply error = %v, want %v", err, nterr.ErrFixupMismatch)
	}
}

func TestApplyNoopWhenUSASizeZero(t *testing.T) {
	buf := make([]byte, 512)
	if err := Apply(buf, 4, 0, 512); err != nil {
		t.Fatalf("Apply with usaSize=0 should be a no-op, got: %v", err)
	}
}

func TestReadUSAFields(t *testing.T) {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint16(buf[4:6], 42)
	binary.LittleEndian.PutUint16(buf[6:8], 3)

	offset, size, err := ReadUSAFields(buf)
	if err != nil {
		t.Fatalf("ReadUSAFields: %v", err)
	}
	if offset != 42 || size != 3 {
		t.Errorf("ReadUSAFields = (%d, %d), want (42, 3)", offset, size)
	}
}

func TestReadUSAFieldsRejectsShortHeader(t *testing.T) {
	_, _, err := ReadUSAFields(make([]byte, 4))
	if !errors.Is(err, nterr.ErrFixupMismatch) {
		t.Fatalf("expected ErrFixupMismatch, got %v", err)
	}
}
