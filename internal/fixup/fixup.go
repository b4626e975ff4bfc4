// Package fixup implements the NTFS multi-sector update-sequence
// protection (the "USA" fixup) used by both MFT records and INDX blocks.
//
// Every protected record reserves, in its header, an update sequence
// number (USN) and an array of the same length as the number of sectors it
// spans. Before the record was written to disk, NTFS stashed the last two
// bytes of every sector into that array and stamped the USN over them; a
// reader must verify those stamped bytes still match the USN and then
// restore the saved originals before interpreting the sector data.
package fixup

import (
	"encoding/binary"
	"fmt"

	"github.com/shubham/indxripper/internal/nterr"
)

// Apply verifies and restores the update sequence protection in place,
// mutating buf. usaOffset and usaSize are the fields read from the
// record's own header (both MFT records and INDX blocks place them at byte
// offsets 4 and 6). sectorSize is the device sector size driving the
// sub-block boundaries.
//
// Apply is pure aside from mutating buf: it has no side effects beyond the
// buffer the caller already owns, and is safe to call exactly once per
// record.
func Apply(buf []byte, usaOffset, usaSize uint16, sectorSize int) error {
	if usaSize == 0 {
		return nil
	}

	arrayStart := int(usaOffset)
	arrayLen := int(usaSize) * 2
	if arrayStart+arrayLen > len(buf) {
		return fmt.Errorf("%w: update sequence array out of bounds", nterr.ErrFixupMismatch)
	}

	usn := buf[arrayStart : arrayStart+2]
	numSectors := int(usaSize) - 1

	for i := 0; i < numSectors; i++ {
		trailerOff := (i+1)*sectorSize - 2
		if trailerOff+2 > len(buf) {
			break
		}

		trailer := buf[trailerOff : trailerOff+2]
		if trailer[0] != usn[0] || trailer[1] != usn[1] {
			return fmt.Errorf("%w: sector %d trailer does not match USN", nterr.ErrFixupMismatch, i)
		}

		entryOff := arrayStart + 2 + i*2
		copy(trailer, buf[entryOff:entryOff+2])
	}

	return nil
}

// ReadUSAFields extracts usaOffset and usaSize from a record header that
// follows the common layout (both MFT records and INDX blocks): a 4-byte
// magic, then a little-endian uint16 USA offset, then a little-endian
// uint16 USA size.
func ReadUSAFields(header []byte) (usaOffset, usaSize uint16, err error) {
	if len(header) < 8 {
		return 0, 0, fmt.Errorf("%w: header too short for USA fields", nterr.ErrFixupMismatch)
	}
	return binary.LittleEndian.Uint16(header[4:6]), binary.LittleEndian.Uint16(header[6:8]), nil
}
