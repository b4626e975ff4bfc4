// Package volume provides random-access reads over a raw block device or
// image file, offset by the NTFS partition's starting sector, and parses
// the NTFS 3.1 boot sector into the geometry every other package needs.
package volume

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/shubham/indxripper/internal/nterr"
)

const (
	bootSectorSize = 512
	ntfsSignature  = "NTFS    "

	// MFTRecordSize is fixed for NTFS 3.1; the boot sector's
	// clusters-per-MFT-record field is read anyway (§9 open question: same
	// signed-encoding branch as clusters-per-index-block) but on-disk
	// images outside that convention are rejected as unsupported.
	MFTRecordSize = 1024
)

// Descriptor holds the volume geometry read from the boot sector. It is
// immutable after Open and shared read-only by every other package.
type Descriptor struct {
	BytesPerSector     uint16
	SectorsPerCluster  uint8
	ClusterSize        int64
	MFTRecordSize      int
	MFTStartOffset     int64
	DefaultIndexBlockSize int64
	TotalSectors       uint64
}

// Volume is the byte source described by spec.md §4.1: absolute-offset
// reads relative to the caller-supplied partition start sector.
type Volume struct {
	f              *os.File
	partitionStart int64 // bytes
	size           int64
	Descriptor     Descriptor
}

// Open opens path (a device node or image file) and parses the NTFS boot
// sector located partitionStartSector sectors into it.
func Open(path string, partitionStartSector int64) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open volume %q: %w: %v", path, nterr.ErrIO, err)
	}

	size, err := fileSize(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat volume %q: %w: %v", path, nterr.ErrIO, err)
	}

	v := &Volume{
		f:              f,
		partitionStart: partitionStartSector * bootSectorSize,
		size:           size,
	}

	if err := v.readBootSector(); err != nil {
		f.Close()
		return nil, err
	}

	return v, nil
}

func fileSize(f *os.File) (int64, error) {
	stat, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if stat.Size() > 0 {
		return stat.Size(), nil
	}
	// Block devices often report a zero size from Stat; fall back to
	// seeking to the end, same as the teacher's disk.Open.
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}

func (v *Volume) readBootSector() error {
	buf := make([]byte, bootSectorSize)
	if _, err := v.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("read boot sector: %w: %v", nterr.ErrBadBootSector, err)
	}

	if string(buf[3:11]) != ntfsSignature {
		return fmt.Errorf("%w: missing NTFS signature", nterr.ErrBadBootSector)
	}

	bytesPerSector := binary.LittleEndian.Uint16(buf[11:13])
	sectorsPerCluster := buf[13]
	if bytesPerSector == 0 || sectorsPerCluster == 0 {
		return fmt.Errorf("%w: zero sector or cluster size", nterr.ErrBadBootSector)
	}

	totalSectors := binary.LittleEndian.Uint64(buf[40:48])
	mftCluster := binary.LittleEndian.Uint64(buf[48:56])
	clustersPerMFTRec := int8(buf[64])
	clustersPerIndexRec := int8(buf[68])

	clusterSize := int64(bytesPerSector) * int64(sectorsPerCluster)

	mftRecSize := recordSizeFromField(clustersPerMFTRec, clusterSize)
	if mftRecSize != MFTRecordSize {
		return fmt.Errorf("%w: mft record size %d (only %d supported)",
			nterr.ErrUnsupportedVersion, mftRecSize, MFTRecordSize)
	}

	v.Descriptor = Descriptor{
		BytesPerSector:        bytesPerSector,
		SectorsPerCluster:     sectorsPerCluster,
		ClusterSize:           clusterSize,
		MFTRecordSize:         mftRecSize,
		MFTStartOffset:        int64(mftCluster) * clusterSize,
		DefaultIndexBlockSize: int64(recordSizeFromField(clustersPerIndexRec, clusterSize)),
		TotalSectors:          totalSectors,
	}

	return nil
}

// recordSizeFromField implements the open question in spec.md §9: a
// negative encoding means "bytes = 1 << -value"; a positive encoding means
// "value clusters".
func recordSizeFromField(field int8, clusterSize int64) int {
	if field < 0 {
		return 1 << uint(-field)
	}
	return int(field) * int(clusterSize)
}

// ReadAt reads len(buf) bytes at the given offset, measured from the start
// of the NTFS partition (i.e. after the caller-supplied partition-start
// sector has already been applied by Open).
func (v *Volume) ReadAt(buf []byte, offset int64) (int, error) {
	n, err := v.f.ReadAt(buf, v.partitionStart+offset)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: %v", nterr.ErrIO, err)
	}
	if n < len(buf) {
		return n, fmt.Errorf("%w: wanted %d bytes, got %d", nterr.ErrShortRead, len(buf), n)
	}
	return n, nil
}

// Size returns the size in bytes of the underlying device or image, not
// adjusted for the partition start offset.
func (v *Volume) Size() int64 {
	return v.size
}

// Close releases the underlying file handle. A failed Open returns no
// Volume and has already closed the file itself.
func (v *Volume) Close() error {
	return v.f.Close()
}
