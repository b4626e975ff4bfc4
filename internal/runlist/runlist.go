// Package runlist decodes the compact NTFS non-resident-attribute data-run
// encoding into an ordered list of cluster fragments, and exposes a lazy,
// logical-offset-indexed byte reader over those fragments.
package runlist

import (
	"fmt"

	"github.com/shubham/indxripper/internal/nterr"
)

// Run is one decoded data-run fragment: Length clusters starting at LCN.
// Sparse runs carry no backing clusters; reads against them yield zeros.
type Run struct {
	LCN    int64
	Length uint64
	Sparse bool
}

// Decode parses a runlist byte stream (as found in a non-resident
// attribute's header tail) into its fragments. clusterSize and volumeSize
// bound-check every run's byte range against the volume; pass volumeSize
// <= 0 to skip that check (used by tests exercising the decoder alone).
func Decode(data []byte, clusterSize int64, volumeSize int64) ([]Run, error) {
	var runs []Run
	var currentLCN int64

	i := 0
	for i < len(data) {
		header := data[i]
		if header == 0 {
			break
		}

		lengthWidth := int(header & 0x0F)
		offsetWidth := int(header >> 4)
		i++

		if i+lengthWidth+offsetWidth > len(data) {
			return nil, fmt.Errorf("%w: run header at %d overruns buffer", nterr.ErrBadRunlist, i-1)
		}

		length := readUint(data[i : i+lengthWidth])
		i += lengthWidth

		run := Run{Length: length}
		if offsetWidth == 0 {
			run.Sparse = true
		} else {
			delta := readIntSignExtended(data[i:i+offsetWidth], offsetWidth)
			currentLCN += delta
			run.LCN = currentLCN
		}
		i += offsetWidth

		if !run.Sparse && volumeSize > 0 {
			start := run.LCN * clusterSize
			end := start + int64(run.Length)*clusterSize
			if start < 0 || end > volumeSize {
				return nil, fmt.Errorf("%w: run [%d,%d) outside volume of size %d",
					nterr.ErrBadRunlist, start, end, volumeSize)
			}
		}

		runs = append(runs, run)
	}

	return runs, nil
}

func readUint(b []byte) uint64 {
	var v uint64
	for j, bb := range b {
		v |= uint64(bb) << (8 * j)
	}
	return v
}

func readIntSignExtended(b []byte, width int) int64 {
	var v int64
	for j, bb := range b {
		v |= int64(bb) << (8 * j)
	}
	if width > 0 && b[width-1]&0x80 != 0 {
		for j := width; j < 8; j++ {
			v |= int64(0xFF) << (8 * j)
		}
	}
	return v
}

// ByteSource is the minimal read surface a Reader needs from a volume.
type ByteSource interface {
	ReadAt(buf []byte, offset int64) (int, error)
}

// Reader is a lazy byte view over a non-resident attribute's logical
// content: reads are served one run at a time directly from the volume, so
// memory use stays bounded regardless of how large the attribute is.
type Reader struct {
	src         ByteSource
	runs        []Run
	clusterSize int64
	size        int64 // logical byte length (real/allocated size of the attribute)
}

// NewReader builds a Reader over the given runs. size bounds the logical
// content length (the attribute's real or allocated size, whichever the
// caller is reading as). A read starting at or past size fails with
// nterr.ErrShortRead; a read that starts inside size but runs past it is
// cut at size and returns the shorter count with a nil error.
func NewReader(src ByteSource, runs []Run, clusterSize int64, size int64) *Reader {
	return &Reader{src: src, runs: runs, clusterSize: clusterSize, size: size}
}

// Size returns the logical byte length of the attribute.
func (r *Reader) Size() int64 {
	return r.size
}

// ReadAt fills buf with the logical bytes starting at offset, reading
// across run boundaries and zero-filling sparse runs as needed.
func (r *Reader) ReadAt(buf []byte, offset int64) (int, error) {
	if offset < 0 || offset >= r.size {
		return 0, fmt.Errorf("%w: offset %d outside logical size %d", nterr.ErrShortRead, offset, r.size)
	}

	want := len(buf)
	if offset+int64(want) > r.size {
		want = int(r.size - offset)
	}

	var runStartVCN int64
	read := 0
	for _, run := range r.runs {
		runStartByte := runStartVCN * r.clusterSize
		runLen := int64(run.Length) * r.clusterSize
		runEndByte := runStartByte + runLen
		runStartVCN += int64(run.Length)

		if offset >= runEndByte {
			continue
		}
		if read >= want {
			break
		}

		readStart := offset + int64(read)
		inRunOffset := readStart - runStartByte
		avail := runLen - inRunOffset
		n := int64(want - read)
		if n > avail {
			n = avail
		}
		if n <= 0 {
			continue
		}

		dst := buf[read : int64(read)+n]
		if run.Sparse {
			for i := range dst {
				dst[i] = 0
			}
		} else {
			absOffset := run.LCN*r.clusterSize + inRunOffset
			if _, err := r.src.ReadAt(dst, absOffset); err != nil {
				return read, err
			}
		}
		read += int(n)
	}

	return read, nil
}
