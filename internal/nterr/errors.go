// Package nterr defines the sentinel error kinds shared across the NTFS
// reader. Callers use errors.Is against these values to decide whether a
// failure is fatal or should be logged and skipped.
package nterr

import "errors"

var (
	// ErrIO is a failure reading the underlying volume or output file.
	ErrIO = errors.New("i/o error")
	// ErrShortRead means fewer bytes were returned than requested.
	ErrShortRead = errors.New("short read")
	// ErrBadBootSector means the NTFS boot sector signature or geometry
	// fields failed validation.
	ErrBadBootSector = errors.New("bad boot sector")
	// ErrFixupMismatch means a sub-block trailer did not match the update
	// sequence number before fixup.
	ErrFixupMismatch = errors.New("fixup mismatch")
	// ErrBadRunlist means a data-run byte range fell outside the volume.
	ErrBadRunlist = errors.New("bad runlist")
	// ErrBadAttribute means an MFT attribute header or body failed
	// validation.
	ErrBadAttribute = errors.New("bad attribute")
	// ErrBadIndexBlock means an INDX block's magic or node header failed
	// validation.
	ErrBadIndexBlock = errors.New("bad index block")
	// ErrUnsupportedVersion means the volume is not NTFS 3.1.
	ErrUnsupportedVersion = errors.New("unsupported ntfs version")
	// ErrOutputWrite means the sink failed to write a formatted line.
	ErrOutputWrite = errors.New("output write error")
)
