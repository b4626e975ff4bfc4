package mft

import (
	"encoding/binary"
	"fmt"

	"github.com/shubham/indxripper/internal/nterr"
)

// Namespace values carried by a $FILE_NAME attribute (and by the embedded
// $FILE_NAME inside an index entry — see internal/indexblock).
const (
	NamespacePOSIX     uint8 = 0
	NamespaceWin32     uint8 = 1
	NamespaceDOS       uint8 = 2
	NamespaceWin32DOS  uint8 = 3
)

const fileNameHeaderSize = 66 // up to and including NameType

// FileName is the parsed content of a $FILE_NAME attribute (or of the
// $FILE_NAME embedded in an index entry, which shares this exact layout).
type FileName struct {
	ParentRef     FileReference
	Created       uint64 // FILETIME ticks
	Modified      uint64
	MFTChanged    uint64
	Accessed      uint64
	AllocatedSize uint64
	RealSize      uint64
	Flags         uint32
	Namespace     uint8
	Name          string
}

// ParseFileName parses a $FILE_NAME attribute's resident content (or the
// equivalent bytes embedded in an index entry).
func ParseFileName(data []byte) (FileName, error) {
	if len(data) < fileNameHeaderSize {
		return FileName{}, fmt.Errorf("%w: $FILE_NAME shorter than header", nterr.ErrBadAttribute)
	}

	nameLength := data[64]
	namespace := data[65]
	nameEnd := fileNameHeaderSize + int(nameLength)*2
	if nameEnd > len(data) {
		return FileName{}, fmt.Errorf("%w: $FILE_NAME name out of bounds", nterr.ErrBadAttribute)
	}

	return FileName{
		ParentRef:     FileReference(binary.LittleEndian.Uint64(data[0:8])),
		Created:       binary.LittleEndian.Uint64(data[8:16]),
		Modified:      binary.LittleEndian.Uint64(data[16:24]),
		MFTChanged:    binary.LittleEndian.Uint64(data[24:32]),
		Accessed:      binary.LittleEndian.Uint64(data[32:40]),
		AllocatedSize: binary.LittleEndian.Uint64(data[40:48]),
		RealSize:      binary.LittleEndian.Uint64(data[48:56]),
		Flags:         binary.LittleEndian.Uint32(data[56:60]),
		Namespace:     namespace,
		Name:          decodeUTF16(data[fileNameHeaderSize:nameEnd]),
	}, nil
}

// namespacePriority ranks namespaces for best-name selection per spec.md
// §3: Win32&DOS > Win32 > POSIX > DOS > none.
func namespacePriority(ns uint8) int {
	switch ns {
	case NamespaceWin32DOS:
		return 4
	case NamespaceWin32:
		return 3
	case NamespacePOSIX:
		return 2
	case NamespaceDOS:
		return 1
	default:
		return 0
	}
}

// bestFileName picks the highest-priority $FILE_NAME among candidates. ok
// is false when candidates is empty (caller falls back to "$NoName").
func bestFileName(candidates []FileName) (FileName, bool) {
	var best FileName
	found := false
	bestPriority := -1

	for _, fn := range candidates {
		p := namespacePriority(fn.Namespace)
		if !found || p > bestPriority {
			best = fn
			bestPriority = p
			found = true
		}
	}

	return best, found
}
