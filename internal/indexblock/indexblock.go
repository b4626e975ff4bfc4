// Package indexblock parses $INDEX_ALLOCATION content: a sequence of
// fixed-size INDX records, each holding a B-tree node's worth of directory
// index entries plus, for deleted-file recovery, whatever earlier entries
// slack space still carries (spec.md §4.6).
package indexblock

import (
	"encoding/binary"
	"fmt"
	"log"

	"github.com/shubham/indxripper/internal/filetime"
	"github.com/shubham/indxripper/internal/fixup"
	"github.com/shubham/indxripper/internal/mft"
	"github.com/shubham/indxripper/internal/nterr"
	"github.com/shubham/indxripper/internal/runlist"
)

const (
	indxMagic = "INDX"

	commonHeaderSize = 24 // magic(4) + usaOffset(2) + usaSize(2) + lsn(8) + vcn(8)
	nodeHeaderSize   = 16 // entriesOffset(4) + entriesEnd(4) + allocatedEnd(4) + flags(4)

	indexEntryHeaderSize = 16 // fileRef(8) + entryLength(2) + attrLength(2) + flags(2) + padding(2)

	entryFlagHasChild uint16 = 0x0001
	entryFlagIsLast   uint16 = 0x0002

	// minSlackEntryLength is the smallest an index entry can be and still
	// carry a zero-length-named $FILE_NAME: header + $FILE_NAME header,
	// with no name characters and no child VCN.
	minSlackEntryLength = indexEntryHeaderSize + 66
)

// Source distinguishes an entry recovered from the live, allocated portion
// of an index record from one recovered opportunistically out of slack.
type Source int

const (
	Allocated Source = iota
	Slack
)

func (s Source) String() string {
	if s == Slack {
		return "slack"
	}
	return "allocated"
}

// Candidate is one index entry recovered from a directory's
// $INDEX_ALLOCATION, per spec.md §4.6/§4.10.
type Candidate struct {
	Source   Source
	FileRef  mft.FileReference
	FileName mft.FileName

	// ChunkParentHint is the parent reference embedded in the first
	// allocated entry of the INDX chunk this candidate came from. It is
	// the same for every candidate (allocated or slack) drawn from one
	// chunk, and is zero when the chunk's first entry carried no
	// $FILE_NAME (an empty or entirely-slack chunk).
	ChunkParentHint mft.FileReference
}

// Name returns the candidate's file name.
func (c Candidate) Name() string { return c.FileName.Name }

// Parse walks every INDX record in content (a directory's $INDEX_ALLOCATION
// logical content, already runlist-resolved) and returns every allocated
// and slack candidate found, per spec.md §4.6.
func Parse(content *runlist.Reader, blockSize int64, sectorSize int, maxMFTRecords uint64) ([]Candidate, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: non-positive index block size %d", nterr.ErrBadIndexBlock, blockSize)
	}

	var out []Candidate
	buf := make([]byte, blockSize)

	for chunkOffset := int64(0); chunkOffset+blockSize <= content.Size(); chunkOffset += blockSize {
		if _, err := content.ReadAt(buf, chunkOffset); err != nil {
			log.Printf("indxripper: short read of index chunk at %d: %v", chunkOffset, err)
			break
		}

		candidates, err := parseChunk(buf, sectorSize, maxMFTRecords)
		if err != nil {
			log.Printf("indxripper: skipping index chunk at %d: %v", chunkOffset, err)
			continue
		}
		out = append(out, candidates...)
	}

	return out, nil
}

// parseChunk parses one fixed-size INDX record already loaded into buf.
func parseChunk(buf []byte, sectorSize int, maxMFTRecords uint64) ([]Candidate, error) {
	if len(buf) < commonHeaderSize || string(buf[0:4]) != indxMagic {
		return nil, fmt.Errorf("%w: missing INDX magic", nterr.ErrBadIndexBlock)
	}

	usaOffset, usaSize, err := fixup.ReadUSAFields(buf)
	if err != nil {
		return nil, err
	}
	if err := fixup.Apply(buf, usaOffset, usaSize, sectorSize); err != nil {
		return nil, err
	}

	if len(buf) < commonHeaderSize+nodeHeaderSize {
		return nil, fmt.Errorf("%w: chunk too short for node header", nterr.ErrBadIndexBlock)
	}

	nodeHeaderStart := commonHeaderSize
	entriesOffset := nodeHeaderStart + int(binary.LittleEndian.Uint32(buf[nodeHeaderStart:]))
	entriesEndOffset := nodeHeaderStart + int(binary.LittleEndian.Uint32(buf[nodeHeaderStart+4:]))
	allocatedEndOffset := nodeHeaderStart + int(binary.LittleEndian.Uint32(buf[nodeHeaderStart+8:]))

	if entriesOffset < nodeHeaderStart+nodeHeaderSize ||
		entriesEndOffset < entriesOffset || entriesEndOffset > len(buf) ||
		allocatedEndOffset < entriesEndOffset || allocatedEndOffset > len(buf) {
		return nil, fmt.Errorf("%w: node header offsets out of bounds", nterr.ErrBadIndexBlock)
	}

	var candidates []Candidate
	chunkParentHint, firstSeen := walkAllocated(buf, entriesOffset, entriesEndOffset, maxMFTRecords, &candidates)
	if firstSeen {
		for i := range candidates {
			candidates[i].ChunkParentHint = chunkParentHint
		}
	}

	slackCandidates := scanSlack(buf, entriesEndOffset, allocatedEndOffset, maxMFTRecords)
	for i := range slackCandidates {
		slackCandidates[i].ChunkParentHint = chunkParentHint
	}
	candidates = append(candidates, slackCandidates...)

	return candidates, nil
}

// walkAllocated parses the in-use entries of one node, from entriesOffset to
// entriesEndOffset. It reports the parent reference carried by the node's
// first entry (firstSeen is false if that entry carried no usable
// $FILE_NAME, e.g. an empty directory whose only entry is the terminal one).
func walkAllocated(buf []byte, entriesOffset, entriesEndOffset int, maxMFTRecords uint64, out *[]Candidate) (mft.FileReference, bool) {
	var chunkParentHint mft.FileReference
	firstSeen := false

	offset := entriesOffset
	for offset+indexEntryHeaderSize <= entriesEndOffset {
		entryLength := int(binary.LittleEndian.Uint16(buf[offset+8:]))
		attrLength := int(binary.LittleEndian.Uint16(buf[offset+10:]))
		flags := binary.LittleEndian.Uint16(buf[offset+12:])
		isLast := flags&entryFlagIsLast != 0
		isFirst := offset == entriesOffset

		if entryLength < indexEntryHeaderSize || offset+entryLength > entriesEndOffset {
			log.Printf("indxripper: malformed allocated index entry at offset %d", offset)
			break
		}

		if !isLast && attrLength > 0 && offset+indexEntryHeaderSize+attrLength <= len(buf) {
			fn, err := mft.ParseFileName(buf[offset+indexEntryHeaderSize : offset+indexEntryHeaderSize+attrLength])
			switch {
			case err != nil:
			case fn.Name == "" || len(fn.Name) > 255:
				log.Printf("indxripper: malformed allocated index entry at offset %d: invalid name length %d", offset, len(fn.Name))
			default:
				if isFirst {
					chunkParentHint = fn.ParentRef
					firstSeen = true
				}
				fileRef := mft.FileReference(binary.LittleEndian.Uint64(buf[offset:]))
				if fileRef.RecordNumber() != 0 && fileRef.RecordNumber() <= maxMFTRecords {
					*out = append(*out, Candidate{Source: Allocated, FileRef: fileRef, FileName: fn})
				}
			}
		} else if !firstSeen {
			// First entry exists but carries no usable $FILE_NAME; leave
			// firstSeen false so the chunk is treated as hint-less.
		}

		if isLast {
			break
		}
		offset += entryLength
	}

	return chunkParentHint, firstSeen
}

// scanSlack opportunistically walks [entriesEndOffset, allocatedEndOffset)
// in 8-byte steps, looking for index entries the B-tree node header no longer
// accounts for but that a prior allocated generation of this node left
// behind, per spec.md §4.6 step 5 and §4.10's {at_offset, parsed_entry,
// rejected} state machine.
func scanSlack(buf []byte, start, end int, maxMFTRecords uint64) []Candidate {
	var out []Candidate

	at := start
	for at+minSlackEntryLength <= end && at+minSlackEntryLength <= len(buf) {
		cand, consumed, ok := tryParseSlackEntry(buf, at, end, maxMFTRecords)
		if !ok {
			at += 8
			continue
		}
		out = append(out, cand)
		at += consumed
	}

	return out
}

func tryParseSlackEntry(buf []byte, at, end int, maxMFTRecords uint64) (Candidate, int, bool) {
	if at+indexEntryHeaderSize > end {
		return Candidate{}, 0, false
	}

	entryLength := int(binary.LittleEndian.Uint16(buf[at+8:]))
	attrLength := int(binary.LittleEndian.Uint16(buf[at+10:]))

	if entryLength < minSlackEntryLength || at+entryLength > end {
		return Candidate{}, 0, false
	}
	if attrLength <= 0 || at+indexEntryHeaderSize+attrLength > end {
		return Candidate{}, 0, false
	}

	fileRef := mft.FileReference(binary.LittleEndian.Uint64(buf[at:]))
	recordNumber := fileRef.RecordNumber()
	if recordNumber == 0 || recordNumber > maxMFTRecords {
		return Candidate{}, 0, false
	}

	fn, err := mft.ParseFileName(buf[at+indexEntryHeaderSize : at+indexEntryHeaderSize+attrLength])
	if err != nil {
		return Candidate{}, 0, false
	}
	if fn.Namespace > mft.NamespaceWin32DOS {
		return Candidate{}, 0, false
	}
	if fn.Name == "" || len(fn.Name) > 255 {
		return Candidate{}, 0, false
	}
	if !filetime.Plausible(fn.Created) || !filetime.Plausible(fn.Modified) ||
		!filetime.Plausible(fn.MFTChanged) || !filetime.Plausible(fn.Accessed) {
		return Candidate{}, 0, false
	}

	return Candidate{Source: Slack, FileRef: fileRef, FileName: fn}, entryLength, true
}
