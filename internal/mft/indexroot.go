package mft

import (
	"encoding/binary"
	"fmt"

	"github.com/shubham/indxripper/internal/nterr"
)

// IndexRootHeader holds the handful of $INDEX_ROOT fields this reader
// needs. Parsing stops there: walking $INDEX_ROOT's own (always resident,
// always small) entries is out of scope per spec.md §1 non-goals — only
// its index_block_size configuration field is consumed.
type IndexRootHeader struct {
	IndexedAttrType     uint32
	BytesPerIndexRecord uint32
}

// ParseIndexRoot reads the $INDEX_ROOT header fields from its resident
// content.
func ParseIndexRoot(data []byte) (IndexRootHeader, error) {
	if len(data) < 12 {
		return IndexRootHeader{}, fmt.Errorf("%w: $INDEX_ROOT shorter than header", nterr.ErrBadAttribute)
	}
	return IndexRootHeader{
		IndexedAttrType:     binary.LittleEndian.Uint32(data[0:4]),
		BytesPerIndexRecord: binary.LittleEndian.Uint32(data[8:12]),
	}, nil
}
