package mft

import (
	"fmt"
	"log"

	"github.com/shubham/indxripper/internal/nterr"
	"github.com/shubham/indxripper/internal/runlist"
	"github.com/shubham/indxripper/internal/volume"
)

// IndexAllocation is a cheap handle to a directory's $INDEX_ALLOCATION
// attribute: enough to build a runlist.Reader over it on demand, without
// holding its (potentially huge) content in memory.
type IndexAllocation struct {
	Runs          []runlist.Run
	AllocatedSize int64
	RealSize      int64
}

// Reader builds the lazy logical byte view over this $INDEX_ALLOCATION,
// ready to be handed to the index-block parser.
func (ia IndexAllocation) Reader(src runlist.ByteSource, clusterSize int64) *runlist.Reader {
	size := ia.RealSize
	if size == 0 {
		size = ia.AllocatedSize
	}
	return runlist.NewReader(src, ia.Runs, clusterSize, size)
}

// Entry is the catalogue entry described in spec.md §3.
type Entry struct {
	RecordNumber   uint64
	Sequence       uint16
	InUse          bool
	IsDirectory    bool
	BestName       string
	ParentRef      FileReference
	IndexAlloc     *IndexAllocation
	IndexBlockSize int64
}

// Reference returns the file reference identifying this specific
// incarnation of the record.
func (e *Entry) Reference() FileReference {
	return NewFileReference(e.RecordNumber, e.Sequence)
}

// Catalogue indexes every MFT record by record number. Both in-use and
// not-in-use records are kept: a deleted directory's record is still
// needed to complete another entry's parent chain (spec.md §4.5), and
// whether its own $INDEX_ALLOCATION gets scanned is a decision the driver
// makes per the --skip-deleted-dirs flag, not something the catalogue
// enforces.
type Catalogue struct {
	Entries    map[uint64]*Entry
	MaxRecords uint64
}

// Build scans every MFT record and assembles the catalogue.
func Build(v *volume.Volume) (*Catalogue, error) {
	desc := v.Descriptor

	rootBuf := make([]byte, desc.MFTRecordSize)
	if _, err := v.ReadAt(rootBuf, desc.MFTStartOffset); err != nil {
		return nil, fmt.Errorf("read $MFT base record: %w", err)
	}
	mftRecord, err := ParseRecord(rootBuf, 0, int(desc.BytesPerSector))
	if err != nil {
		return nil, fmt.Errorf("parse $MFT base record: %w", err)
	}

	dataAttr, ok := mftRecord.Find(AttrTypeData, "")
	if !ok || !dataAttr.NonResident {
		return nil, fmt.Errorf("%w: $MFT has no non-resident $DATA attribute", nterr.ErrBadBootSector)
	}

	runs, err := runlist.Decode(dataAttr.RunlistBytes, desc.ClusterSize, v.Size())
	if err != nil {
		return nil, fmt.Errorf("decode $MFT runlist: %w", err)
	}

	mftSize := int64(dataAttr.RealSize)
	if mftSize == 0 {
		mftSize = int64(dataAttr.AllocatedSize)
	}
	mftReader := runlist.NewReader(v, runs, desc.ClusterSize, mftSize)

	maxRecords := uint64(mftSize) / uint64(desc.MFTRecordSize)

	res := &Resources{
		Volume:      v,
		ClusterSize: desc.ClusterSize,
		VolumeSize:  v.Size(),
		SectorSize:  int(desc.BytesPerSector),
		RecordSize:  desc.MFTRecordSize,
		MFTReader:   mftReader,
	}

	cat := &Catalogue{Entries: make(map[uint64]*Entry, maxRecords), MaxRecords: maxRecords}

	for i := uint64(0); i < maxRecords; i++ {
		record, err := res.ReadRecord(i)
		if err != nil {
			log.Printf("indxripper: skipping mft record %d: %v", i, err)
			continue
		}
		if !record.IsBaseRecord() {
			// Extension records are folded into their base record's
			// attributes by mergeAttributeList; they get no catalogue
			// entry of their own.
			continue
		}

		merged, err := mergeAttributeList(record, res)
		if err != nil {
			log.Printf("indxripper: skipping attribute list for mft record %d: %v", i, err)
			merged = record.Attributes
		}

		entry, err := buildEntry(record, merged, res, desc.DefaultIndexBlockSize)
		if err != nil {
			log.Printf("indxripper: skipping $INDEX_ALLOCATION for mft record %d: %v", i, err)
		}
		cat.Entries[i] = entry
	}

	return cat, nil
}

func buildEntry(record Record, attrs []Attribute, res *Resources, defaultIndexBlockSize int64) (*Entry, error) {
	var fileNames []FileName
	for _, a := range attrs {
		if a.Type != AttrTypeFileName || a.NonResident {
			continue
		}
		fn, err := ParseFileName(a.ResidentData)
		if err != nil {
			continue
		}
		fileNames = append(fileNames, fn)
	}

	bestName := "$NoName"
	var parentRef FileReference
	if best, ok := bestFileName(fileNames); ok {
		bestName = best.Name
		parentRef = best.ParentRef
	}

	entry := &Entry{
		RecordNumber:   record.RecordNumber,
		Sequence:       record.SequenceNumber,
		InUse:          record.InUse(),
		IsDirectory:    record.IsDirectory(),
		BestName:       bestName,
		ParentRef:      parentRef,
		IndexBlockSize: defaultIndexBlockSize,
	}

	var firstErr error
	for _, a := range attrs {
		switch {
		case a.Type == AttrTypeIndexAllocation && a.NonResident:
			runs, err := res.ResolveRuns(a)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			entry.IndexAlloc = &IndexAllocation{
				Runs:          runs,
				AllocatedSize: int64(a.AllocatedSize),
				RealSize:      int64(a.RealSize),
			}
		case a.Type == AttrTypeIndexRoot && !a.NonResident:
			if header, err := ParseIndexRoot(a.ResidentData); err == nil && header.BytesPerIndexRecord > 0 {
				entry.IndexBlockSize = int64(header.BytesPerIndexRecord)
			}
		}
	}

	return entry, firstErr
}
