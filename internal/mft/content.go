package mft

import (
	"sort"

	"github.com/shubham/indxripper/internal/runlist"
)

// Resources bundles what the catalogue builder needs beyond a single
// record buffer: a way to read arbitrary MFT records (to follow
// $ATTRIBUTE_LIST into extension records) and a way to decode/read
// non-resident attribute content (to read $ATTRIBUTE_LIST itself).
type Resources struct {
	Volume      runlist.ByteSource
	ClusterSize int64
	VolumeSize  int64
	SectorSize  int
	RecordSize  int
	MFTReader   *runlist.Reader
}

// ReadRecord reads and parses the MFT record at recordNumber through the
// $MFT's own (possibly fragmented) data stream.
func (res *Resources) ReadRecord(recordNumber uint64) (Record, error) {
	buf := make([]byte, res.RecordSize)
	if _, err := res.MFTReader.ReadAt(buf, int64(recordNumber)*int64(res.RecordSize)); err != nil {
		return Record{}, err
	}
	return ParseRecord(buf, recordNumber, res.SectorSize)
}

// ResolveRuns returns attr's decoded runlist, preferring an already-merged
// Runs slice (set by mergeAttributeList) over decoding RunlistBytes fresh.
func (res *Resources) ResolveRuns(attr Attribute) ([]runlist.Run, error) {
	if attr.Runs != nil {
		return attr.Runs, nil
	}
	if !attr.NonResident {
		return nil, nil
	}
	return runlist.Decode(attr.RunlistBytes, res.ClusterSize, res.VolumeSize)
}

// ReadAttributeContent returns attr's full logical content: the resident
// bytes directly, or the non-resident bytes read through its runlist.
func (res *Resources) ReadAttributeContent(attr Attribute) ([]byte, error) {
	if !attr.NonResident {
		return attr.ResidentData, nil
	}

	size := int64(attr.RealSize)
	if size == 0 {
		size = int64(attr.AllocatedSize)
	}
	if size == 0 {
		return nil, nil
	}

	runs, err := res.ResolveRuns(attr)
	if err != nil {
		return nil, err
	}

	reader := runlist.NewReader(res.Volume, runs, res.ClusterSize, size)
	buf := make([]byte, size)
	if _, err := reader.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

type attrKey struct {
	Type uint32
	Name string
}

// mergeAttributeList follows record's $ATTRIBUTE_LIST (if any) into
// extension records and returns record's attributes with every
// cross-record instance of the same (type, name) concatenated in
// starting-VCN order, per spec.md §4.4. Extension records are followed
// regardless of their own in-use flag (spec.md §9 open question).
func mergeAttributeList(record Record, res *Resources) ([]Attribute, error) {
	listAttr, ok := record.Find(AttrTypeAttributeList, "")
	if !ok {
		return record.Attributes, nil
	}

	content, err := res.ReadAttributeContent(listAttr)
	if err != nil {
		return nil, err
	}
	entries, err := ParseAttributeList(content)
	if err != nil {
		return nil, err
	}

	extByKey := map[attrKey][]AttributeListEntry{}
	for _, e := range entries {
		if e.ExtensionRef.RecordNumber() == record.RecordNumber {
			continue // already present in the base record's own attribute list
		}
		extByKey[attrKey{e.Type, e.Name}] = append(extByKey[attrKey{e.Type, e.Name}], e)
	}

	merged := append([]Attribute{}, record.Attributes...)
	loaded := map[uint64]Record{}

	for key, refs := range extByKey {
		var instances []Attribute
		if base, ok := record.Find(key.Type, key.Name); ok {
			instances = append(instances, base)
		}

		for _, ref := range refs {
			rn := ref.ExtensionRef.RecordNumber()
			extRecord, ok := loaded[rn]
			if !ok {
				var err error
				extRecord, err = res.ReadRecord(rn)
				if err != nil {
					continue
				}
				loaded[rn] = extRecord
			}
			if attr, ok := extRecord.Find(key.Type, key.Name); ok {
				instances = append(instances, attr)
			}
		}

		combined, ok := combineInstances(instances, res)
		if !ok {
			continue
		}

		replaced := false
		for i := range merged {
			if merged[i].Type == key.Type && merged[i].Name == key.Name {
				merged[i] = combined
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, combined)
		}
	}

	return merged, nil
}

// combineInstances decodes and concatenates the runlists of every instance
// of the same attribute, in starting-VCN order, yielding one Attribute
// whose Runs field callers should use instead of RunlistBytes.
func combineInstances(instances []Attribute, res *Resources) (Attribute, bool) {
	if len(instances) == 0 {
		return Attribute{}, false
	}

	sort.Slice(instances, func(i, j int) bool { return instances[i].StartVCN < instances[j].StartVCN })

	base := instances[0]
	if !base.NonResident {
		return base, true
	}

	var allRuns []runlist.Run
	for _, inst := range instances {
		runs, err := res.ResolveRuns(inst)
		if err != nil {
			continue
		}
		allRuns = append(allRuns, runs...)
	}

	base.Runs = allRuns
	return base, true
}
