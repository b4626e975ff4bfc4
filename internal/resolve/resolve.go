// Package resolve reconstructs full directory paths from the MFT
// catalogue, implementing spec.md §4.5/§4.7/§4.10: cycle-safe recursive
// resolution with memoisation, and the orphan/no-name/unknown fallback
// vocabulary for corrupt or deleted parent chains.
package resolve

import "github.com/shubham/indxripper/internal/mft"

const (
	rootRecordNumber = 5

	// OrphanLabel marks a directory whose parent chain could not be
	// verified (sequence mismatch, missing record, or a cycle).
	OrphanLabel = "/$Orphan"
	// NoNameLabel stands in for a directory record with no $FILE_NAME
	// attribute at all.
	NoNameLabel = "$NoName"
	// UnknownLabel marks a deleted-directory candidate whose chunk had no
	// parsable first entry to supply a parent hint.
	UnknownLabel = "<Unknown>"
)

// Resolver reconstructs paths against a read-only MFT catalogue. It is not
// safe for concurrent use by multiple goroutines unless each shards its own
// cache — see spec.md §5.
type Resolver struct {
	cat        *mft.Catalogue
	cache      map[uint64]string
	inProgress map[uint64]bool
}

// New builds a Resolver over cat. cat is never mutated.
func New(cat *mft.Catalogue) *Resolver {
	return &Resolver{
		cat:        cat,
		cache:      make(map[uint64]string),
		inProgress: make(map[uint64]bool),
	}
}

// Resolve returns the full path of the directory identified by ref (not
// including a trailing separator), or OrphanLabel-prefixed output per the
// rules in spec.md §4.5. It terminates for every input, including cyclic
// parent chains (spec.md §8 invariant 4).
func (r *Resolver) Resolve(ref mft.FileReference) string {
	if !ref.Valid(r.cat.MaxRecords) {
		return OrphanLabel
	}
	return r.resolve(ref)
}

func (r *Resolver) resolve(ref mft.FileReference) string {
	rn := ref.RecordNumber()

	if rn == rootRecordNumber {
		return ""
	}
	if path, ok := r.cache[rn]; ok {
		return path
	}
	if r.inProgress[rn] {
		// Cycle: don't cache, the eventual outer caller will cache its own
		// (correct) result for rn once the recursion unwinds.
		return OrphanLabel
	}

	entry, ok := r.cat.Entries[rn]
	if !ok {
		r.cache[rn] = OrphanLabel
		return OrphanLabel
	}

	name := entry.BestName
	if name == "" {
		name = NoNameLabel
	}

	r.inProgress[rn] = true
	var result string
	if entry.IsDirectory && entry.Sequence == ref.SequenceNumber() {
		result = r.resolve(entry.ParentRef) + "/" + name
	} else {
		// Either this incarnation of the record is not the one the child
		// originally pointed to (sequence mismatch — the record was
		// deleted and its sequence bumped) or it is no longer a directory
		// at all. The name, if any survives in the current record, is
		// still informative; the chain above it is not trustworthy.
		result = OrphanLabel + "/" + name
	}
	delete(r.inProgress, rn)

	r.cache[rn] = result
	return result
}

// ResolveCandidate computes the full emitted path for one parsed index
// entry living in directory dir, per spec.md §4.7: live directories
// resolve directly; deleted directories fall back to the chunk's
// parent-hint reference (captured from the first allocated entry of the
// INDX block the candidate came from), or UnknownLabel if that hint itself
// does not resolve to a live directory record.
func (r *Resolver) ResolveCandidate(dir *mft.Entry, chunkParentHint mft.FileReference, name string) string {
	if dir.InUse {
		return r.Resolve(dir.Reference()) + "/" + name
	}
	if !r.hintIsLiveDirectory(chunkParentHint) {
		return UnknownLabel + "/" + name
	}
	return r.Resolve(chunkParentHint) + "/" + name
}

// hintIsLiveDirectory reports whether ref names a live, in-use directory
// record with a sequence number matching ref itself — the single-hop
// validity check spec.md §4.5 describes. Only once that holds is it safe to
// recurse into its own ancestors via Resolve, which may legitimately
// cascade to OrphanLabel further up the chain.
func (r *Resolver) hintIsLiveDirectory(ref mft.FileReference) bool {
	if !ref.Valid(r.cat.MaxRecords) {
		return false
	}
	entry, ok := r.cat.Entries[ref.RecordNumber()]
	if !ok {
		return false
	}
	return entry.InUse && entry.IsDirectory && entry.Sequence == ref.SequenceNumber()
}
