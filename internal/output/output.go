// Package output formats recovered index entries into the two output
// formats spec.md §6 supports, and implements the --no-active-files and
// --dedup post-processing filters from spec.md §4.8.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shubham/indxripper/internal/filetime"
	"github.com/shubham/indxripper/internal/indexblock"
	"github.com/shubham/indxripper/internal/mft"
)

// csvHeader is the column order spec.md §6 assigns to the CSV-like format.
var csvHeader = []string{
	"full_path", "size", "allocated_size",
	"created_utc", "modified_utc", "mft_changed_utc", "accessed_utc",
	"source", "child_ref",
}

func csvFields(it Item) []string {
	return []string{
		it.FullPath,
		fmt.Sprintf("%d", it.Size),
		fmt.Sprintf("%d", it.AllocatedSize),
		isoTimestamp(it.Created),
		isoTimestamp(it.Modified),
		isoTimestamp(it.MFTChanged),
		isoTimestamp(it.Accessed),
		strings.ToUpper(it.Source.String()),
		fmt.Sprintf("%d-%d", it.ChildRef.RecordNumber(), it.ChildRef.SequenceNumber()),
	}
}

func bodyfileLine(it Item) string {
	return fmt.Sprintf("0|%s|0|0|0|0|%d|%d|%d|%d|%d",
		it.FullPath, it.Size,
		unixSeconds(it.Accessed), unixSeconds(it.Modified),
		unixSeconds(it.MFTChanged), unixSeconds(it.Created))
}

// Render formats a single item as one output line (no trailing newline),
// without any of Writer's streaming state. The driver renders every line
// with it, so that --dedup has every line in hand before anything is
// written.
func Render(it Item, format string) (string, error) {
	switch format {
	case FormatCSV:
		var buf bytes.Buffer
		cw := csv.NewWriter(&buf)
		if err := cw.Write(csvFields(it)); err != nil {
			return "", err
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return "", err
		}
		return strings.TrimRight(buf.String(), "\r\n"), nil
	case FormatBodyfile:
		return bodyfileLine(it), nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

// Header returns the header line for format, or "" for formats that have
// none.
func Header(format string) string {
	if format == FormatCSV {
		return strings.Join(csvHeader, ",")
	}
	return ""
}

// Format names accepted by the -f flag.
const (
	FormatCSV      = "csv"
	FormatBodyfile = "bodyfile"
)

// Item is one recovered directory entry, resolved to a full path and ready
// to format.
type Item struct {
	FullPath string

	Size          uint64
	AllocatedSize uint64
	Created       uint64 // FILETIME ticks
	Modified      uint64
	MFTChanged    uint64
	Accessed      uint64

	Source indexblock.Source
	Name   string

	DirRef   mft.FileReference // the directory this entry was listed in
	DirInUse bool
	ChildRef mft.FileReference // the file/subdirectory this entry describes
}

// Writer formats Items in one of the supported output formats.
type Writer struct {
	format string
	csvw   *csv.Writer
	raw    io.Writer
}

// NewWriter wraps w for the given format. For FormatCSV it writes a header
// row immediately.
func NewWriter(w io.Writer, format string) (*Writer, error) {
	switch format {
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		return &Writer{format: format, csvw: cw}, nil
	case FormatBodyfile:
		return &Writer{format: format, raw: w}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// Write emits one formatted line for it.
func (w *Writer) Write(it Item) error {
	switch w.format {
	case FormatCSV:
		return w.csvw.Write(csvFields(it))
	case FormatBodyfile:
		_, err := fmt.Fprintf(w.raw, "%s\n", bodyfileLine(it))
		return err
	}
	return fmt.Errorf("unsupported output format %q", w.format)
}

// Flush flushes any buffered output. Callers must call it once after the
// last Write.
func (w *Writer) Flush() error {
	if w.csvw != nil {
		w.csvw.Flush()
		return w.csvw.Error()
	}
	return nil
}

func isoTimestamp(ticks uint64) string {
	return filetime.ToTime(ticks).Format("2006-01-02T15:04:05.000000Z")
}

func unixSeconds(ticks uint64) int64 {
	return filetime.ToTime(ticks).Unix()
}

// NoActiveFiles implements spec.md §4.8: it drops slack candidates that
// exactly duplicate a live allocated sibling, and drops allocated
// candidates whose child is already a live, unchanged MFT record — both
// cases add nothing a normal directory listing wouldn't already show.
// isChildLive reports whether ref still identifies an in-use record with a
// matching sequence number.
func NoActiveFiles(items []Item, isChildLive func(ref mft.FileReference) bool) []Item {
	type liveKey struct {
		dir  uint64
		name string
	}
	liveAllocated := make(map[liveKey]mft.FileReference)
	for _, it := range items {
		if it.Source == indexblock.Allocated && it.DirInUse {
			liveAllocated[liveKey{it.DirRef.RecordNumber(), it.Name}] = it.ChildRef
		}
	}

	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.DirInUse && it.Source == indexblock.Slack {
			if ref, ok := liveAllocated[liveKey{it.DirRef.RecordNumber(), it.Name}]; ok && ref == it.ChildRef {
				continue
			}
		}
		if it.DirInUse && it.Source == indexblock.Allocated && isChildLive(it.ChildRef) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Dedup drops lines already seen, preserving first-seen order, per the
// --dedup flag (spec.md §6).
func Dedup(lines []string) []string {
	seen := make(map[string]bool, len(lines))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
