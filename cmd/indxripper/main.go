// Command indxripper recovers NTFS directory index entries — including
// those surviving only in slack space after deletion — and writes them in
// a CSV-like or bodyfile-like format for timeline correlation.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/shubham/indxripper/internal/indexblock"
	"github.com/shubham/indxripper/internal/mft"
	"github.com/shubham/indxripper/internal/nterr"
	"github.com/shubham/indxripper/internal/output"
	"github.com/shubham/indxripper/internal/progress"
	"github.com/shubham/indxripper/internal/resolve"
	"github.com/shubham/indxripper/internal/volume"
)

var version = "dev"

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: indxripper [options] <image_or_device> <output_path>")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	flag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		partitionStart  = flag.Int64("o", 0, "NTFS partition start, in sectors")
		pathPrefix      = flag.String("m", "", "prefix prepended to every emitted path")
		format          = flag.String("f", output.FormatCSV, "output format: csv or bodyfile")
		noActiveFiles   = flag.Bool("no-active-files", false, "drop entries that duplicate a still-live file")
		skipDeletedDirs = flag.Bool("skip-deleted-dirs", false, "do not scan $INDEX_ALLOCATION of deleted directories")
		dedup           = flag.Bool("dedup", false, "drop duplicate output lines")
		showVersion     = flag.Bool("V", false, "print version and exit")
	)
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println("indxripper " + version)
		return 0
	}

	if *format != output.FormatCSV && *format != output.FormatBodyfile {
		fmt.Fprintf(os.Stderr, "indxripper: unsupported format %q\n", *format)
		usage()
		return 1
	}

	if flag.NArg() != 2 {
		usage()
		return 1
	}
	imagePath := flag.Arg(0)
	outputPath := flag.Arg(1)

	v, err := volume.Open(imagePath, *partitionStart)
	if err != nil {
		fmt.Fprintf(os.Stderr, "indxripper: %v\n", err)
		return 2
	}
	defer v.Close()

	cat, err := mft.Build(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "indxripper: %v\n", err)
		return 2
	}

	reporter := progress.New(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()))

	items := sweep(v, cat, reporter, *skipDeletedDirs, *pathPrefix)

	if *noActiveFiles {
		items = output.NoActiveFiles(items, func(ref mft.FileReference) bool {
			entry, ok := cat.Entries[ref.RecordNumber()]
			return ok && entry.InUse && entry.Sequence == ref.SequenceNumber()
		})
	}

	if err := writeOutput(outputPath, *format, items, *dedup); err != nil {
		fmt.Fprintf(os.Stderr, "indxripper: %v\n", err)
		return 2
	}

	return 0
}

// sweep walks every directory in the catalogue that has an
// $INDEX_ALLOCATION, parses its index blocks, and resolves each candidate
// to a full output.Item. Per-directory failures are logged and skipped,
// per spec.md §7's propagation policy.
func sweep(v *volume.Volume, cat *mft.Catalogue, reporter progress.Reporter, skipDeletedDirs bool, pathPrefix string) []output.Item {
	resolver := resolve.New(cat)
	desc := v.Descriptor

	var items []output.Item
	dirsSwept := 0

	for _, dir := range cat.Entries {
		if dir == nil || dir.IndexAlloc == nil {
			continue
		}
		if skipDeletedDirs && !dir.InUse {
			continue
		}

		dirPath := resolver.Resolve(dir.Reference())
		reader := dir.IndexAlloc.Reader(v, desc.ClusterSize)

		candidates, err := indexblock.Parse(reader, dir.IndexBlockSize, int(desc.BytesPerSector), cat.MaxRecords)
		if err != nil {
			log.Printf("indxripper: skipping directory %s: %v", dirPath, err)
			continue
		}

		for _, c := range candidates {
			fullPath := pathPrefix + resolver.ResolveCandidate(dir, c.ChunkParentHint, c.Name())
			items = append(items, output.Item{
				FullPath:      fullPath,
				Size:          c.FileName.RealSize,
				AllocatedSize: c.FileName.AllocatedSize,
				Created:       c.FileName.Created,
				Modified:      c.FileName.Modified,
				MFTChanged:    c.FileName.MFTChanged,
				Accessed:      c.FileName.Accessed,
				Source:        c.Source,
				Name:          c.Name(),
				DirRef:        dir.Reference(),
				DirInUse:      dir.InUse,
				ChildRef:      c.FileRef,
			})
		}

		dirsSwept++
		reporter.Directory(dirPath, len(candidates))
	}

	reporter.Done(dirsSwept, len(items))
	return items
}

// writeOutput renders items in format, optionally deduplicating lines, and
// appends them to outputPath (creating it, with a header if the format has
// one, when it doesn't already exist).
func writeOutput(outputPath, format string, items []output.Item, dedup bool) error {
	existing, statErr := os.Stat(outputPath)
	isNew := statErr != nil || existing.Size() == 0

	f, err := os.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open output: %v", nterr.ErrOutputWrite, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	if isNew {
		if header := output.Header(format); header != "" {
			if _, err := fmt.Fprintln(w, header); err != nil {
				return fmt.Errorf("%w: %v", nterr.ErrOutputWrite, err)
			}
		}
	}

	lines := make([]string, 0, len(items))
	for _, it := range items {
		line, err := output.Render(it, format)
		if err != nil {
			return fmt.Errorf("%w: %v", nterr.ErrOutputWrite, err)
		}
		lines = append(lines, line)
	}

	if dedup {
		lines = output.Dedup(lines)
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("%w: %v", nterr.ErrOutputWrite, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", nterr.ErrOutputWrite, err)
	}
	return nil
}
