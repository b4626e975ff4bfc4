// Package progress reports driver progress during the per-directory INDX
// sweep (spec.md §4.9): a plain log-based reporter when the output isn't a
// terminal, and an interactive spinner when it is.
package progress

import (
	"fmt"
	"io"
	"log"
)

// Reporter receives progress events from the driver. Implementations must
// be safe to call from the single goroutine that runs the scan — nothing
// here is used concurrently.
type Reporter interface {
	// Directory reports that directory has been swept, yielding found
	// candidates.
	Directory(path string, found int)
	// Done reports that the scan finished: dirs directories swept, total
	// candidates recovered across all of them.
	Done(dirs, total int)
}

// New returns an interactive Reporter if interactive is true, otherwise a
// plain log-based one. The driver passes os.Stderr as out and
// interactive = isatty.IsTerminal(os.Stderr.Fd()).
func New(out io.Writer, interactive bool) Reporter {
	if interactive {
		return newSpinnerReporter(out)
	}
	return &logReporter{out: out}
}

type logReporter struct {
	out io.Writer
}

func (r *logReporter) Directory(path string, found int) {
	if found > 0 {
		log.Printf("indxripper: %s: %d recovered", path, found)
	}
}

func (r *logReporter) Done(dirs, total int) {
	fmt.Fprintf(r.out, "indxripper: swept %d directories, recovered %d entries\n", dirs, total)
}
