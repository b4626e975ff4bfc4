package progress

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestNewReturnsLogReporterWhenNotInteractive(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)
	if _, ok := r.(*logReporter); !ok {
		t.Fatalf("New(interactive=false) = %T, want *logReporter", r)
	}
}

func TestLogReporterDoneWritesSummary(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	r.Done(3, 42)

	got := buf.String()
	if !strings.Contains(got, "swept 3 directories") || !strings.Contains(got, "recovered 42 entries") {
		t.Errorf("Done output = %q, missing expected counts", got)
	}
}

func TestLogReporterDirectorySkipsZeroFinds(t *testing.T) {
	var logBuf bytes.Buffer
	log.SetOutput(&logBuf)
	defer log.SetOutput(os.Stderr)

	var buf bytes.Buffer
	r := New(&buf, false)

	r.Directory("/empty", 0)
	if logBuf.Len() != 0 {
		t.Errorf("expected no log output for zero finds, got %q", logBuf.String())
	}

	r.Directory("/has-entries", 5)
	if !strings.Contains(logBuf.String(), "/has-entries") || !strings.Contains(logBuf.String(), "5 recovered") {
		t.Errorf("log output = %q, want mention of /has-entries and 5 recovered", logBuf.String())
	}
}
