package mft

import (
	"encoding/binary"
	"errors"
	"testing"
	"unicode/utf16"

	"github.com/shubham/indxripper/internal/nterr"
)

func buildFileNameAttr(name string, namespace uint8, parentRef FileReference) []byte {
	units := utf16.Encode([]rune(name))
	buf := make([]byte, fileNameHeaderSize+len(units)*2)

	binary.LittleEndian.PutUint64(buf[0:8], uint64(parentRef))
	binary.LittleEndian.PutUint64(buf[8:16], 130000000000000000)  // Created
	binary.LittleEndian.PutUint64(buf[16:24], 130000000000000001) // Modified
	binary.LittleEndian.PutUint64(buf[24:32], 130000000000000002) // MFTChanged
	binary.LittleEndian.PutUint64(buf[32:40], 130000000000000003) // Accessed
	binary.LittleEndian.PutUint64(buf[40:48], 4096)               // AllocatedSize
	binary.LittleEndian.PutUint64(buf[48:56], 10)                 // RealSize
	binary.LittleEndian.PutUint32(buf[56:60], 0)                  // Flags
	buf[64] = byte(len(units))
	buf[65] = namespace
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[fileNameHeaderSize+i*2:], u)
	}
	return buf
}

func TestParseFileName(t *testing.T) {
	parent := NewFileReference(5, 1)
	data := buildFileNameAttr("hello.txt", NamespaceWin32, parent)

	fn, err := ParseFileName(data)
	if err != nil {
		t.Fatalf("ParseFileName: %v", err)
	}
	if fn.Name != "hello.txt" {
		t.Errorf("Name = %q, want hello.txt", fn.Name)
	}
	if fn.ParentRef != parent {
		t.Errorf("ParentRef = %v, want %v", fn.ParentRef, parent)
	}
	if fn.Namespace != NamespaceWin32 {
		t.Errorf("Namespace = %d, want %d", fn.Namespace, NamespaceWin32)
	}
	if fn.RealSize != 10 || fn.AllocatedSize != 4096 {
		t.Errorf("sizes = (%d, %d), want (10, 4096)", fn.RealSize, fn.AllocatedSize)
	}
}

func TestParseFileNameRejectsShortHeader(t *testing.T) {
	_, err := ParseFileName(make([]byte, 10))
	if !errors.Is(err, nterr.ErrBadAttribute) {
		t.Fatalf("ParseFileName error = %v, want %v", err, nterr.ErrBadAttribute)
	}
}

func TestParseFileNameRejectsNameOutOfBounds(t *testing.T) {
	data := make([]byte, fileNameHeaderSize)
	data[64] = 5 // claims 5 UTF-16 units that aren't present
	_, err := ParseFileName(data)
	if !errors.Is(err, nterr.ErrBadAttribute) {
		t.Fatalf("ParseFileName error = %v, want %v", err, nterr.ErrBadAttribute)
	}
}

func TestBestFileNamePrefersWin32DOSOverWin32(t *testing.T) {
	candidates := []FileName{
		{Name: "DOSNAME~1", Namespace: NamespaceDOS},
		{Name: "longname.txt", Namespace: NamespaceWin32},
		{Name: "BOTH~1.TXT", Namespace: NamespaceWin32DOS},
	}
	best, ok := bestFileName(candidates)
	if !ok {
		t.Fatal("expected a best name")
	}
	if best.Name != "BOTH~1.TXT" {
		t.Errorf("best name = %q, want BOTH~1.TXT", best.Name)
	}
}

func TestBestFileNameEmptyCandidates(t *testing.T) {
	_, ok := bestFileName(nil)
	if ok {
		t.Fatal("expected ok=false for no candidates")
	}
}
