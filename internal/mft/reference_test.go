package mft

import "testing"

func TestFileReferencePackingRoundTrip(t *testing.T) {
	ref := NewFileReference(1234, 7)
	if ref.RecordNumber() != 1234 {
		t.Errorf("RecordNumber() = %d, want 1234", ref.RecordNumber())
	}
	if ref.SequenceNumber() != 7 {
		t.Errorf("SequenceNumber() = %d, want 7", ref.SequenceNumber())
	}
}

func TestFileReferenceValid(t *testing.T) {
	tests := []struct {
		name       string
		ref        FileReference
		maxRecords uint64
		want       bool
	}{
		{"zero is invalid", 0, 1000, false},
		{"within range", NewFileReference(5, 1), 1000, true},
		{"out of range", NewFileReference(2000, 1), 1000, false},
		{"boundary is invalid", NewFileReference(1000, 1), 1000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.Valid(tt.maxRecords); got != tt.want {
				t.Errorf("Valid(%d) = %v, want %v", tt.maxRecords, got, tt.want)
			}
		})
	}
}

func TestFileReferenceSameFile(t *testing.T) {
	a := NewFileReference(5, 2)
	b := NewFileReference(5, 2)
	c := NewFileReference(5, 3)

	if !a.SameFile(b) {
		t.Error("equal record+sequence should be SameFile")
	}
	if a.SameFile(c) {
		t.Error("mismatched sequence should not be SameFile")
	}
}
