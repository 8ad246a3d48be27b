package archive

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
)

func TestWriter_AscendingOrderPreserved(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.Add("slice.json", []byte(`{"layer_count":3}`)); err != nil {
		t.Fatalf("Add(slice.json): %v", err)
	}
	for i := 0; i < 3; i++ {
		name := []byte{'0' + byte(i)}
		if err := w.Add(string(name)+".png", name); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	out := buf.Bytes()
	prev := -1
	for _, name := range []string{"slice.json", "0.png", "1.png", "2.png"} {
		idx := bytes.Index(out, []byte(name))
		if idx < 0 {
			t.Fatalf("entry %q not found in archive", name)
		}
		if idx < prev {
			t.Fatalf("entry %q appears out of order", name)
		}
		prev = idx
	}
}

func TestWriter_EntryCountLimit(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.records = make([]centralRecord, maxEntries)

	err := w.Add("one-too-many.png", []byte{1})
	if !errors.Is(err, errkind.ArchiveLimit) {
		t.Fatalf("expected ErrArchiveLimit, got %v", err)
	}
}

func TestWriter_NameLengthLimit(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	longName := strings.Repeat("a", maxNameLen+1)
	err := w.Add(longName, []byte{1})
	if !errors.Is(err, errkind.ArchiveLimit) {
		t.Fatalf("expected ErrArchiveLimit, got %v", err)
	}
}

func TestWriter_EOCDEntryCountMatchesAdds(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for i := 0; i < 5; i++ {
		if err := w.Add(string(rune('a'+i)), []byte{byte(i)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	out := buf.Bytes()
	eocdIdx := bytes.LastIndex(out, []byte{0x50, 0x4b, 0x05, 0x06})
	if eocdIdx < 0 {
		t.Fatal("EOCD signature not found")
	}
	count := uint16(out[eocdIdx+8]) | uint16(out[eocdIdx+9])<<8
	if count != 5 {
		t.Fatalf("EOCD entry count = %d, want 5", count)
	}
}

func TestWriter_AbortPreventsFinalize(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Add("a.png", []byte{1}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	w.Abort()
	if err := w.Finalize(); err == nil {
		t.Fatal("expected Finalize to fail after Abort")
	}
}
