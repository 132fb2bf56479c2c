package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestReadFileSliceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	var lines []string
	for i := 0; i < 25; i++ {
		lines = append(lines, strings.Repeat("x", 10))
	}
	content := strings.Join(lines, "\n")
	path := writeTempFile(t, dir, "sample.txt", content)

	var collected []string
	offset := 0
	for {
		slice := ReadFileSlice(path, offset, 10, MaxReadBytes)
		collected = append(collected, slice.Lines...)
		if !slice.Truncated {
			break
		}
		offset = slice.LastLineRead()
	}

	if len(collected) != len(lines) {
		t.Fatalf("expected %d lines, got %d", len(lines), len(collected))
	}
	for i := range lines {
		if collected[i] != lines[i] {
			t.Fatalf("line %d mismatch: got %q want %q", i, collected[i], lines[i])
		}
	}
}

func TestReadFileSliceBinaryDetection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	data := append([]byte("prefix"), 0x00, 0x01, 0x02)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write binary file: %v", err)
	}

	slice := ReadFileSlice(path, 0, 10, MaxReadBytes)
	if len(slice.Lines) != 1 || slice.Lines[0] != "<binary file>" {
		t.Fatalf("expected binary placeholder, got %+v", slice.Lines)
	}
}

func TestCollectOrdering(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "zzz.txt", "z")
	writeTempFile(t, dir, "README.md", "readme")
	writeTempFile(t, dir, "docs_notes.md", "docs")

	snap, err := Collect(dir, CollectOptions{})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(snap.Files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(snap.Files))
	}
	if filepath.Base(snap.Files[0].Path) != "README.md" {
		t.Fatalf("expected README.md first, got %s", snap.Files[0].Path)
	}
	if filepath.Base(snap.Files[1].Path) != "docs_notes.md" {
		t.Fatalf("expected docs_notes.md second, got %s", snap.Files[1].Path)
	}
}

func TestCollectMaxFilesCap(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < MaxFiles+5; i++ {
		writeTempFile(t, dir, filepath_Itoa(i)+".txt", "x")
	}
	snap, err := Collect(dir, CollectOptions{})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(snap.Files) != MaxFiles {
		t.Fatalf("expected cap of %d files, got %d", MaxFiles, len(snap.Files))
	}
}

func filepath_Itoa(i int) string {
	digits := "0123456789"
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append([]byte{digits[i%10]}, b...)
		i /= 10
	}
	return "f" + string(b)
}
