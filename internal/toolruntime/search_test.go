package toolruntime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ryangerardwilson/aish/internal/planstate"
)

func TestSearchFallbackFindsMatches(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n\nfunc Needle() {}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.go"), []byte("package a\n\nfunc Other() {}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rt := New(dir, dir, planstate.PlanState{}, nil)
	lines, err := rt.searchFallback(searchContentArgs{Pattern: "Needle"}, dir, true, 200)
	if err != nil {
		t.Fatalf("searchFallback: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 match, got %d: %v", len(lines), lines)
	}
	if want := "a.go:3: func Needle() {}"; lines[0] != want {
		t.Fatalf("got %q, want %q", lines[0], want)
	}
}

func TestSearchFallbackRespectsExclude(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "vendor.go"), []byte("needle\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rt := New(dir, dir, planstate.PlanState{}, nil)
	lines, err := rt.searchFallback(searchContentArgs{Pattern: "needle", Exclude: []string{"vendor.go"}}, dir, true, 200)
	if err != nil {
		t.Fatalf("searchFallback: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected no matches, got %v", lines)
	}
}
