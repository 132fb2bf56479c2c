package convstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ryangerardwilson/aish/internal/planstate"
	"github.com/ryangerardwilson/aish/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return &Store{baseDir: t.TempDir()}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := newTestStore(t)
	workspace := "/home/user/project"

	items := []models.Item{models.NewUserMessage("hello"), models.NewAssistantMessage("hi")}
	plan := planstate.PlanState{Todos: []planstate.Todo{{ID: "a", Content: "A", Status: planstate.StatusPending}}}

	if err := s.Save(workspace, items, plan); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, err := s.Load(workspace)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap == nil {
		t.Fatal("expected snapshot, got nil")
	}
	if len(snap.Items) != 2 || snap.Items[0].Text != "hello" {
		t.Fatalf("unexpected items: %+v", snap.Items)
	}
	if len(snap.Plan.Todos) != 1 || snap.Plan.Todos[0].ID != "a" {
		t.Fatalf("unexpected plan: %+v", snap.Plan)
	}
}

func TestLoadReturnsNilOnPathMismatch(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save("/workspace/a", []models.Item{models.NewUserMessage("x")}, planstate.PlanState{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// keyFor hashes the workspace path, so a different path with a
	// colliding hash cannot occur here; instead corrupt the stored path
	// field directly to simulate a stale/mismatched cache entry.
	path := s.pathFor("/workspace/a")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	corrupted := []byte(`{"workspace_path":"/workspace/other","version":1,"items":[],"plan":{"todos":null}}`)
	_ = data
	if err := os.WriteFile(path, corrupted, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	snap, err := s.Load("/workspace/a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil snapshot on path mismatch, got %+v", snap)
	}
}

func TestLoadReturnsNilOnMissingFile(t *testing.T) {
	s := newTestStore(t)
	snap, err := s.Load("/never/saved")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil snapshot, got %+v", snap)
	}
}

func TestLoadReturnsNilOnCorruptJSON(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(s.baseDir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := s.pathFor("/workspace/b")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	snap, err := s.Load("/workspace/b")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil snapshot on corrupt JSON, got %+v", snap)
	}
}

func TestDisabledStoreIsNoOp(t *testing.T) {
	s := newTestStore(t)
	s.disable = true

	if err := s.Save("/workspace/c", []models.Item{models.NewUserMessage("x")}, planstate.PlanState{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.baseDir, keyFor("/workspace/c"))); !os.IsNotExist(err) {
		t.Fatalf("expected no file written when persistence disabled")
	}

	snap, err := s.Load("/workspace/c")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil snapshot when persistence disabled")
	}
}

func TestClearRemovesCache(t *testing.T) {
	s := newTestStore(t)
	workspace := "/workspace/d"
	if err := s.Save(workspace, []models.Item{models.NewUserMessage("x")}, planstate.PlanState{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Clear(workspace); err != nil {
		t.Fatalf("clear: %v", err)
	}
	snap, err := s.Load(workspace)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil snapshot after clear")
	}

	// Clearing an already-absent cache is not an error.
	if err := s.Clear(workspace); err != nil {
		t.Fatalf("clear on absent cache: %v", err)
	}
}
