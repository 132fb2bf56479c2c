// Package convstore implements the Conversation Store (spec §4.6): an
// optional on-disk transcript cache keyed by a stable hash of the absolute
// workspace path. Grounded on the teacher's internal/pairing/store.go
// atomic-write/tolerant-load pattern, adapted from a per-channel JSON file
// to a per-workspace one.
package convstore

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ryangerardwilson/aish/internal/planstate"
	"github.com/ryangerardwilson/aish/pkg/models"
)

// Snapshot is the persisted shape of one workspace's cached conversation.
type Snapshot struct {
	Version int              `json:"version"`
	Items   []models.Item    `json:"items"`
	Plan    planstate.PlanState `json:"plan"`
}

// Store persists conversation snapshots keyed by workspace path.
type Store struct {
	baseDir string
	disable bool
}

// New resolves the base directory per spec §4.6's fallback chain
// ($XDG_STATE_HOME/ai/conversations, ~/.local/state/ai/conversations,
// ~/.ai/conversations) and honours AI_DISABLE_PERSISTENCE.
func New() *Store {
	return &Store{
		baseDir: resolveBaseDir(),
		disable: isTruthy(os.Getenv("AI_DISABLE_PERSISTENCE")),
	}
}

// NewAt builds a Store rooted at an explicit base directory, bypassing XDG
// resolution. Used by callers (and tests) that need a fixed location.
func NewAt(baseDir string) *Store {
	return &Store{baseDir: baseDir, disable: isTruthy(os.Getenv("AI_DISABLE_PERSISTENCE"))}
}

func isTruthy(v string) bool {
	switch v {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	default:
		return false
	}
}

func resolveBaseDir() string {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, "ai", "conversations")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "ai", "conversations")
	}
	if info, err := os.Stat(filepath.Join(home, ".local", "state")); err == nil && info.IsDir() {
		return filepath.Join(home, ".local", "state", "ai", "conversations")
	}
	return filepath.Join(home, ".ai", "conversations")
}

// keyFor returns the stable filename for a workspace's absolute path.
func keyFor(workspacePath string) string {
	sum := sha1.Sum([]byte(workspacePath))
	return hex.EncodeToString(sum[:]) + ".json"
}

func (s *Store) pathFor(workspacePath string) string {
	return filepath.Join(s.baseDir, keyFor(workspacePath))
}

// Load returns the cached snapshot for workspacePath, or (nil, nil) if
// persistence is disabled or the cache is absent, unreadable, corrupt, or
// was written for a different workspace path (spec §4.6: "load returns
// ([], None) on any I/O or JSON failure and on path mismatch").
func (s *Store) Load(workspacePath string) (*Snapshot, error) {
	if s.disable {
		return nil, nil
	}

	data, err := os.ReadFile(s.pathFor(workspacePath))
	if err != nil {
		return nil, nil
	}

	var onDisk struct {
		WorkspacePath string `json:"workspace_path"`
		Snapshot
	}
	if err := json.Unmarshal(data, &onDisk); err != nil {
		return nil, nil
	}
	if onDisk.WorkspacePath != workspacePath {
		return nil, nil
	}
	return &onDisk.Snapshot, nil
}

// Save atomically persists items and plan for workspacePath (write-to-temp,
// rename). A no-op when persistence is disabled.
func (s *Store) Save(workspacePath string, items []models.Item, plan planstate.PlanState) error {
	if s.disable {
		return nil
	}

	if err := os.MkdirAll(s.baseDir, 0o700); err != nil {
		return err
	}

	onDisk := struct {
		WorkspacePath string `json:"workspace_path"`
		Snapshot
	}{
		WorkspacePath: workspacePath,
		Snapshot: Snapshot{
			Version: 1,
			Items:   items,
			Plan:    plan,
		},
	}

	data, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return err
	}

	path := s.pathFor(workspacePath)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Clear removes the cached snapshot for workspacePath, used by the
// "<<NEW_CONVERSATION>>" reset (spec §4.7 step 8; the reset also clears the
// on-disk cache so a subsequent process start doesn't replay stale state).
func (s *Store) Clear(workspacePath string) error {
	if s.disable {
		return nil
	}
	err := os.Remove(s.pathFor(workspacePath))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
