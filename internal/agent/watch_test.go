package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestStartWatchingMarksContextDirtyOnExternalEdit writes a file outside
// any tool dispatch and checks the watcher flips contextDirty within the
// debounce window, without a RunConversation turn ever running.
func TestStartWatchingMarksContextDirtyOnExternalEdit(t *testing.T) {
	loop, scope := newTestLoop(t, nil, &fakeRenderer{})
	loop.contextDirty.Store(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop.StartWatching(ctx)
	defer loop.StopWatching()

	if err := os.WriteFile(filepath.Join(scope, "touched.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if loop.contextDirty.Load() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected contextDirty to be set after an external edit")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
