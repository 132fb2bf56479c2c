package provider

import (
	"context"
	"testing"

	"github.com/ryangerardwilson/aish/internal/renderer"
)

// TestRunSurfacesConfigurationErrorOnce covers spec §8 property 10's
// "exactly one cancellation/terminal action" shape at the adapter boundary:
// a Client with no API key fails fast with a single UpdateError and the
// channel closes immediately, without ever reaching the SSE loop (and
// therefore without ever polling for cancellation).
func TestRunSurfacesConfigurationErrorOnce(t *testing.T) {
	client := NewClient("")
	adapter := NewAdapter(client)

	polled := 0
	poll := func() (renderer.Hotkey, bool) {
		polled++
		return "", false
	}

	updates := adapter.Run(context.Background(), Request{Model: "gpt-4o-mini"}, poll)

	count := 0
	var lastKind string
	for u := range updates {
		count++
		lastKind = u.Kind
	}
	if count != 1 {
		t.Fatalf("expected exactly one Update, got %d", count)
	}
	if lastKind != UpdateError {
		t.Fatalf("expected UpdateError, got %q", lastKind)
	}
	if polled != 0 {
		t.Fatalf("poll should never be called when Stream fails before the SSE loop starts, got %d calls", polled)
	}
}
