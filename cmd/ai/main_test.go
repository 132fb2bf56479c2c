package main

import (
	"context"
	"strings"
	"testing"
)

func TestSystemInstructionsWholeRepo(t *testing.T) {
	got := systemInstructions("/repo", "/repo")
	if want := "Focus on the entire repository."; !strings.Contains(got, want) {
		t.Fatalf("expected instructions to contain %q, got %q", want, got)
	}
}

func TestSystemInstructionsScoped(t *testing.T) {
	got := systemInstructions("/repo", "/repo/internal/agent")
	if want := "Scope: internal/agent."; !strings.Contains(got, want) {
		t.Fatalf("expected instructions to contain %q, got %q", want, got)
	}
}

func TestExitCodeForContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if code := exitCodeForContext(ctx); code != 130 {
		t.Fatalf("expected 130 for a cancelled context, got %d", code)
	}
}

func TestExitCodeForContextLive(t *testing.T) {
	ctx := context.Background()
	if code := exitCodeForContext(ctx); code != 0 {
		t.Fatalf("expected 0 for a live context, got %d", code)
	}
}
