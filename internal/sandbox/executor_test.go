package sandbox

import (
	"context"
	"strings"
	"testing"
)

func TestRunRejectsDisallowedSubstring(t *testing.T) {
	_, err := Run(context.Background(), "sudo rm -rf /", Options{Cwd: t.TempDir(), ScopeRoot: t.TempDir()})
	if err == nil {
		t.Fatal("expected rejection for sudo")
	}
	var rejected *CommandRejected
	if !isCommandRejected(err, &rejected) {
		t.Fatalf("expected CommandRejected, got %T: %v", err, err)
	}
}

func TestRunRejectsPathEscapeToken(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), "cat ../etc/passwd", Options{Cwd: dir, ScopeRoot: dir})
	if err == nil {
		t.Fatal("expected rejection for path-escaping token")
	}
}

func TestRunRejectsGitToken(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), "cat .git/config", Options{Cwd: dir, ScopeRoot: dir})
	if err == nil {
		t.Fatal("expected rejection for .git token")
	}
}

func TestRunRejectsCwdOutsideScope(t *testing.T) {
	scope := t.TempDir()
	outside := t.TempDir()
	_, err := Run(context.Background(), "echo hi", Options{Cwd: outside, ScopeRoot: scope})
	if err == nil {
		t.Fatal("expected rejection for cwd outside scope root")
	}
}

func TestRunTimeout(t *testing.T) {
	dir := t.TempDir()
	result, err := Run(context.Background(), "sleep 5", Options{Cwd: dir, ScopeRoot: dir, TimeoutSeconds: 0.2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ExitCode != 124 {
		t.Fatalf("expected exit code 124, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "Command timed out") {
		t.Fatalf("expected timeout marker in stderr, got %q", result.Stderr)
	}
}

func TestRunSuccess(t *testing.T) {
	dir := t.TempDir()
	result, err := Run(context.Background(), "echo hello", Options{Cwd: dir, ScopeRoot: dir})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", result.ExitCode)
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Fatalf("expected stdout 'hello', got %q", result.Stdout)
	}
}

func isCommandRejected(err error, target **CommandRejected) bool {
	if cr, ok := err.(*CommandRejected); ok {
		*target = cr
		return true
	}
	return false
}
