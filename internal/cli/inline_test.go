package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseInlinePromptRejectsFlags(t *testing.T) {
	req, errMsg, ok := ParseInlinePrompt([]string{"-v"})
	if ok || req != nil || errMsg != "" {
		t.Fatalf("expected not-ok for flag-like argv, got req=%+v err=%q ok=%v", req, errMsg, ok)
	}
}

func TestParseInlinePromptNoScopes(t *testing.T) {
	req, errMsg, ok := ParseInlinePrompt([]string{"fix", "the", "bug"})
	if !ok || errMsg != "" {
		t.Fatalf("expected ok, got err=%q", errMsg)
	}
	if req.Prompt != "fix the bug" || len(req.Scopes) != 0 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestParseInlinePromptWithScope(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	req, errMsg, ok := ParseInlinePrompt([]string{dir, "explain", "this"})
	if !ok || errMsg != "" {
		t.Fatalf("expected ok, got err=%q", errMsg)
	}
	if len(req.Scopes) != 1 || req.Prompt != "explain this" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestParseInlinePromptEmptyAfterScopeErrors(t *testing.T) {
	dir := t.TempDir()
	_, errMsg, ok := ParseInlinePrompt([]string{dir})
	if !ok || errMsg == "" {
		t.Fatalf("expected an error for a bare scope with no prompt")
	}
}

func TestDetectShellInvocationLeadingBang(t *testing.T) {
	inv := DetectShellInvocation([]string{"!ls", "-la"})
	if inv == nil || inv.Command != "ls -la" || inv.Scope != "" {
		t.Fatalf("unexpected invocation: %+v", inv)
	}
}

func TestDetectShellInvocationWithScope(t *testing.T) {
	dir := t.TempDir()
	inv := DetectShellInvocation([]string{dir, "!git", "status"})
	if inv == nil || inv.Command != "git status" {
		t.Fatalf("unexpected invocation: %+v", inv)
	}
	if inv.Scope != filepath.Clean(dir) && inv.Scope != dir {
		t.Fatalf("unexpected scope: %q", inv.Scope)
	}
}

func TestDetectShellInvocationNone(t *testing.T) {
	if inv := DetectShellInvocation([]string{"fix", "the", "bug"}); inv != nil {
		t.Fatalf("expected nil, got %+v", inv)
	}
}
