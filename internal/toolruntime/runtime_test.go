package toolruntime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ryangerardwilson/aish/internal/planstate"
)

// TestDispatchGatesMutatingToolsUntilJFDI verifies spec §8 property 4: no
// gated tool mutates state while jfdi_enabled is false, for every tool name
// in gatedTools.
func TestDispatchGatesMutatingToolsUntilJFDI(t *testing.T) {
	cases := []struct {
		tool string
		args string
	}{
		{"write", `{"path":"out.txt","content":"hello"}`},
		{"write_file", `{"path":"out.txt","content":"hello"}`},
		{"apply_patch", `{"patch":"--- a\n+++ b\n"}`},
		{"shell", `{"command":"touch sentinel.txt"}`},
		{"unit_test_coverage", `{}`},
	}

	for _, tc := range cases {
		t.Run(tc.tool, func(t *testing.T) {
			dir := t.TempDir()
			rt := New(dir, dir, planstate.PlanState{}, nil)
			rt.JFDIEnabled = false

			result := rt.Dispatch(context.Background(), tc.tool, tc.args)
			if result.Text != JFDIRequiredMessage {
				t.Fatalf("tool %s: got text %q, want JFDIRequiredMessage", tc.tool, result.Text)
			}
			if result.Mutated {
				t.Fatalf("tool %s: result reported Mutated=true while locked", tc.tool)
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatalf("ReadDir: %v", err)
			}
			if len(entries) != 0 {
				t.Fatalf("tool %s: expected no filesystem changes, found %v", tc.tool, entries)
			}
		})
	}
}

// TestDispatchRejectsPathsOutsideBaseRoot verifies spec §8 property 5: a
// path argument that resolves outside base_root is rejected rather than
// followed, for both a read (ungated) and a write (gated, unlocked) tool.
func TestDispatchRejectsPathsOutsideBaseRoot(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("top secret"), 0o644); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	rt := New(dir, dir, planstate.PlanState{}, nil)
	rt.JFDIEnabled = true

	t.Run("read_file relative escape", func(t *testing.T) {
		rel, err := filepath.Rel(dir, secret)
		if err != nil {
			t.Fatalf("Rel: %v", err)
		}
		result := rt.Dispatch(context.Background(), "read_file", `{"path":"`+rel+`"}`)
		if result.Text == "" || result.Text[:7] != "error: " {
			t.Fatalf("expected an error result, got %q", result.Text)
		}
	})

	t.Run("read_file absolute escape", func(t *testing.T) {
		result := rt.Dispatch(context.Background(), "read_file", `{"path":"`+secret+`"}`)
		if result.Text == "" || result.Text[:7] != "error: " {
			t.Fatalf("expected an error result, got %q", result.Text)
		}
	})

	t.Run("write absolute escape never touches target", func(t *testing.T) {
		result := rt.Dispatch(context.Background(), "write", `{"path":"`+secret+`","content":"overwritten"}`)
		if result.Text == "" || result.Text[:7] != "error: " {
			t.Fatalf("expected an error result, got %q", result.Text)
		}
		if result.Mutated {
			t.Fatal("write outside base_root reported Mutated=true")
		}
		data, err := os.ReadFile(secret)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if string(data) != "top secret" {
			t.Fatalf("file outside base_root was modified: %q", data)
		}
	})
}
