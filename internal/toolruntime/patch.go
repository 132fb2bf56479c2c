package toolruntime

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

type applyPatchArgs struct {
	Patch string `json:"patch"`
}

var patchFileHeader = regexp.MustCompile(`(?m)^--- (?:a/)?(\S+)`)

// extractPatchPaths returns every file path touched by a unified diff, used
// only to show the user a confirmation prompt before shelling out to patch.
func extractPatchPaths(patch string) []string {
	matches := patchFileHeader.FindAllStringSubmatch(patch, -1)
	var paths []string
	for _, m := range matches {
		if m[1] != "/dev/null" {
			paths = append(paths, m[1])
		}
	}
	return paths
}

// dispatchApplyPatch pipes the diff to an external `patch -p0 --batch
// --forward` invocation inside BaseRoot after an explicit user confirmation
// prompt (spec §4.3).
func (rt *Runtime) dispatchApplyPatch(ctx context.Context, argumentsJSON string) Result {
	var args applyPatchArgs
	if err := parseArguments(argumentsJSON, &args); err != nil {
		return errResult("%v", err)
	}
	if strings.TrimSpace(args.Patch) == "" {
		return errResult("patch is required")
	}

	paths := extractPatchPaths(args.Patch)
	prompt := "Apply patch"
	if len(paths) > 0 {
		prompt = fmt.Sprintf("Apply patch to %s", strings.Join(paths, ", "))
	}
	if !rt.Renderer.PromptConfirm(prompt, true) {
		return Result{Text: "user_rejected", Mutated: false}
	}

	cmd := exec.CommandContext(ctx, "patch", "-p0", "--batch", "--forward")
	cmd.Dir = rt.BaseRoot
	cmd.Stdin = strings.NewReader(args.Patch)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errResult("apply_patch failed: %v\nstdout: %s\nstderr: %s", err, stdout.String(), stderr.String())
	}

	return Result{Text: "applied", Mutated: true}
}
