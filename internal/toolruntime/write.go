package toolruntime

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ryangerardwilson/aish/internal/renderer"
	"github.com/ryangerardwilson/aish/internal/sandbox"
)

type writeArgs struct {
	Path     string `json:"path"`
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
}

func (a writeArgs) path() string {
	if a.Path != "" {
		return a.Path
	}
	return a.FilePath
}

func (rt *Runtime) dispatchWrite(argumentsJSON string) Result {
	var args writeArgs
	if err := parseArguments(argumentsJSON, &args); err != nil {
		return errResult("%v", err)
	}
	path := args.path()
	if path == "" {
		return errResult("path is required")
	}

	resolved, err := rt.resolver.resolve(path)
	if err != nil {
		return errResult("%v", err)
	}

	autoApply := InstructionImpliesWrite(rt.LatestInstruction)
	return rt.applyFileUpdate(resolved, path, args.Content, autoApply)
}

// applyFileUpdate reads the current content of target (if it exists),
// delegates the commit decision to the Renderer, and carries out a
// delete_requested outcome via a sandboxed `rm` (spec §4.3 write semantics).
func (rt *Runtime) applyFileUpdate(target, displayPath, newContent string, autoApply bool) Result {
	old := ""
	if data, err := os.ReadFile(target); err == nil {
		old = string(data)
	}

	status := rt.Renderer.ReviewFileUpdate(target, displayPath, old, newContent, autoApply)

	switch status {
	case renderer.StatusApplied:
		rt.SeenWrites[target] = true
		return Result{Text: string(status), Mutated: true}
	case renderer.StatusNoChange, renderer.StatusUserRejected, renderer.StatusSkippedOutOfScope:
		return Result{Text: string(status), Mutated: false}
	case renderer.StatusDeleteRequested:
		return rt.deletePathViaShell(target, displayPath)
	default:
		// "error: ..." passthrough.
		return Result{Text: string(status), Mutated: false}
	}
}

func (rt *Runtime) deletePathViaShell(target, displayPath string) Result {
	rel := rt.resolver.relative(target)
	command := fmt.Sprintf("rm %s", quoteShellArg(rel))
	result, err := sandbox.Run(context.Background(), command, sandbox.Options{
		Cwd:             rt.BaseRoot,
		ScopeRoot:       rt.BaseRoot,
		ExtraDisallowed: rt.ExtraDisallowed,
	})
	if err != nil {
		return errResult("delete %s: %v", displayPath, err)
	}
	if result.ExitCode != 0 {
		return errResult("delete %s: %s", displayPath, sandbox.FormatCommandResult(result))
	}
	return Result{Text: "applied", Mutated: true}
}

// quoteShellArg single-quotes a token for safe embedding in a bash -lc
// command string, matching shlex.quote's behaviour for the common case.
func quoteShellArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"$`\\") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
