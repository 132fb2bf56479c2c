package toolruntime

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ryangerardwilson/aish/internal/sandbox"
)

type shellArgs struct {
	Command   json.RawMessage `json:"command"`
	Workdir   string          `json:"workdir"`
	TimeoutMs int             `json:"timeout_ms"`
}

// normalizeCommand accepts either a JSON string or a JSON array of strings
// for the "command" field, matching the original's tolerance for both
// shapes, and joins an array with spaces.
func normalizeCommand(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("command is required")
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}
	var asList []string
	if err := json.Unmarshal(raw, &asList); err == nil {
		return strings.Join(asList, " "), nil
	}
	return "", fmt.Errorf("command must be a string or list of strings")
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (rt *Runtime) dispatchShell(ctx context.Context, argumentsJSON string) Result {
	var args shellArgs
	if err := parseArguments(argumentsJSON, &args); err != nil {
		return errResult("%v", err)
	}

	command, err := normalizeCommand(args.Command)
	if err != nil {
		return errResult("%v", err)
	}
	if strings.TrimSpace(command) == "" {
		return errResult("command is required")
	}

	cwd := rt.DefaultRoot
	if args.Workdir != "" {
		resolved, err := rt.resolver.resolve(args.Workdir)
		if err != nil {
			return errResult("%v", err)
		}
		cwd = resolved
	}

	timeoutSeconds := float64(envInt("AI_BASH_MAX_SECONDS", 30))
	if args.TimeoutMs > 0 {
		timeoutSeconds = float64(args.TimeoutMs) / 1000.0
	}
	maxOutputBytes := envInt("AI_BASH_MAX_OUTPUT", 32*1024)

	result, err := sandbox.Run(ctx, command, sandbox.Options{
		Cwd:             cwd,
		ScopeRoot:       rt.BaseRoot,
		TimeoutSeconds:  timeoutSeconds,
		MaxOutputBytes:  maxOutputBytes,
		ExtraDisallowed: rt.ExtraDisallowed,
	})
	if err != nil {
		return errResult("%v", err)
	}

	text := sandbox.FormatCommandResult(result)
	// The original never treats an arbitrary shell command as a mutation
	// signal (ai_engine_tools.py's handle_shell_command always returns
	// mutated=False) — there's no generic way to tell a read-only command
	// from one that changed the workspace, so callers that need the
	// snapshot refreshed after a shell edit rely on a follow-up write/
	// apply_patch call or the fsnotify watcher, not this return value.
	return Result{Text: text, Mutated: false}
}
