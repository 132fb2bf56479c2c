package toolruntime

import (
	"encoding/json"

	"github.com/ryangerardwilson/aish/internal/workspace"
)

type readFileArgs struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

func (rt *Runtime) dispatchReadFile(argumentsJSON string) Result {
	var args readFileArgs
	if err := parseArguments(argumentsJSON, &args); err != nil {
		return errResult("%v", err)
	}
	if args.Path == "" {
		return errResult("path is required")
	}

	resolved, err := rt.resolver.resolve(args.Path)
	if err != nil {
		return errResult("%v", err)
	}

	limit := args.Limit
	if limit <= 0 {
		limit = workspace.DefaultReadLimit
	}

	slice := workspace.ReadFileSlice(resolved, args.Offset, limit, workspace.MaxReadBytes)
	text := workspace.FormatFileSliceForPrompt(slice, rt.BaseRoot)

	payload, err := json.Marshal(map[string]interface{}{
		"path":      rt.resolver.relative(resolved),
		"preview":   text,
		"truncated": slice.Truncated,
	})
	if err != nil {
		return errResult("encode result: %v", err)
	}
	return Result{Text: string(payload), Mutated: false}
}
