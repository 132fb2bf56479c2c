package toolruntime

import (
	"context"
	"strings"

	"github.com/ryangerardwilson/aish/internal/sandbox"
)

type unitTestCoverageArgs struct {
	Target    string   `json:"target"`
	ExtraArgs []string `json:"extraArgs"`
	TimeoutMs int      `json:"timeout_ms"`
}

// dispatchUnitTestCoverage runs the workspace's test suite with coverage
// enabled through the sandboxed shell. Unlike the other gated tools it
// mutates nothing, but it spawns a process and can run arbitrarily long
// test code, so it is gated behind jfdi like shell (spec §4.3).
func (rt *Runtime) dispatchUnitTestCoverage(ctx context.Context, argumentsJSON string) Result {
	var args unitTestCoverageArgs
	if err := parseArguments(argumentsJSON, &args); err != nil {
		return errResult("%v", err)
	}

	target := args.Target
	if target == "" {
		target = "./..."
	}

	parts := []string{"go", "test", target, "-cover"}
	parts = append(parts, args.ExtraArgs...)
	command := strings.Join(parts, " ")

	timeoutSeconds := float64(envInt("AI_COVERAGE_MAX_SECONDS", 120))
	if args.TimeoutMs > 0 {
		timeoutSeconds = float64(args.TimeoutMs) / 1000.0
	}
	maxOutputBytes := envInt("AI_BASH_MAX_OUTPUT", 32*1024)

	result, err := sandbox.Run(ctx, command, sandbox.Options{
		Cwd:             rt.DefaultRoot,
		ScopeRoot:       rt.BaseRoot,
		TimeoutSeconds:  timeoutSeconds,
		MaxOutputBytes:  maxOutputBytes,
		ExtraDisallowed: rt.ExtraDisallowed,
	})
	if err != nil {
		return errResult("%v", err)
	}

	return Result{Text: sandbox.FormatCommandResult(result), Mutated: false}
}
