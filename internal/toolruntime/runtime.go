// Package toolruntime implements the named tools the model can call
// (spec §4.3): read_file, write/write_file, apply_patch, shell,
// update_plan/plan_update, glob, search_content, unit_test_coverage. It
// shares the Sandbox Executor and Context Collector and owns the single
// mutation-gate ("jfdi") choke point so that new tools inherit the policy
// by default (spec §9 Design Notes).
package toolruntime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ryangerardwilson/aish/internal/planstate"
	"github.com/ryangerardwilson/aish/internal/renderer"
)

// JFDIRequiredMessage is returned verbatim by a gated tool when
// jfdi_enabled is false (spec §4.3, §8 property 4).
const JFDIRequiredMessage = "I need you to say `jfdi` before I can apply any changes. Ask the user to type the unlock phrase, then retry this action."

// gatedTools lists every tool name that requires jfdi_enabled before it is
// allowed to run: the tools that mutate state, plus unit_test_coverage,
// which mutates nothing but spawns the test suite.
var gatedTools = map[string]bool{
	"write":              true,
	"write_file":         true,
	"apply_patch":        true,
	"shell":               true,
	"unit_test_coverage": true,
}

// Runtime is the per-dispatch ToolRuntime state (spec §3 "ToolRuntime
// state"). One Runtime is constructed per Agent Loop (or edit run) and kept
// across its turns, sharing read access to the Renderer.
type Runtime struct {
	BaseRoot          string
	DefaultRoot       string
	Plan              planstate.PlanState
	LatestInstruction string
	JFDIEnabled       bool
	SeenWrites        map[string]bool

	// ExtraDisallowed is appended to the Sandbox Executor's fixed
	// disallowed-substring set for every shell/write/coverage dispatch, set
	// from a project's .ai-project.yaml override (SPEC_FULL.md §5).
	ExtraDisallowed []string

	Renderer renderer.Renderer

	resolver resolver
	schemas  *schemaRegistry
}

// New constructs a Runtime. baseRoot is the absolute project root;
// defaultRoot is the scope the user selected (may equal baseRoot).
func New(baseRoot, defaultRoot string, plan planstate.PlanState, r renderer.Renderer) *Runtime {
	rt := &Runtime{
		BaseRoot:    baseRoot,
		DefaultRoot: defaultRoot,
		Plan:        plan,
		SeenWrites:  make(map[string]bool),
		Renderer:    r,
	}
	rt.resolver = resolver{baseRoot: baseRoot, defaultRoot: defaultRoot}
	if reg, err := newSchemaRegistry(); err == nil {
		rt.schemas = reg
	}
	return rt
}

// Result is the outcome of dispatching one tool call.
type Result struct {
	Text    string
	Mutated bool
}

// parseArguments accepts either a JSON object already decoded to a string,
// or a string containing embedded JSON, matching the original's tolerance
// for both dict and string argument payloads.
func parseArguments(raw string, out interface{}) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = "{}"
	}
	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return fmt.Errorf("invalid arguments JSON (%v)", err)
	}
	return nil
}

// Dispatch is the single entry point the Agent Loop calls for every
// ToolCall Item. It parses arguments, enforces the mutation gate at one
// choke point, and routes to the tool-specific handler.
func (rt *Runtime) Dispatch(ctx context.Context, toolName, argumentsJSON string) Result {
	if gatedTools[toolName] && !rt.JFDIEnabled {
		return Result{Text: JFDIRequiredMessage, Mutated: false}
	}

	if rt.schemas != nil {
		if err := rt.schemas.Validate(toolName, argumentsJSON); err != nil {
			return errResult("%v", err)
		}
	}

	switch toolName {
	case "read_file":
		return rt.dispatchReadFile(argumentsJSON)
	case "write", "write_file":
		return rt.dispatchWrite(argumentsJSON)
	case "apply_patch":
		return rt.dispatchApplyPatch(ctx, argumentsJSON)
	case "shell":
		return rt.dispatchShell(ctx, argumentsJSON)
	case "update_plan":
		return rt.dispatchUpdatePlan(argumentsJSON)
	case "plan_update":
		return rt.dispatchPlanUpdate(argumentsJSON)
	case "glob":
		return rt.dispatchGlob(argumentsJSON)
	case "search_content":
		return rt.dispatchSearchContent(ctx, argumentsJSON)
	case "unit_test_coverage":
		return rt.dispatchUnitTestCoverage(ctx, argumentsJSON)
	default:
		return Result{Text: fmt.Sprintf("error: unknown tool %q", toolName), Mutated: false}
	}
}

func errResult(format string, args ...interface{}) Result {
	return Result{Text: "error: " + fmt.Sprintf(format, args...), Mutated: false}
}
