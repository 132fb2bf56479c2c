package agent

import (
	"errors"
	"strings"
)

// Sentinel errors for the Agent Loop (spec §7 Error Handling Design).
var (
	// ErrFollowUpEOF marks an ordinary end of the follow-up loop (the user
	// closed stdin with Ctrl-D or submitted an empty line); it is logged,
	// never returned from RunConversation, since that termination is a
	// success, not a failure.
	ErrFollowUpEOF = errors.New("agent: follow-up prompt ended")

	// ErrConfiguration covers a missing or invalid API key/config: fatal,
	// surfaced interactively where possible.
	ErrConfiguration = errors.New("agent: configuration error")

	// ErrScopeViolation marks a tool argument that resolved outside
	// base_root (spec §8 property 5, the Tool Runtime's resolver).
	ErrScopeViolation = errors.New("agent: path outside project scope")

	// ErrCommandRejected marks a shell command the Sandbox Executor refused
	// to run (spec §4.1, §8 property 6).
	ErrCommandRejected = errors.New("agent: command rejected by sandbox policy")
)

// LoopError is a structured error surfaced by the Agent Loop, carrying
// enough context for the CLI entrypoint to choose an exit code without
// string-matching the message (spec §7 propagation policy).
type LoopError struct {
	Kind    string // "configuration", "scope_violation", "provider", "cancelled"
	Message string
	Cause   error
}

func (e *LoopError) Error() string {
	if e.Cause != nil {
		return e.Kind + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Kind + ": " + e.Message
}

func (e *LoopError) Unwrap() error {
	return e.Cause
}

// ToolErrorType classifies a tool dispatch failure for structured logging,
// mirroring the teacher's classifyToolError buckets
// (internal/agent/errors.go in haasonsaas-nexus), trimmed to the failure
// modes the Tool Runtime actually produces.
type ToolErrorType string

const (
	ToolErrorTimeout      ToolErrorType = "timeout"
	ToolErrorNetwork      ToolErrorType = "network"
	ToolErrorPermission   ToolErrorType = "permission"
	ToolErrorInvalidInput ToolErrorType = "invalid_input"
	ToolErrorExecution    ToolErrorType = "execution"
)

// ToolError is a structured record of a tool dispatch failure. The Tool
// Runtime itself never returns a Go error from Dispatch — every failure is
// a plain "error: ..." string in Result.Text, per spec §4.3/§7 — so
// ToolError exists purely for internal classification and logging; the
// wire value the model sees is unaffected by it.
type ToolError struct {
	Type     ToolErrorType
	ToolName string
	CallID   string
	Message  string
	Cause    error
}

func (e *ToolError) Error() string {
	if e.ToolName != "" {
		return string(e.Type) + ": " + e.ToolName + ": " + e.Message
	}
	return string(e.Type) + ": " + e.Message
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}

// classifyToolResult inspects a Dispatch Result's Text and, if it is an
// "error: ..." string, returns a classified ToolError for logging. It
// returns nil for a successful result.
func classifyToolResult(toolName, callID, text string) *ToolError {
	const prefix = "error: "
	if !strings.HasPrefix(text, prefix) {
		return nil
	}
	message := strings.TrimPrefix(text, prefix)
	lower := strings.ToLower(message)

	te := &ToolError{ToolName: toolName, CallID: callID, Message: message, Type: ToolErrorExecution}
	switch {
	case strings.Contains(lower, "outside project root"):
		te.Type = ToolErrorPermission
		te.Cause = ErrScopeViolation
	case strings.Contains(lower, "command rejected"):
		te.Type = ToolErrorInvalidInput
		te.Cause = ErrCommandRejected
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		te.Type = ToolErrorTimeout
	case strings.Contains(lower, "connection") || strings.Contains(lower, "network") ||
		strings.Contains(lower, "refused") || strings.Contains(lower, "unreachable"):
		te.Type = ToolErrorNetwork
	case strings.Contains(lower, "permission") || strings.Contains(lower, "forbidden"):
		te.Type = ToolErrorPermission
	case strings.Contains(lower, "required") || strings.Contains(lower, "invalid"):
		te.Type = ToolErrorInvalidInput
	}
	return te
}
