// Package cli implements the orchestrator-level argv parsing the spec
// compresses into one external-interfaces paragraph: inline-prompt/scope
// parsing and leading-`!` shell-invocation detection (SPEC_FULL.md §4
// supplemented features 3–4), grounded on the original's
// inline_prompt_mode.py and orchestrator.py:_detect_shell_invocation.
package cli

import (
	"os"
	"path/filepath"
	"strings"
)

// InlinePromptRequest is a parsed "<path...> <prompt...>" invocation: zero
// or more leading existing-path arguments consumed as scopes, followed by
// the remaining argv joined as the prompt.
type InlinePromptRequest struct {
	Prompt string
	Scopes []string
}

// ParseInlinePrompt mirrors inline_prompt_mode.py's parse_inline_prompt. It
// returns (nil, "", false) when argv is empty or any argument looks like a
// flag (cobra already owns flag parsing, so a leading "-" here means this
// isn't an inline-prompt invocation at all). err is non-empty only when
// argv resolves to an empty prompt.
func ParseInlinePrompt(argv []string) (*InlinePromptRequest, string, bool) {
	if len(argv) == 0 {
		return nil, "", false
	}
	for _, arg := range argv {
		if strings.HasPrefix(arg, "-") {
			return nil, "", false
		}
	}

	var scopes []string
	index := 0
	for index < len(argv) {
		candidate := resolveArgPath(argv[index])
		if candidate == "" {
			break
		}
		if _, err := os.Stat(candidate); err != nil {
			break
		}
		scopes = append(scopes, candidate)
		index++
	}

	if len(scopes) == 0 {
		prompt := strings.TrimSpace(strings.Join(argv, " "))
		if prompt == "" {
			return nil, "Inline prompt cannot be empty.", true
		}
		return &InlinePromptRequest{Prompt: prompt}, "", true
	}

	prompt := strings.TrimSpace(strings.Join(argv[index:], " "))
	if prompt == "" {
		return nil, "Inline prompt cannot be empty. Provide a question after the paths.", true
	}
	return &InlinePromptRequest{Prompt: prompt, Scopes: scopes}, "", true
}

func resolveArgPath(arg string) string {
	if arg == "" {
		return ""
	}
	expanded := expandHome(arg)
	if filepath.IsAbs(expanded) {
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return ""
		}
		return abs
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, expanded)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// ShellInvocation is a detected leading-`!` shell command, optionally
// preceded by an existing scope path.
type ShellInvocation struct {
	Command string
	Scope   string // empty when no scope was given
}

// DetectShellInvocation mirrors _detect_shell_invocation: a leading "!"
// token, or "<existing-path> !cmd", dispatches straight to the Sandbox
// Executor rather than falling through to inline-prompt parsing.
func DetectShellInvocation(args []string) *ShellInvocation {
	if len(args) == 0 {
		return nil
	}

	if strings.HasPrefix(args[0], "!") {
		return &ShellInvocation{Command: composeShellCommand(args[0][1:], args[1:])}
	}

	if len(args) >= 2 && strings.HasPrefix(args[1], "!") {
		scope := expandHome(args[0])
		if _, err := os.Stat(scope); err == nil {
			return &ShellInvocation{
				Command: composeShellCommand(args[1][1:], args[2:]),
				Scope:   scope,
			}
		}
	}

	return nil
}

func composeShellCommand(head string, tail []string) string {
	var parts []string
	head = strings.TrimSpace(head)
	if head != "" {
		parts = append(parts, head)
	}
	for _, item := range tail {
		if item != "" {
			parts = append(parts, item)
		}
	}
	return strings.Join(parts, " ")
}
