package agent

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/ryangerardwilson/aish/internal/provider"
	"github.com/ryangerardwilson/aish/internal/renderer"
	"github.com/ryangerardwilson/aish/internal/toolruntime"
)

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z0-9_+-]*\n(.*?)\n?```\\s*$")

// stripCodeFence removes a single leading/trailing fenced block wrapping the
// entire response, matching the original's tolerance for the model
// wrapping its whole answer in a fence (spec §4.7 run_edit).
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(trimmed); m != nil {
		return m[1]
	}
	return trimmed
}

// Editor runs the single-turn run_edit(path, instruction) specialisation
// (spec §4.7): it is not part of the Agent Loop state machine and does not
// touch the Transcript.
type Editor struct {
	Client       *provider.Client
	Runtime      *toolruntime.Runtime
	Renderer     renderer.Renderer
	Settings     Settings
}

// NewEditor constructs an Editor.
func NewEditor(client *provider.Client, rt *toolruntime.Runtime, r renderer.Renderer, settings Settings) *Editor {
	return &Editor{Client: client, Runtime: rt, Renderer: r, Settings: settings}
}

// RunEdit sends path's contents and instruction to the provider, strips
// code fences from the response, and delegates to review_file_update; on
// user_rejected it solicits one additional context sentence and recurses
// once (spec §4.7).
func (e *Editor) RunEdit(ctx context.Context, path, instruction string) error {
	return e.runEdit(ctx, path, instruction, true)
}

func (e *Editor) runEdit(ctx context.Context, path, instruction string, allowRetry bool) error {
	e.Runtime.LatestInstruction = instruction
	original := ""
	if data, err := os.ReadFile(path); err == nil {
		original = string(data)
	}

	raw, err := e.Client.CompleteEdit(ctx, e.Settings.Model, e.Settings.Instructions, original, instruction)
	if err != nil {
		e.Renderer.DisplayError(err.Error())
		return &LoopError{Kind: "provider", Message: "edit completion failed", Cause: err}
	}

	newContent := stripCodeFence(raw)

	if strings.TrimSpace(newContent) == "" {
		result := e.Runtime.Dispatch(ctx, "shell", `{"command":"rm `+path+`"}`)
		e.Renderer.DisplayInfo(result.Text)
		return nil
	}

	status := e.Renderer.ReviewFileUpdate(path, path, original, newContent, InstructionImpliesWrite(instruction))
	if status == renderer.StatusUserRejected && allowRetry {
		extra, ok := e.Renderer.PromptText("Anything else I should take into account?")
		if ok && strings.TrimSpace(extra) != "" {
			return e.runEdit(ctx, path, instruction+"\n\n"+extra, false)
		}
	}
	return nil
}
