// Package agent implements the Agent Loop (spec §4.7), the core state
// machine that drives one `run_conversation` invocation: building provider
// requests from the Transcript, streaming and demultiplexing the response,
// dispatching tool calls through the Tool Runtime, and prompting for
// follow-up input between turns.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ryangerardwilson/aish/internal/convstore"
	"github.com/ryangerardwilson/aish/internal/planstate"
	"github.com/ryangerardwilson/aish/internal/provider"
	"github.com/ryangerardwilson/aish/internal/renderer"
	"github.com/ryangerardwilson/aish/internal/sandbox"
	"github.com/ryangerardwilson/aish/internal/toolruntime"
	"github.com/ryangerardwilson/aish/internal/transcript"
	"github.com/ryangerardwilson/aish/internal/workspace"
	"github.com/ryangerardwilson/aish/pkg/models"
)

// NewConversationSentinel is the follow-up token that resets transcript,
// plan, and unlock state for a fresh conversation within the same process
// (spec §4.5, §4.7 step 8).
const NewConversationSentinel = "<<NEW_CONVERSATION>>"

// Settings carries the per-session configuration the Agent Loop needs to
// build a request and drive the unlock/reasoning gates.
type Settings struct {
	Model           string
	Instructions    string
	DogWhistle      string
	ShowReasoning   bool
	ReasoningEffort string
}

// Loop is the per-conversation Agent Loop. One Loop corresponds to one
// `run_conversation(prompt, scope)` invocation in spec §4.7, and is reused
// across follow-up turns within that conversation.
type Loop struct {
	Settings   Settings
	Adapter    *provider.Adapter
	Runtime    *toolruntime.Runtime
	Transcript *transcript.Transcript
	Renderer   renderer.Renderer
	ScopeRoot  string
	Collect    workspace.CollectOptions

	// Store persists a transcript+plan snapshot across process restarts,
	// keyed by ScopeRoot (spec §4.6). Nil disables persistence entirely.
	Store *convstore.Store

	// Registry backs this Loop's Prometheus counters; exposed so cmd/ai can
	// dump it to the debug log on exit when -d is set (SPEC_FULL.md domain
	// stack: registry.Gather(), no promhttp server).
	Registry *prometheus.Registry

	metrics *metrics

	contextDirty     atomic.Bool
	skipModelRequest bool
	pendingUserText  string

	// shellMessageBuffer accumulates "!" command previews across consecutive
	// shell-only follow-ups so they land as a batch of user messages ahead
	// of the next real instruction, instead of each one triggering its own
	// model turn (spec §4.7 step 8).
	shellMessageBuffer []string

	// watch is non-nil while StartWatching is actively watching DefaultRoot
	// for external edits.
	watch *watcher
}

// NewLoop constructs a Loop. registry may be nil to skip metrics
// registration (e.g. in tests).
func NewLoop(settings Settings, adapter *provider.Adapter, rt *toolruntime.Runtime, tr *transcript.Transcript, r renderer.Renderer, scopeRoot string, collect workspace.CollectOptions, registry *prometheus.Registry, store *convstore.Store) *Loop {
	l := &Loop{
		Settings:   settings,
		Adapter:    adapter,
		Runtime:    rt,
		Transcript: tr,
		Renderer:   r,
		ScopeRoot:  scopeRoot,
		Collect:    collect,
		Store:      store,
		Registry:   registry,
		metrics:    newMetrics(registry),
	}
	l.contextDirty.Store(true)
	return l
}

// DumpMetrics writes the Loop's current counter values to w in Prometheus
// text format; a no-op if registry registration was skipped (nil registry).
func (l *Loop) DumpMetrics(w io.Writer) error {
	return DumpMetrics(l.Registry, w)
}

// LoadCached restores a previously persisted transcript and plan for
// ScopeRoot, if a Store is configured and a cache entry exists (spec §4.6).
// Call once before the first RunConversation.
func (l *Loop) LoadCached() {
	if l.Store == nil {
		return
	}
	snap, err := l.Store.Load(l.ScopeRoot)
	if err != nil || snap == nil {
		return
	}
	l.Transcript.Load(snap.Items)
	l.Runtime.Plan = snap.Plan
}

// persist saves the current transcript and plan, best-effort (a write
// failure is not fatal to the conversation).
func (l *Loop) persist() {
	if l.Store == nil {
		return
	}
	_ = l.Store.Save(l.ScopeRoot, l.Transcript.Items(), l.Runtime.Plan)
}

// RunConversation drives the turn algorithm of spec §4.7 until the follow-up
// prompt is empty (successful termination) or an unrecoverable error/user
// cancellation (Ctrl-C) occurs.
func (l *Loop) RunConversation(ctx context.Context, prompt string) error {
	l.pendingUserText = prompt
	l.Runtime.LatestInstruction = prompt

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Step 1: refresh the workspace snapshot if dirty.
		if l.contextDirty.Load() {
			l.refreshSnapshot()
			l.contextDirty.Store(false)
		}

		for _, msg := range l.Renderer.ConsumeCompletionMessages() {
			l.Transcript.AppendUser(msg)
		}

		// Step 2: append the pending user message, tracking its index for
		// cancellation rollback.
		lastUserIndex := -1
		sentText := l.pendingUserText
		if sentText != "" {
			lastUserIndex = l.Transcript.AppendUser(sentText)
		}
		l.pendingUserText = ""

		toolExecuted := false
		var turnAssistantTexts []string

		if !l.skipModelRequest {
			l.metrics.turns.Inc()
			resp, cancelled, err := l.streamTurn(ctx)
			if err != nil {
				l.metrics.streamErrors.Inc()
				l.Renderer.DisplayError(err.Error())
				return &LoopError{Kind: "provider", Message: "stream failed", Cause: err}
			}
			if cancelled != "" {
				l.metrics.cancellations.WithLabelValues(string(cancelled)).Inc()
				if lastUserIndex >= 0 {
					l.Transcript.TruncateTo(lastUserIndex)
				}
				switch cancelled {
				case renderer.HotkeyRetry:
					l.pendingUserText = sentText
				case renderer.HotkeyQuit:
					l.Runtime.JFDIEnabled = false
					l.Renderer.DisplayInfo("Cancelled. Unlock phrase will be required again before any changes are applied.")
					l.skipModelRequest = true
				}
				continue
			}

			executed, mutated, texts, err := l.processOutput(ctx, resp)
			if err != nil {
				return err
			}
			toolExecuted = executed
			turnAssistantTexts = texts
			if mutated {
				l.contextDirty.Store(true)
			}
		}
		l.skipModelRequest = false

		// Step 6: a tool ran, so loop back to re-check the (possibly dirty)
		// context; contextDirty itself only flips when a dispatched tool
		// reported Mutated (spec: ContextSnapshot recomputed "whenever the
		// Tool Runtime signals a mutation", not on every tool call).
		if toolExecuted {
			l.persist()
			continue
		}

		// Step 7: scan assistant output for generated-file announcements.
		if l.applyGeneratedFiles(turnAssistantTexts) {
			l.contextDirty.Store(true)
			l.persist()
			continue
		}

		l.persist()

		// Step 8: prompt for follow-up input.
		followUp, ok := l.Renderer.PromptFollowUp()
		if !ok || strings.TrimSpace(followUp) == "" {
			slog.Debug("conversation loop ended", "reason", ErrFollowUpEOF)
			return nil
		}

		switch {
		case followUp == NewConversationSentinel:
			l.Transcript.Reset()
			l.Runtime.Plan = planstate.PlanState{}
			l.Runtime.JFDIEnabled = false
			l.Runtime.LatestInstruction = ""
			l.contextDirty.Store(true)
			l.shellMessageBuffer = nil
			// Wait for the next follow-up rather than immediately streaming
			// a model request with nothing but the refreshed snapshot.
			l.skipModelRequest = true
			if l.Store != nil {
				_ = l.Store.Clear(l.ScopeRoot)
			}

		case strings.HasPrefix(followUp, "!"):
			command := strings.TrimSpace(strings.TrimPrefix(followUp, "!"))
			if command == "" {
				l.skipModelRequest = true
				continue
			}
			result, err := sandbox.Run(ctx, command, sandbox.Options{
				Cwd:       l.Runtime.DefaultRoot,
				ScopeRoot: l.Runtime.BaseRoot,
			})
			if err != nil {
				l.Renderer.DisplayError(err.Error())
				l.skipModelRequest = true
				continue
			}
			formatted := sandbox.FormatCommandResult(result)
			l.Renderer.DisplayShellOutput(formatted)
			l.shellMessageBuffer = append(l.shellMessageBuffer, fmt.Sprintf(
				"Executed shell command: `%s`\nOutput:\n```\n%s\n```", command, formatted,
			))
			// Buffer the preview rather than sending it immediately, so a
			// run of consecutive "!" commands lands in one model turn.
			l.skipModelRequest = true

		case strings.EqualFold(followUp, l.Settings.DogWhistle):
			l.flushShellMessageBuffer()
			l.Runtime.JFDIEnabled = true
			l.Runtime.LatestInstruction = "jfdi approval"
			l.Renderer.DisplayInfo("Unlocked. I can now apply changes.")
			l.pendingUserText = "The user has granted approval to make changes (the unlock phrase was entered). You may now proceed with write/apply_patch/shell calls."

		default:
			l.flushShellMessageBuffer()
			l.Runtime.LatestInstruction = followUp
			l.pendingUserText = fmt.Sprintf(
				"Follow-up instruction:\n%s\n\nReminder: use the `write` tool to persist any file changes.",
				followUp,
			)
		}
	}
}

// flushShellMessageBuffer appends every buffered "!" command preview as its
// own user message ahead of the next real instruction (spec §4.7 step 8),
// matching the original's buffered_shell_messages handling.
func (l *Loop) flushShellMessageBuffer() {
	for _, msg := range l.shellMessageBuffer {
		l.Transcript.AppendUser(msg)
	}
	l.shellMessageBuffer = nil
}

func (l *Loop) refreshSnapshot() {
	snap, err := workspace.Collect(l.ScopeRoot, l.Collect)
	if err != nil {
		return
	}
	l.Transcript.AppendUser("Updated repository snapshot:\n" + workspace.FormatForPrompt(snap))
}

// processOutput walks a completed response's output array in order (spec
// §4.7 step 5), inserting reasoning immediately before its tool call,
// dispatching tool calls through the Tool Runtime, and collecting assistant
// message text for the generated-file scan in step 7.
func (l *Loop) processOutput(ctx context.Context, resp *provider.Response) (toolExecuted bool, mutated bool, assistantTexts []string, err error) {
	if resp == nil {
		return false, false, nil, nil
	}

	var pendingReasoning *models.Item
	reasoningByID := make(map[string]*models.Item)
	var reasoningFIFO []*models.Item

	for _, out := range resp.Output {
		switch out.Type {
		case "reasoning":
			r := models.NewReasoningItem(models.Reasoning{ID: out.ID, Summary: out.Summary, Content: out.Text})
			if out.ID != "" {
				reasoningByID[out.ID] = &r
			}
			reasoningFIFO = append(reasoningFIFO, &r)

		case "function_call":
			pendingReasoning = nil
			if r, ok := reasoningByID[out.ID]; ok {
				pendingReasoning = r
			} else if len(reasoningFIFO) > 0 {
				pendingReasoning = reasoningFIFO[0]
				reasoningFIFO = reasoningFIFO[1:]
			}

			toolCall := models.NewToolCall(out.CallID, out.Name, out.Arguments)
			l.Transcript.InsertReasoningBeforeToolCall(pendingReasoning, toolCall)

			toolCtx, span := startToolSpan(ctx, out.Name)
			result := l.Runtime.Dispatch(toolCtx, out.Name, out.Arguments)
			span.End()
			l.metrics.toolCalls.WithLabelValues(out.Name).Inc()
			if te := classifyToolResult(out.Name, out.CallID, result.Text); te != nil {
				slog.Debug("tool dispatch failed", "tool", te.ToolName, "call_id", te.CallID, "type", te.Type, "error", te.Message)
			}

			l.Transcript.Append(models.NewToolResult(out.CallID, result.Text))
			toolExecuted = true
			if result.Mutated {
				mutated = true
			}

			if result.Text == toolruntime.JFDIRequiredMessage {
				l.Transcript.Append(models.NewAssistantMessage(
					"I need the unlock phrase before I can make that change. Please tell the user what phrase to type.",
				))
			}

		default: // message item
			text := outputText(out)
			if text == "" {
				continue
			}
			l.Transcript.Append(models.NewAssistantMessage(text))
			l.Renderer.DisplayAssistantMessage(text)
			assistantTexts = append(assistantTexts, text)
		}
	}

	return toolExecuted, mutated, assistantTexts, nil
}

func outputText(out provider.OutputItem) string {
	if out.Text != "" {
		return out.Text
	}
	var b strings.Builder
	for _, c := range out.Content {
		b.WriteString(c.Text)
	}
	return b.String()
}

// applyGeneratedFiles implements spec §4.7 step 7: scans each assistant
// message for a generated-file announcement and delegates the write to the
// renderer's review flow. Returns true if any write was applied.
func (l *Loop) applyGeneratedFiles(assistantTexts []string) bool {
	applied := false
	for _, text := range assistantTexts {
		files := DetectGeneratedFiles(text)
		for _, f := range files {
			resolved := f.Path
			if !strings.HasPrefix(resolved, "/") {
				resolved = l.Runtime.DefaultRoot + "/" + resolved
			}
			status := l.Renderer.ReviewFileUpdate(resolved, f.Path, "", f.Content, InstructionImpliesWrite(l.Runtime.LatestInstruction))
			if status == renderer.StatusApplied {
				applied = true
			}
		}
		if len(files) == 0 && mentionsWriteWithoutToolCall(text) {
			l.pendingUserText = "Reminder: call the `write` tool to persist the file you just described; do not just describe it."
		}
	}
	return applied
}

func mentionsWriteWithoutToolCall(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "i've written") || strings.Contains(lower, "i have written") ||
		strings.Contains(lower, "i saved") || strings.Contains(lower, "file has been updated")
}
