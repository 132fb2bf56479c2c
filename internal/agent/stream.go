package agent

import (
	"context"

	"github.com/ryangerardwilson/aish/internal/provider"
	"github.com/ryangerardwilson/aish/internal/renderer"
	"github.com/ryangerardwilson/aish/pkg/models"
)

// streamTurn opens a streaming request for the current transcript (spec
// §4.7 step 3), starts the hotkey listener for its duration (step 4), and
// demultiplexes Updates into renderer calls until response.completed,
// response.error, or a cancelling hotkey.
func (l *Loop) streamTurn(ctx context.Context) (resp *provider.Response, cancelled renderer.Hotkey, err error) {
	ctx, span := startTurnSpan(ctx, l.Settings.Model)
	defer span.End()

	req := provider.Request{
		Model:        l.Settings.Model,
		Instructions: l.Settings.Instructions,
		Input:        itemsToWire(l.Transcript.Items()),
		Tools:        responsesToolSchemas(),
		ToolChoice:   "auto",
	}
	if l.Settings.ShowReasoning {
		req.Reasoning = &provider.ReasoningOptions{Effort: l.Settings.ReasoningEffort, Summary: "auto"}
	}

	l.Renderer.StartHotkeyListener()
	l.Renderer.StartLoader()
	defer l.Renderer.StopHotkeyListener()
	defer l.Renderer.StopLoader()

	updates := l.Adapter.Run(ctx, req, l.Renderer.PollHotkeyEvent)

	startedReasoning := make(map[string]bool)
	startedText := make(map[string]bool)

	for update := range updates {
		switch update.Kind {
		case provider.UpdateReasoningDelta:
			if !startedReasoning[update.ItemID] {
				l.Renderer.StartReasoning(update.ItemID)
				startedReasoning[update.ItemID] = true
			}
			l.Renderer.UpdateReasoning(update.ItemID, update.Delta)

		case provider.UpdateReasoningDone:
			l.Renderer.FinishReasoning(update.ItemID, update.Final)
			delete(startedReasoning, update.ItemID)

		case provider.UpdateTextDelta:
			if !startedText[update.ItemID] {
				l.Renderer.StartAssistantStream(update.ItemID)
				startedText[update.ItemID] = true
			}
			l.Renderer.UpdateAssistantStream(update.ItemID, update.Delta)

		case provider.UpdateTextDone:
			l.Renderer.FinishAssistantStream(update.ItemID, update.Final)
			delete(startedText, update.ItemID)

		case provider.UpdateCompleted:
			return update.Response, "", nil

		case provider.UpdateCancelled:
			return nil, orDefault(update.Cancelled, renderer.HotkeyQuit), nil

		case provider.UpdateError:
			return nil, "", update.Err
		}
	}

	return nil, "", nil
}

func orDefault(hk renderer.Hotkey, fallback renderer.Hotkey) renderer.Hotkey {
	if hk == "" {
		return fallback
	}
	return hk
}

// itemsToWire renders the Transcript's Items in the provider's wire shape
// (spec §6), echoing reasoning blocks back verbatim.
func itemsToWire(items []models.Item) []provider.WireItem {
	out := make([]provider.WireItem, 0, len(items))
	for _, item := range items {
		switch item.Type {
		case models.ItemUserMessage:
			out = append(out, provider.UserMessageItem(item.Text))
		case models.ItemAssistantMessage:
			out = append(out, provider.AssistantMessageItem(item.Text))
		case models.ItemToolCall:
			out = append(out, provider.ToolCallItem(item.CallID, item.ToolName, item.Arguments))
		case models.ItemToolResult:
			out = append(out, provider.ToolResultItem(item.CallID, item.OutputText))
		case models.ItemReasoning:
			if item.Reasoning != nil {
				out = append(out, provider.ReasoningItem(item.Reasoning.ID, item.Reasoning.Summary, item.Reasoning.Content))
			}
		}
	}
	return out
}
