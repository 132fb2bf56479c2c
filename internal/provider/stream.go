package provider

import (
	"context"
	"encoding/json"

	"github.com/ryangerardwilson/aish/internal/renderer"
)

// Update is one item handed to the Agent Loop while a stream is in flight.
// Which fields beyond Kind are set depends on Kind.
type Update struct {
	Kind string // "reasoning_delta", "reasoning_done", "text_delta", "text_done", "completed", "cancelled", "error"

	ItemID string
	Delta  string
	Final  string

	Response *Response

	Cancelled renderer.Hotkey
	Err       error
}

const (
	UpdateReasoningDelta = "reasoning_delta"
	UpdateReasoningDone  = "reasoning_done"
	UpdateTextDelta      = "text_delta"
	UpdateTextDone       = "text_done"
	UpdateCompleted      = "completed"
	UpdateCancelled      = "cancelled"
	UpdateError          = "error"
)

// PollFunc is a non-blocking hotkey poll, matching Renderer.PollHotkeyEvent
// (spec §9 "cancellation without async-keyword support").
type PollFunc func() (renderer.Hotkey, bool)

// Adapter consumes one streaming Responses-API call and demultiplexes its
// events into Updates, honouring cancellation via PollFunc between every
// event (spec §4.4).
type Adapter struct {
	client *Client
}

// NewAdapter constructs an Adapter bound to client.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Run opens the stream and returns a channel of Updates. The channel is
// closed when the stream ends, errors, or is cancelled. poll is invoked
// between every received SSE frame; on a "quit" or "retry" hotkey the
// adapter closes the underlying body and emits a single UpdateCancelled.
func (a *Adapter) Run(ctx context.Context, req Request, poll PollFunc) <-chan Update {
	out := make(chan Update)
	go a.run(ctx, req, poll, out)
	return out
}

func (a *Adapter) run(ctx context.Context, req Request, poll PollFunc, out chan<- Update) {
	defer close(out)

	body, err := a.client.Stream(ctx, req)
	if err != nil {
		out <- Update{Kind: UpdateError, Err: err}
		return
	}
	defer body.Close()

	scanner := newSSEScanner(body)
	demux := newDemultiplexer()

	for {
		if poll != nil {
			if hk, ok := poll(); ok {
				out <- Update{Kind: UpdateCancelled, Cancelled: hk}
				return
			}
		}
		select {
		case <-ctx.Done():
			out <- Update{Kind: UpdateCancelled}
			return
		default:
		}

		payload, ok := scanner.Next()
		if !ok {
			return
		}

		var raw struct {
			Type         string `json:"type"`
			ItemID       string `json:"item_id"`
			ContentIndex int    `json:"content_index"`
			SummaryIndex int    `json:"summary_index"`
			Delta        string `json:"delta"`
			Text         string `json:"text"`
			Response     *Response `json:"response"`
			Error        struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal([]byte(payload), &raw); err != nil {
			continue
		}

		switch raw.Type {
		case EventReasoningTextDelta, EventReasoningSummaryTextDelta:
			kind := "reasoning_content"
			index := raw.ContentIndex
			if raw.Type == EventReasoningSummaryTextDelta {
				kind = "reasoning_summary"
				index = raw.SummaryIndex
			}
			buf := demux.append(kind, raw.ItemID, index, raw.Delta)
			out <- Update{Kind: UpdateReasoningDelta, ItemID: raw.ItemID, Delta: raw.Delta, Final: buf.text}

		case EventReasoningTextDone, EventReasoningSummaryTextDone:
			kind := "reasoning_content"
			index := raw.ContentIndex
			if raw.Type == EventReasoningSummaryTextDone {
				kind = "reasoning_summary"
				index = raw.SummaryIndex
			}
			buf := demux.finish(kind, raw.ItemID, index, raw.Text)
			out <- Update{Kind: UpdateReasoningDone, ItemID: raw.ItemID, Final: buf.text}

		case EventOutputTextDelta:
			buf := demux.append("output_text", raw.ItemID, raw.ContentIndex, raw.Delta)
			out <- Update{Kind: UpdateTextDelta, ItemID: raw.ItemID, Delta: raw.Delta, Final: buf.text}

		case EventOutputTextDone:
			buf := demux.finish("output_text", raw.ItemID, raw.ContentIndex, raw.Text)
			out <- Update{Kind: UpdateTextDone, ItemID: raw.ItemID, Final: buf.text}

		case EventFunctionCallArgsDelta, EventFunctionCallArgsDone:
			// Final arguments arrive on response.completed; these deltas are
			// only useful for a live "typing" indicator, which the terminal
			// Renderer does not currently render, so they are dropped.
			continue

		case EventCompleted:
			out <- Update{Kind: UpdateCompleted, Response: raw.Response}
			return

		case EventError:
			out <- Update{Kind: UpdateError, Err: &Error{Reason: FailoverUnknown, Message: raw.Error.Message, Provider: "openai"}}
			return
		}
	}
}
