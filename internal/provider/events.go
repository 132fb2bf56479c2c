package provider

import "strconv"

// Event is a parsed Server-Sent Event from the Responses-API stream (spec
// §4.4 event vocabulary). Only the fields relevant to the emitted Type are
// populated.
type Event struct {
	Type string

	ItemID       string
	ContentIndex int
	SummaryIndex int

	Delta string
	Text  string

	Response *Response

	ErrorMessage string
}

const (
	EventReasoningTextDelta        = "response.reasoning_text.delta"
	EventReasoningTextDone         = "response.reasoning_text.done"
	EventReasoningSummaryTextDelta = "response.reasoning_summary_text.delta"
	EventReasoningSummaryTextDone  = "response.reasoning_summary_text.done"
	EventOutputTextDelta           = "response.output_text.delta"
	EventOutputTextDone            = "response.output_text.done"
	EventFunctionCallArgsDelta     = "response.function_call_arguments.delta"
	EventFunctionCallArgsDone      = "response.function_call_arguments.done"
	EventCompleted                 = "response.completed"
	EventError                     = "response.error"
)

// streamKey builds the demultiplexing key described in spec §4.4/§9: active
// reasoning and assistant-text streams are tracked per (item_id, index),
// with a discriminating prefix so a reasoning summary stream for item X
// never collides with its reasoning-content stream.
func streamKey(kind, itemID string, index int) string {
	return kind + ":" + itemID + ":" + strconv.Itoa(index)
}

// streamBuffer accumulates deltas for one active stream keyed by
// (item_id, index) until its terminal .done event flushes the final text.
type streamBuffer struct {
	kind   string
	itemID string
	index  int
	text   string
}

// demultiplexer tracks every in-flight reasoning/assistant-text stream for
// one provider turn.
type demultiplexer struct {
	active map[string]*streamBuffer
}

func newDemultiplexer() *demultiplexer {
	return &demultiplexer{active: make(map[string]*streamBuffer)}
}

func (d *demultiplexer) append(kind, itemID string, index int, delta string) *streamBuffer {
	key := streamKey(kind, itemID, index)
	buf, ok := d.active[key]
	if !ok {
		buf = &streamBuffer{kind: kind, itemID: itemID, index: index}
		d.active[key] = buf
	}
	buf.text += delta
	return buf
}

func (d *demultiplexer) finish(kind, itemID string, index int, final string) *streamBuffer {
	key := streamKey(kind, itemID, index)
	buf, ok := d.active[key]
	if !ok {
		buf = &streamBuffer{kind: kind, itemID: itemID, index: index}
	}
	if final != "" {
		buf.text = final
	}
	delete(d.active, key)
	return buf
}
