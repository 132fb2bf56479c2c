// Package provider implements the Streaming Protocol Adapter (spec §4.4):
// an OpenAI Responses-API client that demultiplexes the SSE event vocabulary
// into reasoning/assistant-text/tool-call updates the Agent Loop can consume,
// with non-blocking cancellation driven by hotkey polling.
package provider

import "encoding/json"

// WireItem is a Transcript Item in the provider's wire shape (spec §6
// Provider wire contract): user/assistant messages carry a content array,
// tool calls/results are flat function_call/function_call_output objects,
// and reasoning blocks are opaque beyond {type,id,summary,content}.
type WireItem struct {
	Type    string        `json:"type,omitempty"`
	Role    string        `json:"role,omitempty"`
	Content []WireContent `json:"content,omitempty"`

	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`

	ID             string `json:"id,omitempty"`
	Summary        string `json:"summary,omitempty"`
	ReasoningText  string `json:"content,omitempty"`
}

// WireContent is one entry of a message Item's content array.
type WireContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// UserMessageItem builds the wire shape for a user message.
func UserMessageItem(text string) WireItem {
	return WireItem{Role: "user", Content: []WireContent{{Type: "input_text", Text: text}}}
}

// AssistantMessageItem builds the wire shape for an assistant message.
func AssistantMessageItem(text string) WireItem {
	return WireItem{Role: "assistant", Content: []WireContent{{Type: "output_text", Text: text}}}
}

// ToolCallItem builds the wire shape for a function_call Item.
func ToolCallItem(callID, name, arguments string) WireItem {
	return WireItem{Type: "function_call", CallID: callID, Name: name, Arguments: arguments}
}

// ToolResultItem builds the wire shape for a function_call_output Item.
func ToolResultItem(callID, output string) WireItem {
	return WireItem{Type: "function_call_output", CallID: callID, Output: output}
}

// ReasoningItem builds the wire shape for a reasoning block, echoed back
// verbatim on the next turn.
func ReasoningItem(id, summary, content string) WireItem {
	return WireItem{Type: "reasoning", ID: id, Summary: summary, ReasoningText: content}
}

// ReasoningOptions controls whether and how the model emits reasoning.
type ReasoningOptions struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Request is the body of a streaming (or non-streaming) Responses-API call.
type Request struct {
	Model        string            `json:"model"`
	Instructions string            `json:"instructions"`
	Input        []WireItem        `json:"input"`
	Tools        []json.RawMessage `json:"tools"`
	ToolChoice   string            `json:"tool_choice"`
	Reasoning    *ReasoningOptions `json:"reasoning,omitempty"`
	Stream       bool              `json:"stream"`
}

// OutputItem is one entry of response.completed's ordered output array.
type OutputItem struct {
	Type    string        `json:"type"`
	ID      string        `json:"id,omitempty"`
	Role    string        `json:"role,omitempty"`
	Content []WireContent `json:"content,omitempty"`

	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	Summary string `json:"summary,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Response is the terminal object carried by response.completed.
type Response struct {
	ID     string       `json:"id"`
	Output []OutputItem `json:"output"`
}
