// Package models provides the wire-level domain types shared by the agent
// loop, the streaming provider adapter, and the tool runtime.
package models

import "encoding/json"

// ItemType discriminates the tagged variants of a Transcript Item.
type ItemType string

const (
	ItemUserMessage      ItemType = "user_message"
	ItemAssistantMessage ItemType = "assistant_message"
	ItemReasoning        ItemType = "reasoning"
	ItemToolCall         ItemType = "tool_call"
	ItemToolResult       ItemType = "tool_result"
)

// Item is one tagged record in the conversation Transcript. Exactly one of
// the type-specific fields is populated, matching the Type discriminator.
//
// The sum type is modelled as a single struct rather than an interface so
// a Transcript can be serialized and replayed verbatim (the provider's
// reasoning payload in particular must round-trip opaquely, see Reasoning).
type Item struct {
	Type ItemType `json:"type"`

	// UserMessage / AssistantMessage text content.
	Text string `json:"text,omitempty"`

	// ReasoningItem: an opaque block echoed back to the provider verbatim.
	// Only {type, id, summary, content} survive sanitisation (spec §4.7 step 5).
	Reasoning *Reasoning `json:"reasoning,omitempty"`

	// ToolCall fields.
	CallID         string `json:"call_id,omitempty"`
	ToolName       string `json:"tool_name,omitempty"`
	Arguments      string `json:"arguments,omitempty"`
	ProviderItemID string `json:"provider_item_id,omitempty"`
	ReasoningID    string `json:"reasoning_id,omitempty"`

	// ToolResult fields.
	OutputText string `json:"output_text,omitempty"`
}

// Reasoning is the sanitised payload of a ReasoningItem: {type, id, summary,
// content}. Unknown provider fields are dropped on sanitisation; known
// fields are preserved verbatim so the item can be echoed back unchanged.
type Reasoning struct {
	ID      string `json:"id,omitempty"`
	Summary string `json:"summary,omitempty"`
	Content string `json:"content,omitempty"`
}

// NewUserMessage builds a UserMessage Item.
func NewUserMessage(text string) Item {
	return Item{Type: ItemUserMessage, Text: text}
}

// NewAssistantMessage builds an AssistantMessage Item.
func NewAssistantMessage(text string) Item {
	return Item{Type: ItemAssistantMessage, Text: text}
}

// NewReasoningItem builds a ReasoningItem.
func NewReasoningItem(r Reasoning) Item {
	return Item{Type: ItemReasoning, Reasoning: &r}
}

// NewToolCall builds a ToolCall Item.
func NewToolCall(callID, toolName, arguments string) Item {
	return Item{Type: ItemToolCall, CallID: callID, ToolName: toolName, Arguments: arguments}
}

// NewToolResult builds a ToolResult Item that must share a CallID with its
// originating ToolCall.
func NewToolResult(callID, outputText string) Item {
	return Item{Type: ItemToolResult, CallID: callID, OutputText: outputText}
}

// ToolCall represents an LLM's request to execute a tool. The Streaming
// Protocol Adapter does not produce it (it emits provider.Update values);
// tool calls enter the transcript as Items built by NewToolCall.
type ToolCall struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Arguments   json.RawMessage `json:"arguments"`
	ReasoningID string          `json:"reasoning_id,omitempty"`
}

// ToolResult is the output of a tool execution prior to being appended to
// the transcript as an Item.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
	// Mutated signals that the tool changed filesystem or process state,
	// which marks the workspace ContextSnapshot dirty (spec §3, §4.3).
	Mutated bool `json:"mutated,omitempty"`
}

// Attachment is an image or file attachment for vision-capable models.
// Nothing in this module sets or reads it; the wire shape is kept for
// provider symmetry with the teacher's CompletionMessage contract.
type Attachment struct {
	Type     string `json:"type"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}
