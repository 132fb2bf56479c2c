// Package transcript owns the Transcript entity: the ordered sequence of
// conversation Items mutated only by the Agent Loop, with the ordering
// invariants spec §3 and §8 require (every ToolCall has exactly one later
// ToolResult before the next model request; a ReasoningItem that precedes a
// ToolCall in a provider turn is inserted immediately before it).
package transcript

import "github.com/ryangerardwilson/aish/pkg/models"

// Transcript is the ordered sequence of Items for one conversation.
type Transcript struct {
	items []models.Item
}

// New returns an empty Transcript.
func New() *Transcript {
	return &Transcript{}
}

// Len returns the number of Items currently in the transcript.
func (t *Transcript) Len() int {
	return len(t.items)
}

// Items returns a copy of the underlying Item slice; callers must not rely
// on it reflecting subsequent mutations.
func (t *Transcript) Items() []models.Item {
	out := make([]models.Item, len(t.items))
	copy(out, t.items)
	return out
}

// Append adds one Item to the end of the transcript and returns its index.
func (t *Transcript) Append(item models.Item) int {
	t.items = append(t.items, item)
	return len(t.items) - 1
}

// AppendUser appends a UserMessage Item and returns its index, for
// cancellation rollback bookkeeping (spec §4.7 step 2).
func (t *Transcript) AppendUser(text string) int {
	return t.Append(models.NewUserMessage(text))
}

// TruncateTo discards every Item from index onward (inclusive), restoring
// the transcript to the length it had before that index was appended. Used
// by quit/retry cancellation (spec §4.7 step 4, §8 property 3).
func (t *Transcript) TruncateTo(index int) {
	if index < 0 {
		index = 0
	}
	if index > len(t.items) {
		index = len(t.items)
	}
	t.items = t.items[:index]
}

// Reset clears the transcript entirely, used by the "<<NEW_CONVERSATION>>"
// sentinel (spec §4.7 step 8).
func (t *Transcript) Reset() {
	t.items = nil
}

// Load replaces the transcript's contents with items, used to restore a
// cached Conversation Store snapshot at process start (spec §4.6).
func (t *Transcript) Load(items []models.Item) {
	t.items = append([]models.Item(nil), items...)
}

// InsertReasoningBeforeToolCall appends a ReasoningItem immediately
// followed by a ToolCall Item, preserving the adjacency invariant of
// spec §3/§8 property 2.
func (t *Transcript) InsertReasoningBeforeToolCall(reasoning *models.Item, toolCall models.Item) {
	if reasoning != nil {
		t.Append(*reasoning)
	}
	t.Append(toolCall)
}

// PendingToolCallIDs returns the call_id of every ToolCall Item that does
// not yet have a matching ToolResult Item later in the transcript. Used to
// enforce spec §8 property 1 in tests and defensive assertions.
func (t *Transcript) PendingToolCallIDs() []string {
	resolved := make(map[string]bool)
	for _, item := range t.items {
		if item.Type == models.ItemToolResult {
			resolved[item.CallID] = true
		}
	}
	var pending []string
	for _, item := range t.items {
		if item.Type == models.ItemToolCall && !resolved[item.CallID] {
			pending = append(pending, item.CallID)
		}
	}
	return pending
}
