package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/ryangerardwilson/aish/internal/convstore"
	"github.com/ryangerardwilson/aish/internal/planstate"
	"github.com/ryangerardwilson/aish/internal/provider"
	"github.com/ryangerardwilson/aish/internal/renderer"
	"github.com/ryangerardwilson/aish/internal/toolruntime"
	"github.com/ryangerardwilson/aish/internal/transcript"
	"github.com/ryangerardwilson/aish/internal/workspace"
)

// fakeRenderer is a minimal recording Renderer test double; every turn in
// these tests resolves without a model request by driving followUps
// directly, so streaming-related methods are unused stubs.
type fakeRenderer struct {
	followUps []string
}

func (f *fakeRenderer) DisplayInfo(string)                       {}
func (f *fakeRenderer) DisplayError(string)                      {}
func (f *fakeRenderer) DisplayUserPrompt(string)                  {}
func (f *fakeRenderer) DisplayAssistantMessage(string)            {}
func (f *fakeRenderer) DisplayShellOutput(string)                 {}
func (f *fakeRenderer) DisplayPlanUpdate(string)                  {}
func (f *fakeRenderer) DisplayReasoning(string)                   {}
func (f *fakeRenderer) StartReasoning(string)                     {}
func (f *fakeRenderer) UpdateReasoning(string, string)            {}
func (f *fakeRenderer) FinishReasoning(string, string)            {}
func (f *fakeRenderer) StartAssistantStream(string)                {}
func (f *fakeRenderer) UpdateAssistantStream(string, string)       {}
func (f *fakeRenderer) FinishAssistantStream(string, string)       {}
func (f *fakeRenderer) ReviewFileUpdate(string, string, string, string, bool) renderer.FileUpdateStatus {
	return renderer.StatusNoChange
}
func (f *fakeRenderer) PromptText(string) (string, bool) { return "", false }
func (f *fakeRenderer) PromptFollowUp() (string, bool) {
	if len(f.followUps) == 0 {
		return "", false
	}
	next := f.followUps[0]
	f.followUps = f.followUps[1:]
	return next, true
}
func (f *fakeRenderer) PromptConfirm(string, bool) bool { return true }
func (f *fakeRenderer) StartLoader()                    {}
func (f *fakeRenderer) StopLoader()                     {}
func (f *fakeRenderer) StartHotkeyListener()            {}
func (f *fakeRenderer) StopHotkeyListener()             {}
func (f *fakeRenderer) PollHotkeyEvent() (renderer.Hotkey, bool) {
	return "", false
}
func (f *fakeRenderer) ConsumeCompletionMessages() []string { return nil }
func (f *fakeRenderer) EnableDebugLogging(string) error     { return nil }

var _ renderer.Renderer = (*fakeRenderer)(nil)

func newTestLoop(t *testing.T, store *convstore.Store, r *fakeRenderer) (*Loop, string) {
	t.Helper()
	scope := t.TempDir()
	rt := toolruntime.New(scope, scope, planstate.PlanState{}, r)
	tr := transcript.New()
	client := provider.NewClient("")
	adapter := provider.NewAdapter(client)
	loop := NewLoop(Settings{Model: "gpt-4o-mini"}, adapter, rt, tr, r, scope, workspace.CollectOptions{}, nil, store)
	return loop, scope
}

// TestRunConversationPersistsAcrossRestart drives a conversation to natural
// termination via an empty follow-up, then verifies a fresh Loop over the
// same scope root loads the persisted transcript (spec §4.6).
func TestRunConversationPersistsAcrossRestart(t *testing.T) {
	store := newStoreIn(t.TempDir())

	r := &fakeRenderer{followUps: []string{""}}
	loop, scope := newTestLoop(t, store, r)
	loop.skipModelRequest = true // avoid any provider call in this test

	if err := loop.RunConversation(context.Background(), "hello"); err != nil {
		t.Fatalf("RunConversation: %v", err)
	}

	r2 := &fakeRenderer{}
	rt2 := toolruntime.New(scope, scope, planstate.PlanState{}, r2)
	tr2 := transcript.New()
	client := provider.NewClient("")
	adapter := provider.NewAdapter(client)
	loop2 := NewLoop(Settings{Model: "gpt-4o-mini"}, adapter, rt2, tr2, r2, scope, workspace.CollectOptions{}, nil, store)
	loop2.LoadCached()

	if tr2.Len() == 0 {
		t.Fatalf("expected restored transcript to be non-empty")
	}
}

// TestNewConversationSentinelClearsCache verifies the <<NEW_CONVERSATION>>
// follow-up resets in-memory state and drops the original conversation from
// the persisted cache (a reset's own post-reset snapshot refresh is allowed
// to persist again afterward; what must never survive is the pre-reset
// "hello" turn).
func TestNewConversationSentinelClearsCache(t *testing.T) {
	store := newStoreIn(t.TempDir())
	r := &fakeRenderer{followUps: []string{NewConversationSentinel, ""}}
	loop, scope := newTestLoop(t, store, r)
	loop.skipModelRequest = true

	if err := loop.RunConversation(context.Background(), "hello"); err != nil {
		t.Fatalf("RunConversation: %v", err)
	}

	snap, err := store.Load(scope)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		for _, item := range snap.Items {
			if item.Text == "hello" {
				t.Fatalf("expected pre-reset conversation to be gone from cache, found %+v", snap.Items)
			}
		}
	}
}

func newStoreIn(dir string) *convstore.Store {
	return convstore.NewAt(dir)
}

// TestConsecutiveShellFollowUpsBatchIntoOneBuffer drives two "!" follow-ups
// in a row and checks neither one is flushed to the transcript on its own -
// they accumulate in shellMessageBuffer until a real instruction arrives to
// flush them, matching the original's buffered_shell_messages behaviour.
func TestConsecutiveShellFollowUpsBatchIntoOneBuffer(t *testing.T) {
	store := newStoreIn(t.TempDir())
	r := &fakeRenderer{followUps: []string{"!echo one", "!echo two", ""}}
	loop, _ := newTestLoop(t, store, r)
	loop.skipModelRequest = true

	if err := loop.RunConversation(context.Background(), "hello"); err != nil {
		t.Fatalf("RunConversation: %v", err)
	}

	if len(loop.shellMessageBuffer) != 2 {
		t.Fatalf("expected 2 buffered shell messages, got %d: %+v", len(loop.shellMessageBuffer), loop.shellMessageBuffer)
	}
	for _, item := range loop.Transcript.Items() {
		if strings.Contains(item.Text, "Executed shell command") {
			t.Fatalf("shell preview should not be flushed to the transcript before a real follow-up, found %+v", item)
		}
	}
}

// TestFlushShellMessageBufferAppendsAndClears verifies the buffer's
// contents land in the transcript, in order, and the buffer empties
// afterward.
func TestFlushShellMessageBufferAppendsAndClears(t *testing.T) {
	store := newStoreIn(t.TempDir())
	loop, _ := newTestLoop(t, store, &fakeRenderer{})
	loop.shellMessageBuffer = []string{"first preview", "second preview"}

	loop.flushShellMessageBuffer()

	if len(loop.shellMessageBuffer) != 0 {
		t.Fatalf("expected buffer to be cleared after flush, got %+v", loop.shellMessageBuffer)
	}
	items := loop.Transcript.Items()
	if len(items) != 2 || items[0].Text != "first preview" || items[1].Text != "second preview" {
		t.Fatalf("expected both buffered previews appended in order, got %+v", items)
	}
}
