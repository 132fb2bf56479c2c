package transcript

import "testing"

func TestTruncateToRestoresLength(t *testing.T) {
	tr := New()
	tr.AppendUser("hello")
	before := tr.Len()
	idx := tr.AppendUser("world")
	tr.TruncateTo(idx)
	if tr.Len() != before {
		t.Fatalf("expected length %d after truncate, got %d", before, tr.Len())
	}
}

func TestPendingToolCallIDs(t *testing.T) {
	tr := New()
	tr.AppendUser("do it")
	tr.Append(newToolCall("c1", "read_file", `{"path":"a.txt"}`))
	if ids := tr.PendingToolCallIDs(); len(ids) != 1 || ids[0] != "c1" {
		t.Fatalf("expected pending call c1, got %v", ids)
	}
	tr.Append(newToolResult("c1", "contents"))
	if ids := tr.PendingToolCallIDs(); len(ids) != 0 {
		t.Fatalf("expected no pending calls, got %v", ids)
	}
}

func TestResetClearsTranscript(t *testing.T) {
	tr := New()
	tr.AppendUser("one")
	tr.AppendUser("two")
	tr.Reset()
	if tr.Len() != 0 {
		t.Fatalf("expected empty transcript after reset, got len %d", tr.Len())
	}
}
