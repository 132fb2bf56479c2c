package planstate

import "testing"

func TestMergeByID(t *testing.T) {
	current := PlanState{Todos: []Todo{
		{ID: "a", Content: "A", Status: StatusPending},
		{ID: "b", Content: "B", Status: StatusPending},
	}}

	updates := []Update{
		{ID: "b", Content: "B2", Status: StatusInProgress},
		{ID: "c", Content: "C", Status: StatusPending},
	}

	merged, err := Merge(current, updates, "")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	want := []Todo{
		{ID: "a", Content: "A", Status: StatusPending},
		{ID: "b", Content: "B2", Status: StatusInProgress},
		{ID: "c", Content: "C", Status: StatusPending},
	}
	if len(merged.Todos) != len(want) {
		t.Fatalf("expected %d todos, got %d", len(want), len(merged.Todos))
	}
	for i, w := range want {
		if merged.Todos[i] != w {
			t.Fatalf("todo %d: got %+v want %+v", i, merged.Todos[i], w)
		}
	}
}

func TestValidateRejectsDuplicateID(t *testing.T) {
	err := Validate([]Todo{
		{ID: "a", Status: StatusPending},
		{ID: "a", Status: StatusPending},
	})
	if err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestValidateRejectsUnknownStatus(t *testing.T) {
	err := Validate([]Todo{{ID: "a", Status: Status("bogus")}})
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestReplaceOverwrites(t *testing.T) {
	current := PlanState{Todos: []Todo{{ID: "a", Status: StatusPending}}}
	updates := []Update{{ID: "z", Content: "Z", Status: StatusCompleted}}

	replaced, err := Replace(current, updates, "done")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(replaced.Todos) != 1 || replaced.Todos[0].ID != "z" {
		t.Fatalf("expected single replaced todo z, got %+v", replaced.Todos)
	}
	if replaced.Summary != "done" {
		t.Fatalf("expected summary 'done', got %q", replaced.Summary)
	}
}
