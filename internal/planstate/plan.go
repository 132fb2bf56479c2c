// Package planstate implements the PlanState entity: an ordered todo list
// mutated only by the update_plan/plan_update tool, with replace-or-merge
// semantics selectable per call.
package planstate

import "fmt"

// Status is the allowed set of todo statuses.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func validStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Todo is one entry in a PlanState.
type Todo struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Status   Status `json:"status"`
	Priority string `json:"priority,omitempty"`
}

// PlanState holds the ordered todo list and an optional free-text summary.
type PlanState struct {
	Todos   []Todo `json:"todos"`
	Summary string `json:"summary,omitempty"`
}

// Update is one entry of an incoming plan_update call, validated before
// being applied to a PlanState via Replace or Merge.
type Update struct {
	ID       string
	Content  string
	Status   Status
	Priority string
}

// Validate checks that every id in todos is non-empty and unique, and that
// every status is a member of the allowed set (spec §3 PlanState invariant).
func Validate(todos []Todo) error {
	seen := make(map[string]bool, len(todos))
	for _, t := range todos {
		if t.ID == "" {
			return fmt.Errorf("todo id must not be empty")
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate todo id %q", t.ID)
		}
		seen[t.ID] = true
		if !validStatus(t.Status) {
			return fmt.Errorf("invalid status %q for todo %q", t.Status, t.ID)
		}
	}
	return nil
}

// Replace overwrites the current state's todo list with updates, in order.
func Replace(current PlanState, updates []Update, summary string) (PlanState, error) {
	todos := make([]Todo, 0, len(updates))
	for _, u := range updates {
		todos = append(todos, Todo{ID: u.ID, Content: u.Content, Status: u.Status, Priority: u.Priority})
	}
	if err := Validate(todos); err != nil {
		return current, err
	}
	return PlanState{Todos: todos, Summary: summary}, nil
}

// Merge applies updates onto current by id: existing ids are updated
// in place (preserving their original position), unknown ids are appended
// in the order they appear in updates (spec §8 property 8).
func Merge(current PlanState, updates []Update, summary string) (PlanState, error) {
	byID := make(map[string]Update, len(updates))
	var newIDs []string
	for _, u := range updates {
		if _, exists := byID[u.ID]; !exists {
			found := false
			for _, existing := range current.Todos {
				if existing.ID == u.ID {
					found = true
					break
				}
			}
			if !found {
				newIDs = append(newIDs, u.ID)
			}
		}
		byID[u.ID] = u
	}

	merged := make([]Todo, 0, len(current.Todos)+len(newIDs))
	for _, existing := range current.Todos {
		if u, ok := byID[existing.ID]; ok {
			merged = append(merged, Todo{ID: u.ID, Content: u.Content, Status: u.Status, Priority: u.Priority})
		} else {
			merged = append(merged, existing)
		}
	}
	for _, id := range newIDs {
		u := byID[id]
		merged = append(merged, Todo{ID: u.ID, Content: u.Content, Status: u.Status, Priority: u.Priority})
	}

	if err := Validate(merged); err != nil {
		return current, err
	}

	result := PlanState{Todos: merged, Summary: current.Summary}
	if summary != "" {
		result.Summary = summary
	}
	return result, nil
}
