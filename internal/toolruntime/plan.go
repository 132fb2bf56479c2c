package toolruntime

import (
	"github.com/ryangerardwilson/aish/internal/planstate"
)

type updatePlanArgs struct {
	Plan        string `json:"plan"`
	Explanation string `json:"explanation"`
}

// dispatchUpdatePlan implements the simpler `update_plan` tool: a single
// free-text plan description replaces the summary and the todo list is left
// untouched (the richer structured form is `plan_update`).
func (rt *Runtime) dispatchUpdatePlan(argumentsJSON string) Result {
	var args updatePlanArgs
	if err := parseArguments(argumentsJSON, &args); err != nil {
		return errResult("%v", err)
	}
	if args.Plan == "" {
		return errResult("plan is required")
	}

	rt.Plan.Summary = args.Plan
	if rt.Renderer != nil {
		rt.Renderer.DisplayPlanUpdate(args.Plan)
	}
	return Result{Text: "plan updated", Mutated: false}
}

type planTodoArg struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

type planUpdateArgs struct {
	Todos   []planTodoArg `json:"todos"`
	Summary string        `json:"summary"`
	Replace *bool         `json:"replace"`
}

// dispatchPlanUpdate implements the structured `plan_update` tool: replace
// (default) overwrites the todo list; replace=false merges by id (spec
// §4.3, §8 property 8).
func (rt *Runtime) dispatchPlanUpdate(argumentsJSON string) Result {
	var args planUpdateArgs
	if err := parseArguments(argumentsJSON, &args); err != nil {
		return errResult("%v", err)
	}

	updates := make([]planstate.Update, 0, len(args.Todos))
	for _, t := range args.Todos {
		updates = append(updates, planstate.Update{
			ID:       t.ID,
			Content:  t.Content,
			Status:   planstate.Status(t.Status),
			Priority: t.Priority,
		})
	}

	replace := true
	if args.Replace != nil {
		replace = *args.Replace
	}

	var (
		next planstate.PlanState
		err  error
	)
	if replace {
		next, err = planstate.Replace(rt.Plan, updates, args.Summary)
	} else {
		next, err = planstate.Merge(rt.Plan, updates, args.Summary)
	}
	if err != nil {
		return errResult("%v", err)
	}

	rt.Plan = next
	if rt.Renderer != nil {
		rt.Renderer.DisplayPlanUpdate(next.Summary)
	}
	return Result{Text: "status: updated", Mutated: false}
}
