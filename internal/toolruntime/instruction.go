package toolruntime

import "strings"

var writeVerbs = []string{
	"write", "create", "add", "generate", "produce", "save", "append",
	"commit", "apply", "patch", "update", "make", "build", "draft",
	"addit", "writeit",
}

// InstructionImpliesWrite reports whether the user's own phrasing clearly
// requested a write, so dispatchWrite can set auto_apply server-side instead
// of trusting a model-supplied argument (spec §4.7 property 9; the original
// computes this from runtime.latest_instruction, never a tool argument).
func InstructionImpliesWrite(text string) bool {
	lower := strings.ToLower(text)
	for _, verb := range writeVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}
