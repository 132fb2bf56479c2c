package agent

import (
	"encoding/json"

	"github.com/ryangerardwilson/aish/internal/toolruntime"
)

// responsesToolSchemas renders the Tool Runtime's tool table (spec §4.3) as
// the function-tool wire shape the Responses API expects (spec §6).
func responsesToolSchemas() []json.RawMessage {
	defs := toolruntime.ToolDefinitions()
	out := make([]json.RawMessage, 0, len(defs))
	for _, d := range defs {
		encoded, err := json.Marshal(struct {
			Type        string          `json:"type"`
			Name        string          `json:"name"`
			Description string          `json:"description"`
			Parameters  json.RawMessage `json:"parameters"`
		}{
			Type:        "function",
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		})
		if err != nil {
			continue
		}
		out = append(out, encoded)
	}
	return out
}
