package transcript

import "github.com/ryangerardwilson/aish/pkg/models"

func newToolCall(callID, name, args string) models.Item {
	return models.NewToolCall(callID, name, args)
}

func newToolResult(callID, output string) models.Item {
	return models.NewToolResult(callID, output)
}
