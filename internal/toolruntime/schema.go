package toolruntime

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolDefinition is the wire shape sent to the provider alongside
// tool_choice: "auto" (spec §6 Provider wire contract).
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

const (
	schemaReadFile = `{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"offset": {"type": "integer"},
			"limit": {"type": "integer"}
		},
		"required": ["path"]
	}`
	schemaWriteFile = `{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"filePath": {"type": "string"},
			"content": {"type": "string"}
		},
		"required": ["content"]
	}`
	schemaApplyPatch = `{
		"type": "object",
		"properties": {
			"patch": {"type": "string"}
		},
		"required": ["patch"]
	}`
	schemaShell = `{
		"type": "object",
		"properties": {
			"command": {},
			"workdir": {"type": "string"},
			"timeout_ms": {"type": "integer"}
		},
		"required": ["command"]
	}`
	schemaUpdatePlan = `{
		"type": "object",
		"properties": {
			"plan": {"type": "string"},
			"explanation": {"type": "string"}
		},
		"required": ["plan"]
	}`
	schemaPlanUpdate = `{
		"type": "object",
		"properties": {
			"todos": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"id": {"type": "string"},
						"content": {"type": "string"},
						"status": {"type": "string", "enum": ["pending", "in_progress", "completed"]},
						"priority": {"type": "string"}
					},
					"required": ["id", "content", "status"]
				}
			},
			"summary": {"type": "string"},
			"replace": {"type": "boolean"}
		},
		"required": ["todos"]
	}`
	schemaGlob = `{
		"type": "object",
		"properties": {
			"pattern": {"type": "string"},
			"cwd": {"type": "string"},
			"limit": {"type": "integer"}
		},
		"required": ["pattern"]
	}`
	schemaSearchContent = `{
		"type": "object",
		"properties": {
			"pattern": {"type": "string"},
			"cwd": {"type": "string"},
			"include": {"type": "array", "items": {"type": "string"}},
			"exclude": {"type": "array", "items": {"type": "string"}},
			"caseSensitive": {"type": "boolean"},
			"maxResults": {"type": "integer"}
		},
		"required": ["pattern"]
	}`
	schemaUnitTestCoverage = `{
		"type": "object",
		"properties": {
			"target": {"type": "string"},
			"extraArgs": {"type": "array", "items": {"type": "string"}},
			"timeout_ms": {"type": "integer"}
		}
	}`
)

// ToolDefinitions returns the full tool table of spec §4.3 in the shape the
// provider wire contract expects.
func ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{Name: "read_file", Description: "Read a slice of a text file within the project scope.", Parameters: json.RawMessage(schemaReadFile)},
		{Name: "write_file", Description: "Write or update a file, subject to user review.", Parameters: json.RawMessage(schemaWriteFile)},
		{Name: "apply_patch", Description: "Apply a unified diff via the system patch utility.", Parameters: json.RawMessage(schemaApplyPatch)},
		{Name: "shell", Description: "Run a shell command inside the sandboxed project scope.", Parameters: json.RawMessage(schemaShell)},
		{Name: "update_plan", Description: "Replace the free-text plan summary.", Parameters: json.RawMessage(schemaUpdatePlan)},
		{Name: "plan_update", Description: "Replace or merge the structured todo list.", Parameters: json.RawMessage(schemaPlanUpdate)},
		{Name: "glob", Description: "Find files matching a ** capable glob pattern.", Parameters: json.RawMessage(schemaGlob)},
		{Name: "search_content", Description: "Search file contents by regular expression.", Parameters: json.RawMessage(schemaSearchContent)},
		{Name: "unit_test_coverage", Description: "Run the test suite with coverage enabled.", Parameters: json.RawMessage(schemaUnitTestCoverage)},
	}
}

// schemaRegistry compiles each tool's JSON schema once, when the registry is
// built, and validates
// arguments before Dispatch ever runs the handler, so a malformed call from
// the model fails with a schema error instead of a handler-specific parse
// error (SPEC_FULL.md domain-stack: santhosh-tekuri/jsonschema/v5).
type schemaRegistry struct {
	compiled map[string]*jsonschema.Schema
}

func newSchemaRegistry() (*schemaRegistry, error) {
	reg := &schemaRegistry{compiled: make(map[string]*jsonschema.Schema)}
	compiler := jsonschema.NewCompiler()
	for _, def := range ToolDefinitions() {
		url := "mem://" + def.Name + ".json"
		if err := compiler.AddResource(url, bytes.NewReader(def.Parameters)); err != nil {
			return nil, fmt.Errorf("compiling schema for %s: %w", def.Name, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compiling schema for %s: %w", def.Name, err)
		}
		reg.compiled[def.Name] = schema
	}
	reg.compiled["write"] = reg.compiled["write_file"]
	return reg, nil
}

// Validate checks argumentsJSON against the named tool's schema. Unknown
// tool names are not validated here; Dispatch's default case rejects them.
func (r *schemaRegistry) Validate(toolName, argumentsJSON string) error {
	schema, ok := r.compiled[toolName]
	if !ok {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal([]byte(argumentsJSON), &v); err != nil {
		return fmt.Errorf("invalid arguments JSON (%v)", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
