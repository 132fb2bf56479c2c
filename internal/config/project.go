package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectOverride is the optional .ai-project.yaml at a workspace root (spec
// SPEC_FULL.md §5, supplemental): it may pin a model, add extra disallowed
// shell substrings (appended to, never replacing, the Sandbox Executor's
// fixed set), and override the dog-whistle phrase for this project only.
type ProjectOverride struct {
	Model                   string   `yaml:"model"`
	DogWhistle              string   `yaml:"dog_whistle"`
	ExtraDisallowedSubstrings []string `yaml:"extra_disallowed_substrings"`
}

// LoadProjectOverride reads baseRoot/.ai-project.yaml, grounded on the
// teacher's yaml.v3 config-loading idiom (internal/config/loader.go).
// Absence is silent; a parse failure is logged at slog.Warn and ignored —
// config loading must never be fatal for a malformed project file (spec
// SPEC_FULL.md §5).
func LoadProjectOverride(baseRoot string) *ProjectOverride {
	path := filepath.Join(baseRoot, ".ai-project.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var override ProjectOverride
	if err := yaml.Unmarshal(data, &override); err != nil {
		slog.Warn("ignoring malformed project config", "path", path, "error", err)
		return nil
	}
	return &override
}

// Apply folds a ProjectOverride onto a Resolved config, in project-override
// precedence (above file/env, since the project file is scoped to exactly
// this workspace).
func (p *ProjectOverride) Apply(r Resolved) Resolved {
	if p == nil {
		return r
	}
	if p.Model != "" {
		r.Model = p.Model
	}
	if p.DogWhistle != "" {
		r.DogWhistle = p.DogWhistle
	}
	return r
}

// ExtraDisallowed returns the project's additional disallowed shell
// substrings, or nil if there is no override.
func (p *ProjectOverride) ExtraDisallowed() []string {
	if p == nil {
		return nil
	}
	return p.ExtraDisallowedSubstrings
}
