// Package config resolves EngineSettings and the adjacent runtime knobs
// (spec §3 EngineSettings, §6 Configuration file) from three layered
// sources, in increasing precedence: built-in defaults, the JSON config
// file at $XDG_CONFIG_HOME/ai/config.json, and environment variables.
// Mirrors the teacher's hand-rolled layered-precedence idiom rather than a
// config framework (no example repo in the pack reaches for viper/koanf for
// a shape this small).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ContextSettings tunes the Context Collector's defaults (spec §4.2).
type ContextSettings struct {
	ReadLimit      int  `json:"read_limit,omitempty"`
	MaxBytes       int  `json:"max_bytes,omitempty"`
	IncludeListing bool `json:"include_listing,omitempty"`
}

// Config is the on-disk shape of $XDG_CONFIG_HOME/ai/config.json (spec §6).
type Config struct {
	OpenAIAPIKey   string           `json:"openai_api_key"`
	Model          string           `json:"model"`
	DogWhistle     string           `json:"dog_whistle"`
	ContextSettings *ContextSettings `json:"context_settings,omitempty"`
}

// DefaultModel is used when neither the config file nor AI_MODEL supplies
// one.
const DefaultModel = "gpt-5"

// DefaultDogWhistle is the fallback unlock phrase the original ships with.
const DefaultDogWhistle = "jfdi"

// Resolved is the fully layered configuration the rest of the program
// consumes, after defaults, file, and environment have been merged.
type Resolved struct {
	OpenAIAPIKey    string
	Model           string
	DogWhistle      string
	ShowReasoning   bool
	ReasoningEffort string
	DebugReasoning  bool
	DebugAPI        bool
	BashMaxSeconds  float64
	BashMaxOutput   int
	ContextReadLimit int
	ContextMaxBytes  int
	ContextIncludeListing bool
	Color           string
	PromptEditor    string
	DisablePersistence bool
}

// ConfigDir returns $XDG_CONFIG_HOME/ai, falling back to ~/.config/ai.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ai")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "ai")
	}
	return filepath.Join(home, ".config", "ai")
}

// ConfigPath returns the path to the JSON config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Load reads the JSON config file, returning (nil, false, nil) if it does
// not exist so the caller can trigger Bootstrap (spec §6: "missing file
// triggers an interactive bootstrap").
func Load() (*Config, bool, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, false, fmt.Errorf("parse config at %s: %w", ConfigPath(), err)
	}
	return &cfg, true, nil
}

// Save atomically writes cfg to the config file (write-to-temp, rename),
// creating the config directory if needed.
func Save(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	path := ConfigPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Resolve merges defaults, the file config (nil if absent), and the
// environment (spec §6's env var list), in that increasing precedence.
func Resolve(cfg *Config) Resolved {
	r := Resolved{
		Model:                 DefaultModel,
		DogWhistle:            DefaultDogWhistle,
		ReasoningEffort:       "medium",
		BashMaxSeconds:        30,
		BashMaxOutput:         32 * 1024,
		ContextReadLimit:      200,
		ContextMaxBytes:       8 * 1024,
		ContextIncludeListing: true,
	}

	if cfg != nil {
		r.OpenAIAPIKey = cfg.OpenAIAPIKey
		if cfg.Model != "" {
			r.Model = cfg.Model
		}
		if cfg.DogWhistle != "" {
			r.DogWhistle = cfg.DogWhistle
		}
		if cfg.ContextSettings != nil {
			if cfg.ContextSettings.ReadLimit > 0 {
				r.ContextReadLimit = cfg.ContextSettings.ReadLimit
			}
			if cfg.ContextSettings.MaxBytes > 0 {
				r.ContextMaxBytes = cfg.ContextSettings.MaxBytes
			}
			r.ContextIncludeListing = cfg.ContextSettings.IncludeListing
		}
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		r.OpenAIAPIKey = v
	}
	if v := os.Getenv("AI_MODEL"); v != "" {
		r.Model = v
	}
	if v := os.Getenv("DOG_WHISTLE"); v != "" {
		r.DogWhistle = v
	}
	r.ShowReasoning = boolEnv("AI_SHOW_REASONING") || boolEnv("AI_SHOW_THINKING")
	if v := os.Getenv("AI_REASONING_EFFORT"); v != "" {
		r.ReasoningEffort = v
	}
	r.DebugReasoning = boolEnv("AI_DEBUG_REASONING")
	r.DebugAPI = boolEnv("AI_DEBUG_API")
	if v, ok := floatEnv("AI_BASH_MAX_SECONDS"); ok {
		r.BashMaxSeconds = v
	}
	if v, ok := intEnv("AI_BASH_MAX_OUTPUT"); ok {
		r.BashMaxOutput = v
	}
	if v, ok := intEnv("AI_CONTEXT_READ_LIMIT"); ok {
		r.ContextReadLimit = v
	}
	if v, ok := intEnv("AI_CONTEXT_MAX_BYTES"); ok {
		r.ContextMaxBytes = v
	}
	if v := os.Getenv("AI_CONTEXT_INCLUDE_LISTING"); v != "" {
		r.ContextIncludeListing = boolEnv("AI_CONTEXT_INCLUDE_LISTING")
	}
	r.Color = os.Getenv("AI_COLOR")
	r.PromptEditor = firstNonEmpty(os.Getenv("AI_PROMPT_EDITOR"), os.Getenv("VISUAL"), os.Getenv("EDITOR"))
	r.DisablePersistence = boolEnv("AI_DISABLE_PERSISTENCE")

	return r
}

func boolEnv(name string) bool {
	switch os.Getenv(name) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	default:
		return false
	}
}

func intEnv(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func floatEnv(name string) (float64, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
