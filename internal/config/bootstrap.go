package config

import (
	"strings"

	"github.com/ryangerardwilson/aish/internal/renderer"
)

// Bootstrap runs the interactive first-run config flow (spec §4 supplemented
// feature 1, grounded on orchestrator.py's _bootstrap_config): prompt for an
// API key, default model, and dog-whistle phrase, then persist the result.
func Bootstrap(r renderer.Renderer) (*Config, error) {
	r.DisplayInfo("No configuration found. Let's set one up.")

	apiKey, _ := r.PromptText("OpenAI API key:")
	apiKey = strings.TrimSpace(apiKey)

	model, _ := r.PromptText("Default model [" + DefaultModel + "]:")
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}

	dogWhistle, _ := r.PromptText("Unlock phrase [" + DefaultDogWhistle + "]:")
	dogWhistle = strings.TrimSpace(dogWhistle)
	if dogWhistle == "" {
		dogWhistle = DefaultDogWhistle
	}

	cfg := &Config{
		OpenAIAPIKey: apiKey,
		Model:        model,
		DogWhistle:   dogWhistle,
	}

	if err := Save(cfg); err != nil {
		return nil, err
	}
	r.DisplayInfo("Saved configuration to " + ConfigPath())
	return cfg, nil
}
