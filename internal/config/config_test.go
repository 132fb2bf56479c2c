package config

import (
	"os"
	"path/filepath"
	"testing"
)

func withXDGConfigHome(t *testing.T, dir string) {
	t.Helper()
	old, hadOld := os.LookupEnv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", dir)
	t.Cleanup(func() {
		if hadOld {
			os.Setenv("XDG_CONFIG_HOME", old)
		} else {
			os.Unsetenv("XDG_CONFIG_HOME")
		}
	})
}

func TestLoadReturnsAbsentWhenFileMissing(t *testing.T) {
	withXDGConfigHome(t, t.TempDir())
	cfg, present, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if present || cfg != nil {
		t.Fatalf("expected absent config, got present=%v cfg=%+v", present, cfg)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	withXDGConfigHome(t, t.TempDir())
	want := &Config{OpenAIAPIKey: "sk-test", Model: "gpt-5", DogWhistle: "jfdi"}
	if err := Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, present, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !present {
		t.Fatal("expected present=true after Save")
	}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestResolveDefaultsWhenConfigNil(t *testing.T) {
	clearConfigEnv(t)
	r := Resolve(nil)
	if r.Model != DefaultModel {
		t.Fatalf("expected default model %q, got %q", DefaultModel, r.Model)
	}
	if r.DogWhistle != DefaultDogWhistle {
		t.Fatalf("expected default dog whistle %q, got %q", DefaultDogWhistle, r.DogWhistle)
	}
}

func TestResolveEnvOverridesFile(t *testing.T) {
	clearConfigEnv(t)
	os.Setenv("AI_MODEL", "gpt-5-mini")
	t.Cleanup(func() { os.Unsetenv("AI_MODEL") })

	cfg := &Config{Model: "gpt-5"}
	r := Resolve(cfg)
	if r.Model != "gpt-5-mini" {
		t.Fatalf("expected env to win, got %q", r.Model)
	}
}

func TestResolveFileOverridesDefault(t *testing.T) {
	clearConfigEnv(t)
	cfg := &Config{Model: "gpt-5-custom"}
	r := Resolve(cfg)
	if r.Model != "gpt-5-custom" {
		t.Fatalf("expected file value, got %q", r.Model)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"OPENAI_API_KEY", "AI_MODEL", "DOG_WHISTLE", "AI_SHOW_REASONING",
		"AI_SHOW_THINKING", "AI_REASONING_EFFORT", "AI_DEBUG_REASONING",
		"AI_DEBUG_API", "AI_BASH_MAX_SECONDS", "AI_BASH_MAX_OUTPUT",
		"AI_CONTEXT_READ_LIMIT", "AI_CONTEXT_MAX_BYTES",
		"AI_CONTEXT_INCLUDE_LISTING", "AI_COLOR", "AI_PROMPT_EDITOR",
		"EDITOR", "VISUAL", "AI_DISABLE_PERSISTENCE",
	} {
		old, had := os.LookupEnv(name)
		os.Unsetenv(name)
		t.Cleanup(func(name, old string, had bool) func() {
			return func() {
				if had {
					os.Setenv(name, old)
				}
			}
		}(name, old, had))
	}
}

func TestLoadProjectOverrideAbsentIsSilent(t *testing.T) {
	override := LoadProjectOverride(t.TempDir())
	if override != nil {
		t.Fatalf("expected nil override for missing file, got %+v", override)
	}
}

func TestLoadProjectOverrideParsesYAML(t *testing.T) {
	dir := t.TempDir()
	content := "model: gpt-5-project\ndog_whistle: shipit\nextra_disallowed_substrings:\n  - rm -rf\n"
	if err := os.WriteFile(filepath.Join(dir, ".ai-project.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	override := LoadProjectOverride(dir)
	if override == nil {
		t.Fatal("expected non-nil override")
	}
	if override.Model != "gpt-5-project" || override.DogWhistle != "shipit" {
		t.Fatalf("unexpected override: %+v", override)
	}
	if len(override.ExtraDisallowedSubstrings) != 1 || override.ExtraDisallowedSubstrings[0] != "rm -rf" {
		t.Fatalf("unexpected extra disallowed: %+v", override.ExtraDisallowedSubstrings)
	}
}

func TestLoadProjectOverrideIgnoresMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".ai-project.yaml"), []byte("model: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	override := LoadProjectOverride(dir)
	if override != nil {
		t.Fatalf("expected nil override for malformed YAML, got %+v", override)
	}
}

func TestProjectOverrideApplyPrecedence(t *testing.T) {
	base := Resolved{Model: "gpt-5", DogWhistle: "jfdi"}
	override := &ProjectOverride{Model: "gpt-5-pinned"}
	got := override.Apply(base)
	if got.Model != "gpt-5-pinned" {
		t.Fatalf("expected pinned model, got %q", got.Model)
	}
	if got.DogWhistle != "jfdi" {
		t.Fatalf("expected unchanged dog whistle, got %q", got.DogWhistle)
	}
}
