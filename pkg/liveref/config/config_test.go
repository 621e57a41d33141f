package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/liveref/pkg/liveref/internalerr"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if s.HasValidAPIKey() {
		t.Error("defaults carry no API key")
	}
	if s.OpenAI.Model != "gpt-4o-mini" || s.OpenAI.MaxTokens != 300 || s.OpenAI.Temperature != 0.3 {
		t.Errorf("unexpected openai defaults %+v", s.OpenAI)
	}
	if s.History.MaxEntries != 50 || s.Debounce != time.Second {
		t.Errorf("unexpected defaults %+v", s)
	}
}

func TestLoadSettingsOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "liveref.yaml", `
lookup:
  mode: wikipedia
  langs: [en]
extract:
  max_keywords: 3
debounce: 300ms
`)

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Lookup.Mode != "wikipedia" || len(s.Lookup.Langs) != 1 {
		t.Errorf("file values not applied: %+v", s.Lookup)
	}
	if s.Extract.MaxKeywords != 3 || s.Debounce != 300*time.Millisecond {
		t.Errorf("file values not applied: %+v", s)
	}
	if s.OpenAI.Model != "gpt-4o-mini" || s.Lookup.CacheSize != 256 {
		t.Error("absent fields should keep defaults")
	}
}

func TestLoadSettingsBadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "lookup: [unclosed")
	if _, err := LoadSettings(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "# local secrets\nOPENAI_API_KEY=sk-from-dotenv\nLIVEREF_MODEL=\"gpt-test\"\n")

	env, err := LoadDotEnv(path)
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if env["OPENAI_API_KEY"] != "sk-from-dotenv" || env["LIVEREF_MODEL"] != "gpt-test" {
		t.Errorf("unexpected env %v", env)
	}

	missing, err := LoadDotEnv(filepath.Join(dir, "absent.env"))
	if err != nil || len(missing) != 0 {
		t.Errorf("missing file should yield empty map, got %v, %v", missing, err)
	}
}

func TestApplyEnv(t *testing.T) {
	s := Default()
	err := s.ApplyEnv(MapLookup(map[string]string{
		EnvAPIKey:     " sk-live ",
		EnvLookupMode: "both",
		EnvHistory:    "",
		EnvDebounce:   "500ms",
		EnvMaxTokens:  "120",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if s.OpenAI.APIKey != "sk-live" || s.Lookup.Mode != "both" {
		t.Errorf("env not applied: %+v", s)
	}
	if s.History.Path != "" {
		t.Error("an empty LIVEREF_HISTORY selects the in-memory store")
	}
	if s.Debounce != 500*time.Millisecond || s.OpenAI.MaxTokens != 120 {
		t.Errorf("parsed env not applied: %+v", s)
	}

	bad := Default()
	if err := bad.ApplyEnv(MapLookup(map[string]string{EnvDebounce: "soon"})); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestResolvePriority(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "liveref.yaml", `
openai:
  api_key: sk-from-file
  model: file-model
lookup:
  mode: wikipedia
`)
	dotenv := writeFile(t, dir, ".env", "OPENAI_API_KEY=sk-from-dotenv\nLIVEREF_LOOKUP_MODE=llm\n")
	t.Setenv(EnvLookupMode, "both")

	s, err := Resolve(settings, dotenv)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.OpenAI.Model != "file-model" {
		t.Errorf("file value lost: %q", s.OpenAI.Model)
	}
	if s.OpenAI.APIKey != "sk-from-dotenv" {
		t.Errorf(".env should beat the settings file, got %q", s.OpenAI.APIKey)
	}
	if s.Lookup.Mode != "both" {
		t.Errorf("process env should beat .env, got %q", s.Lookup.Mode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"mode", func(s *Settings) { s.Lookup.Mode = "bing" }},
		{"temperature", func(s *Settings) { s.OpenAI.Temperature = 3 }},
		{"max tokens", func(s *Settings) { s.OpenAI.MaxTokens = -1 }},
		{"debounce", func(s *Settings) { s.Debounce = -time.Second }},
		{"history", func(s *Settings) { s.History.MaxEntries = -5 }},
		{"keywords", func(s *Settings) { s.Extract.MaxKeywords = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestValidAPIKey(t *testing.T) {
	tests := map[string]bool{
		"":                         false,
		"   ":                      false,
		"YOUR_OPENAI_API_KEY_HERE": false,
		"your_openai_api_key_here": false,
		"sk-proj-abc123":           true,
	}
	for key, want := range tests {
		if got := ValidAPIKey(key); got != want {
			t.Errorf("ValidAPIKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestLoadStoplist(t *testing.T) {
	path := writeFile(t, t.TempDir(), "stoplist.yaml", `terms:
  - the
  - a
  - and
prefixes: [ッ]
`)

	sl, err := LoadStoplist(path)
	if err != nil {
		t.Fatalf("Failed to load stoplist: %v", err)
	}

	if len(sl.Terms) != 3 {
		t.Errorf("Expected 3 terms, got %d", len(sl.Terms))
	}
	if len(sl.Prefixes) != 1 || sl.Prefixes[0] != "ッ" {
		t.Errorf("unexpected prefixes %v", sl.Prefixes)
	}
}

func TestLoadTaxonomy(t *testing.T) {
	path := writeFile(t, t.TempDir(), "taxonomy.yaml", `categories:
  ai:
    - 機械学習
    - neural network
  web:
    - html
    - css
`)

	tax, err := LoadTaxonomy(path)
	if err != nil {
		t.Fatalf("Failed to load taxonomy: %v", err)
	}
	if len(tax.Categories) != 2 || len(tax.Categories["ai"]) != 2 {
		t.Errorf("unexpected taxonomy %+v", tax)
	}
}
