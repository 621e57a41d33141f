package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/liveref/pkg/liveref/internalerr"
	"github.com/cognicore/liveref/pkg/liveref/lookup"
)

// Settings is the full runtime configuration
type Settings struct {
	OpenAI   OpenAI        `yaml:"openai"`
	Lookup   Lookup        `yaml:"lookup"`
	Extract  Extract       `yaml:"extract"`
	History  History       `yaml:"history"`
	Server   Server        `yaml:"server"`
	Debounce time.Duration `yaml:"debounce"`
	LogLevel string        `yaml:"log_level"`
}

type OpenAI struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type Lookup struct {
	Mode         string        `yaml:"mode"`
	CacheSize    int           `yaml:"cache_size"`
	Concurrency  int           `yaml:"concurrency"`
	Timeout      time.Duration `yaml:"timeout"`
	Langs        []string      `yaml:"langs"`
	WikipediaRPS float64       `yaml:"wikipedia_rps"`
}

type Extract struct {
	MaxKeywords   int      `yaml:"max_keywords"`
	MinScore      float64  `yaml:"min_score"`
	MinTextLength int      `yaml:"min_text_length"`
	Terms         []string `yaml:"terms"`
	StoplistPath  string   `yaml:"stoplist"`
	TaxonomyPath  string   `yaml:"taxonomy"`
}

type History struct {
	Path       string `yaml:"path"` // empty keeps history in memory
	MaxEntries int    `yaml:"max_entries"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in settings
func Default() Settings {
	return Settings{
		OpenAI: OpenAI{
			BaseURL:     "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			MaxTokens:   300,
			Temperature: 0.3,
		},
		Lookup: Lookup{
			Mode:         string(lookup.ModeAuto),
			CacheSize:    256,
			Concurrency:  5,
			Timeout:      15 * time.Second,
			Langs:        []string{"ja", "en"},
			WikipediaRPS: 10,
		},
		Extract: Extract{
			MaxKeywords:   5,
			MinScore:      2.0,
			MinTextLength: 8,
		},
		History: History{
			Path:       "liveref.db",
			MaxEntries: 50,
		},
		Server:   Server{Addr: ":8080"},
		Debounce: time.Second,
		LogLevel: "info",
	}
}

// LoadSettings reads a YAML settings file over the defaults. Fields absent
// from the file keep their default values.
func LoadSettings(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return s, nil
}

// LoadDotEnv reads KEY=value pairs from a .env file. A missing file yields
// an empty map.
func LoadDotEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return env, nil
}

// Environment variables recognised by ApplyEnv
const (
	EnvAPIKey     = "OPENAI_API_KEY"
	EnvBaseURL    = "OPENAI_BASE_URL"
	EnvModel      = "LIVEREF_MODEL"
	EnvLookupMode = "LIVEREF_LOOKUP_MODE"
	EnvHistory    = "LIVEREF_HISTORY"
	EnvLogLevel   = "LIVEREF_LOG_LEVEL"
	EnvDebounce   = "LIVEREF_DEBOUNCE"
	EnvMaxTokens  = "LIVEREF_MAX_TOKENS"
)

// ApplyEnv overrides settings from an environment lookup such as
// os.LookupEnv or a map read by LoadDotEnv.
func (s *Settings) ApplyEnv(lookupEnv func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvAPIKey, &s.OpenAI.APIKey)
	str(EnvBaseURL, &s.OpenAI.BaseURL)
	str(EnvModel, &s.OpenAI.Model)
	str(EnvLookupMode, &s.Lookup.Mode)
	str(EnvHistory, &s.History.Path)
	str(EnvLogLevel, &s.LogLevel)

	if v, ok := lookupEnv(EnvDebounce); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, EnvDebounce, err)
		}
		s.Debounce = d
	}
	if v, ok := lookupEnv(EnvMaxTokens); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, EnvMaxTokens, err)
		}
		s.OpenAI.MaxTokens = n
	}
	return nil
}

// MapLookup adapts a map to the ApplyEnv lookup signature
func MapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// Resolve builds settings in priority order: defaults, the YAML file at
// settingsPath, the .env file at dotEnvPath, then the process environment.
// Empty paths are skipped.
func Resolve(settingsPath, dotEnvPath string) (Settings, error) {
	s := Default()
	if settingsPath != "" {
		loaded, err := LoadSettings(settingsPath)
		if err != nil {
			return s, err
		}
		s = loaded
	}
	if dotEnvPath != "" {
		env, err := LoadDotEnv(dotEnvPath)
		if err != nil {
			return s, err
		}
		if err := s.ApplyEnv(MapLookup(env)); err != nil {
			return s, err
		}
	}
	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return s, err
	}
	return s, s.Validate()
}

// Validate rejects settings that cannot produce a working engine
func (s Settings) Validate() error {
	var errs []error
	if _, err := lookup.ParseMode(s.Lookup.Mode); err != nil {
		errs = append(errs, err)
	}
	if s.Extract.MaxKeywords < 0 {
		errs = append(errs, fmt.Errorf("%w: extract.max_keywords must not be negative", internalerr.ErrInvalidConfig))
	}
	if s.Extract.MinScore < 0 {
		errs = append(errs, fmt.Errorf("%w: extract.min_score must not be negative", internalerr.ErrInvalidConfig))
	}
	if s.OpenAI.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("%w: openai.max_tokens must not be negative", internalerr.ErrInvalidConfig))
	}
	if s.OpenAI.Temperature < 0 || s.OpenAI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%w: openai.temperature must be within [0, 2]", internalerr.ErrInvalidConfig))
	}
	if s.Debounce < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce must not be negative", internalerr.ErrInvalidConfig))
	}
	if s.History.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("%w: history.max_entries must not be negative", internalerr.ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// Placeholder keys shipped in configuration templates
var placeholderKeys = map[string]bool{
	"YOUR_OPENAI_API_KEY_HERE": true,
	"your_openai_api_key_here": true,
}

// ValidAPIKey reports whether key looks like a real API key
func ValidAPIKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !placeholderKeys[key]
}

// HasValidAPIKey reports whether the LLM backend can be used
func (s Settings) HasValidAPIKey() bool {
	return ValidAPIKey(s.OpenAI.APIKey)
}

// Taxonomy is the category file format: category name → keywords
type Taxonomy struct {
	Categories map[string][]string `yaml:"categories"`
}

// LoadTaxonomy loads taxonomy from a YAML file
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tax Taxonomy
	if err := yaml.Unmarshal(data, &tax); err != nil {
		return nil, err
	}

	return &tax, nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms    []string `yaml:"terms"`
	Prefixes []string `yaml:"prefixes"`
	Suffixes []string `yaml:"suffixes"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
