// Package config loads codey's TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/suggest"
)

// Provider names.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Storage backends.
const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

// Config is the full configuration.
type Config struct {
	// Provider is empty to pick whichever API key is set.
	Provider string        `toml:"provider"`
	Mode     string        `toml:"mode"`
	Models   ModelsConfig  `toml:"models"`
	UI       UIConfig      `toml:"ui"`
	Storage  StorageConfig `toml:"storage"`
	Log      LogConfig     `toml:"log"`
	Suggest  SuggestConfig `toml:"suggest"`
}

// ModelsConfig overrides the model ID per mode. Empty keeps the
// provider's lineup.
type ModelsConfig struct {
	Vibe      string `toml:"vibe"`
	Hyper     string `toml:"hyper"`
	Reasoning string `toml:"reasoning"`
	Utility   string `toml:"utility"` // one-shot actions, themes, autocomplete
}

type UIConfig struct {
	Theme     string `toml:"theme"`
	CodeStyle string `toml:"code_style"` // chroma style name
}

type StorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type LogConfig struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

// SuggestConfig controls autocomplete.
type SuggestConfig struct {
	Enabled           bool          `toml:"enabled"`
	MinLength         int           `toml:"min_length"`
	SkipTrailingSpace bool          `toml:"skip_trailing_space"`
	Debounce          time.Duration `toml:"debounce"`
}

// Policy returns the suppression policy described by c.
func (c SuggestConfig) Policy() suggest.Policy {
	return suggest.Policy{MinLength: c.MinLength, SkipTrailingSpace: c.SkipTrailingSpace}
}

// Dir returns the codey state directory, ~/.codey.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	return filepath.Join(home, ".codey"), nil
}

// Default returns the configuration used when no file exists. Paths are
// relative to dir.
func Default(dir string) *Config {
	p := suggest.DefaultPolicy()
	return &Config{
		Mode:     string(codey.ModeVibe),
		UI:       UIConfig{Theme: "purple", CodeStyle: "monokai"},
		Storage:  StorageConfig{Backend: StorageJSON, Path: filepath.Join(dir, "conversations.json")},
		Log:      LogConfig{Level: "info", Path: filepath.Join(dir, "codey.log")},
		Suggest: SuggestConfig{
			Enabled:           true,
			MinLength:         p.MinLength,
			SkipTrailingSpace: p.SkipTrailingSpace,
			Debounce:          300 * time.Millisecond,
		},
	}
}

// Load reads path over [Default]. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))
	_, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields and ranges.
func (c *Config) Validate() error {
	switch c.Provider {
	case "", ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("config: unknown provider %q: %w", c.Provider, codey.ErrValidation)
	}
	if _, err := codey.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Storage.Backend {
	case StorageJSON, StorageSQLite:
	default:
		return fmt.Errorf("config: unknown storage backend %q: %w", c.Storage.Backend, codey.ErrValidation)
	}
	if c.Suggest.MinLength < 0 {
		return fmt.Errorf("config: suggest.min_length must be non-negative: %w", codey.ErrValidation)
	}
	if c.Suggest.Debounce < 0 {
		return fmt.Errorf("config: suggest.debounce must be non-negative: %w", codey.ErrValidation)
	}
	return nil
}

// Profiles returns the per-mode generation profiles for the configured
// provider, with model overrides applied.
func (c *Config) Profiles() codey.Profiles {
	p := codey.DefaultProfiles()
	if c.Provider == ProviderAnthropic {
		p = AnthropicProfiles()
	}
	override := func(m codey.Mode, model string) {
		if model == "" {
			return
		}
		prof := p[m]
		prof.Model = model
		p[m] = prof
	}
	override(codey.ModeVibe, c.Models.Vibe)
	override(codey.ModeHyper, c.Models.Hyper)
	override(codey.ModeReasoning, c.Models.Reasoning)
	return p
}

// UtilityModel returns the model for one-shot requests.
func (c *Config) UtilityModel() string {
	if c.Models.Utility != "" {
		return c.Models.Utility
	}
	return c.Profiles().For(codey.ModeHyper).Model
}

// AnthropicProfiles returns the Anthropic model lineup.
func AnthropicProfiles() codey.Profiles {
	return codey.Profiles{
		codey.ModeVibe:      {Model: "claude-sonnet-4-20250514", SystemPrompt: codey.SystemPrompt},
		codey.ModeHyper:     {Model: "claude-3-5-haiku-latest", SystemPrompt: codey.SystemPrompt},
		codey.ModeReasoning: {Model: "claude-opus-4-20250514", SystemPrompt: codey.SystemPrompt, ThinkingBudget: codey.ReasoningBudget},
	}
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
