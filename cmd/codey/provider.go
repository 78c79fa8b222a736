package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/anthropic"
	"github.com/fwojciec/codey/config"
	"github.com/fwojciec/codey/gemini"
)

// environment carries the values main reads from the process environment.
type environment struct {
	anthropicKey string
	geminiKey    string
}

// detectProvider returns name, or when it is empty the provider whose API
// key is set.
func detectProvider(name string, env environment) (string, error) {
	if name != "" {
		return name, nil
	}
	switch {
	case env.anthropicKey != "" && env.geminiKey != "":
		return "", fmt.Errorf("multiple API keys found (ANTHROPIC_API_KEY, GEMINI_API_KEY): use --provider to select")
	case env.anthropicKey != "":
		return config.ProviderAnthropic, nil
	case env.geminiKey != "":
		return config.ProviderGemini, nil
	default:
		return "", fmt.Errorf("no API key found: set GEMINI_API_KEY or ANTHROPIC_API_KEY (or use --provider and --api-key)")
	}
}

// newProvider constructs the named provider. An explicit key overrides the
// environment.
func newProvider(ctx context.Context, name, apiKey string, env environment) (codey.Provider, error) {
	key := apiKey
	switch name {
	case config.ProviderAnthropic:
		if key == "" {
			key = env.anthropicKey
		}
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set (use --api-key or the environment variable)")
		}
		return anthropic.New(key), nil
	case config.ProviderGemini:
		if key == "" {
			key = env.geminiKey
		}
		if key == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set (use --api-key or the environment variable)")
		}
		client, err := gemini.New(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be %q or %q", name, config.ProviderGemini, config.ProviderAnthropic)
	}
}
