package main

import (
	"context"
	"testing"

	"github.com/fwojciec/codey/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		flag    string
		env     environment
		want    string
		wantErr string
	}{
		{name: "explicit wins", flag: "anthropic", env: environment{geminiKey: "gk"}, want: config.ProviderAnthropic},
		{name: "anthropic key", env: environment{anthropicKey: "sk"}, want: config.ProviderAnthropic},
		{name: "gemini key", env: environment{geminiKey: "gk"}, want: config.ProviderGemini},
		{name: "both keys", env: environment{anthropicKey: "sk", geminiKey: "gk"}, wantErr: "multiple API keys"},
		{name: "no keys", wantErr: "no API key found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := detectProvider(tt.flag, tt.env)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewProvider_ExplicitAnthropic(t *testing.T) {
	t.Parallel()
	p, err := newProvider(context.Background(), config.ProviderAnthropic, "sk-test", environment{})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewProvider_ExplicitGemini(t *testing.T) {
	t.Parallel()
	p, err := newProvider(context.Background(), config.ProviderGemini, "gk-test", environment{})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewProvider_KeyFromEnvironment(t *testing.T) {
	t.Parallel()
	p, err := newProvider(context.Background(), config.ProviderAnthropic, "", environment{anthropicKey: "sk-env"})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewProvider_MissingKey(t *testing.T) {
	t.Parallel()
	_, err := newProvider(context.Background(), config.ProviderGemini, "", environment{anthropicKey: "sk"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY not set")
}

func TestNewProvider_UnknownProvider(t *testing.T) {
	t.Parallel()
	_, err := newProvider(context.Background(), "openai", "key", environment{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
