package codey

import (
	"encoding/json"
	"fmt"
)

// Request carries model selection and generation parameters.
// The provider uses its own defaults when fields are zero/nil.
type Request struct {
	Model        string // model ID, provider-specific; empty = provider default
	SystemPrompt string
	History      []Turn
	// ThinkingBudget is the reasoning effort hint in tokens. 0 leaves the
	// provider default in place.
	ThinkingBudget int
	MaxTokens      int      // 0 = provider default
	Temperature    *float64 // nil = provider default
	// Schema constrains the response to JSON matching this JSON Schema.
	// Nil requests free-form text.
	Schema json.RawMessage
}

// Validate checks universal constraints on Request.
// Provider implementations may apply additional provider-specific validation.
func (r Request) Validate() error {
	if len(r.History) == 0 {
		return fmt.Errorf("history must not be empty: %w", ErrValidation)
	}
	if r.History[len(r.History)-1].Role != RoleUser {
		return fmt.Errorf("last turn must be from %s, got %s: %w", RoleUser, r.History[len(r.History)-1].Role, ErrValidation)
	}
	for i, t := range r.History {
		if len(t.Parts) == 0 {
			return fmt.Errorf("turn %d has no parts: %w", i, ErrValidation)
		}
	}
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	if r.ThinkingBudget < 0 {
		return fmt.Errorf("thinking budget must be non-negative, got %d: %w", r.ThinkingBudget, ErrValidation)
	}
	if r.Schema != nil && !json.Valid(r.Schema) {
		return fmt.Errorf("schema is not valid JSON: %w", ErrValidation)
	}
	return nil
}
