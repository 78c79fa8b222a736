package codey

import "fmt"

// Mode selects the model variant and system prompt used for a session.
type Mode string

const (
	ModeVibe      Mode = "vibe"      // balanced default
	ModeHyper     Mode = "hyper"     // fastest, smallest model
	ModeReasoning Mode = "reasoning" // largest model with a thinking budget
)

// Modes lists all modes in toggle order.
var Modes = []Mode{ModeVibe, ModeHyper, ModeReasoning}

// ParseMode converts a string to a Mode. The legacy name "deepThought" is
// accepted as an alias for reasoning.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeVibe):
		return ModeVibe, nil
	case string(ModeHyper):
		return ModeHyper, nil
	case string(ModeReasoning), "deepThought":
		return ModeReasoning, nil
	default:
		return "", fmt.Errorf("unknown mode %q: %w", s, ErrValidation)
	}
}

// Next returns the mode after m in toggle order, wrapping around.
func (m Mode) Next() Mode {
	for i, candidate := range Modes {
		if candidate == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return ModeVibe
}

// Label returns a short display name.
func (m Mode) Label() string {
	switch m {
	case ModeHyper:
		return "Hyper"
	case ModeReasoning:
		return "Reasoning"
	default:
		return "Vibe"
	}
}

// Profile is the generation configuration a mode maps to.
type Profile struct {
	Model          string
	SystemPrompt   string
	ThinkingBudget int
}

// ReasoningBudget is the thinking budget used by [ModeReasoning].
const ReasoningBudget = 32768

// Profiles maps each mode to its generation configuration.
type Profiles map[Mode]Profile

// DefaultProfiles returns the Gemini model lineup.
func DefaultProfiles() Profiles {
	return Profiles{
		ModeVibe:      {Model: "gemini-2.5-flash", SystemPrompt: SystemPrompt},
		ModeHyper:     {Model: "gemini-flash-lite-latest", SystemPrompt: SystemPrompt},
		ModeReasoning: {Model: "gemini-2.5-pro", SystemPrompt: SystemPrompt, ThinkingBudget: ReasoningBudget},
	}
}

// For returns the profile for m, falling back to the vibe profile and then
// to a bare profile carrying only the system prompt.
func (p Profiles) For(m Mode) Profile {
	if prof, ok := p[m]; ok {
		return prof
	}
	if prof, ok := p[ModeVibe]; ok {
		return prof
	}
	return Profile{SystemPrompt: SystemPrompt}
}
