// Package json persists the conversation store as versioned JSON.
//
// The wire format is a v1 envelope holding every session, the active
// session ID and the UI configuration. [File] implements
// [codey.Persister] on top of it with atomic writes.
package json

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/codey"
)

const version = 1

// envelope is the v1 wire format for a persisted snapshot.
type envelope struct {
	Version         int          `json:"version"`
	ActiveSessionID string       `json:"active_session_id"`
	Sessions        []sessionDTO `json:"sessions"`
	UI              uiDTO        `json:"ui"`
}

type uiDTO struct {
	Mode         string     `json:"mode"`
	Theme        string     `json:"theme,omitempty"`
	CustomThemes []themeDTO `json:"custom_themes,omitempty"`
}

type themeDTO struct {
	Name       string `json:"name"`
	C400       string `json:"c400"`
	C500       string `json:"c500"`
	C600       string `json:"c600"`
	ActiveText string `json:"active_text"`
}

// MarshalSnapshot serializes a Snapshot to JSON in v1 envelope format.
func MarshalSnapshot(s codey.Snapshot) ([]byte, error) {
	env := envelope{
		Version:         version,
		ActiveSessionID: s.ActiveSessionID,
		Sessions:        make([]sessionDTO, len(s.Sessions)),
		UI: uiDTO{
			Mode:  string(s.UI.Mode),
			Theme: s.UI.Theme,
		},
	}
	for i, sess := range s.Sessions {
		env.Sessions[i] = marshalSession(sess)
	}
	for _, t := range s.UI.CustomThemes {
		env.UI.CustomThemes = append(env.UI.CustomThemes, themeDTO(t))
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalSnapshot deserializes a Snapshot from JSON in v1 envelope format.
func UnmarshalSnapshot(data []byte) (codey.Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return codey.Snapshot{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != version {
		return codey.Snapshot{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	snap := codey.Snapshot{
		ActiveSessionID: env.ActiveSessionID,
		Sessions:        make([]codey.Session, len(env.Sessions)),
		UI: codey.UIConfig{
			Mode:  codey.Mode(env.UI.Mode),
			Theme: env.UI.Theme,
		},
	}
	for i, dto := range env.Sessions {
		s, err := unmarshalSession(dto)
		if err != nil {
			return codey.Snapshot{}, fmt.Errorf("session %d: %w", i, err)
		}
		snap.Sessions[i] = s
	}
	for _, t := range env.UI.CustomThemes {
		snap.UI.CustomThemes = append(snap.UI.CustomThemes, codey.Theme(t))
	}
	return snap, nil
}
