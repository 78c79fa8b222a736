package codey

import "context"

// UIConfig is the persisted presentation state. Only Mode affects
// generation; the rest is opaque to the conversation core.
type UIConfig struct {
	Mode         Mode
	Theme        string // name of the selected theme
	CustomThemes []Theme
}

// Snapshot is the full persisted state of the conversation store.
type Snapshot struct {
	Sessions        []Session
	ActiveSessionID string
	UI              UIConfig
}

// Persister loads and saves snapshots. Load is called once at startup;
// Save after every store mutation.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}
