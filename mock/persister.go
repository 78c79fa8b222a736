package mock

import (
	"context"

	"github.com/fwojciec/codey"
)

// Interface compliance checks.
var (
	_ codey.Persister  = (*Persister)(nil)
	_ codey.FileReader = (*FileReader)(nil)
	_ codey.Dictation  = (*Dictation)(nil)
)

// Persister is a test double for codey.Persister.
// Both functions are nil-safe: Load returns an empty snapshot and Save
// discards its argument.
type Persister struct {
	LoadFn func(ctx context.Context) (codey.Snapshot, error)
	SaveFn func(ctx context.Context, s codey.Snapshot) error
}

// Load delegates to LoadFn.
func (p *Persister) Load(ctx context.Context) (codey.Snapshot, error) {
	if p.LoadFn == nil {
		return codey.Snapshot{}, nil
	}
	return p.LoadFn(ctx)
}

// Save delegates to SaveFn.
func (p *Persister) Save(ctx context.Context, s codey.Snapshot) error {
	if p.SaveFn == nil {
		return nil
	}
	return p.SaveFn(ctx, s)
}

// FileReader is a test double for codey.FileReader.
type FileReader struct {
	ReadFileFn func(ctx context.Context, handle string) ([]byte, string, error)
}

// ReadFile delegates to ReadFileFn.
func (r *FileReader) ReadFile(ctx context.Context, handle string) ([]byte, string, error) {
	return r.ReadFileFn(ctx, handle)
}

// Dictation is a test double for codey.Dictation.
type Dictation struct {
	StartDictationFn func(ctx context.Context) (<-chan string, error)
}

// StartDictation delegates to StartDictationFn.
func (d *Dictation) StartDictation(ctx context.Context) (<-chan string, error) {
	return d.StartDictationFn(ctx)
}
