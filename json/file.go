package json

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fwojciec/codey"
)

// Interface compliance check.
var _ codey.Persister = (*File)(nil)

// File persists snapshots to a single JSON file. A missing file loads as
// an empty snapshot.
type File struct {
	path string
}

// NewFile returns a File persister writing to path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Load reads the snapshot from disk.
func (f *File) Load(ctx context.Context) (codey.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return codey.Snapshot{}, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return codey.Snapshot{}, nil
	}
	if err != nil {
		return codey.Snapshot{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalSnapshot(data)
}

// Save writes the snapshot through a temporary file and a rename so a
// crash never leaves a truncated file behind. Parent directories are
// created as needed.
func (f *File) Save(ctx context.Context, s codey.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := MarshalSnapshot(s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
