// Package fs reads attachable files from the local filesystem. Handles are
// paths or doublestar glob patterns resolved against a root directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/codey"
)

// DefaultMaxSize caps attachments at the provider's inline data limit.
const DefaultMaxSize = 20 << 20

// ErrAmbiguous is returned when a glob handle matches more than one file.
var ErrAmbiguous = errors.New("pattern matches more than one file")

// Interface compliance check.
var _ codey.FileReader = (*Reader)(nil)

// Reader implements [codey.FileReader].
type Reader struct {
	root    string
	maxSize int64
}

// Option configures a [Reader].
type Option func(*Reader)

// WithMaxSize overrides [DefaultMaxSize].
func WithMaxSize(n int64) Option {
	return func(r *Reader) { r.maxSize = n }
}

// NewReader returns a Reader resolving relative handles against root.
func NewReader(root string, opts ...Option) *Reader {
	r := &Reader{root: root, maxSize: DefaultMaxSize}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ReadFile resolves handle to exactly one regular file and returns its
// contents and MIME type.
func (r *Reader) ReadFile(ctx context.Context, handle string) ([]byte, string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, "", fmt.Errorf("fs: empty path: %w", codey.ErrUserInputRejected)
	}
	path, err := r.resolve(handle)
	if err != nil {
		return nil, "", err
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("fs: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("fs: %w", err)
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("fs: %s is a directory: %w", handle, codey.ErrUserInputRejected)
	}
	if info.Size() > r.maxSize {
		return nil, "", fmt.Errorf("fs: %s is %d bytes, limit is %d: %w", handle, info.Size(), r.maxSize, codey.ErrUserInputRejected)
	}

	data, err := io.ReadAll(io.LimitReader(f, r.maxSize))
	if err != nil {
		return nil, "", fmt.Errorf("fs: %w", err)
	}
	return data, DetectMIME(path, data), nil
}

// resolve turns a handle into an absolute file path. Glob patterns must
// match exactly one file.
func (r *Reader) resolve(handle string) (string, error) {
	if strings.HasPrefix(handle, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			handle = filepath.Join(home, handle[2:])
		}
	}
	if !IsPattern(handle) {
		if filepath.IsAbs(handle) {
			return handle, nil
		}
		return filepath.Join(r.root, handle), nil
	}

	base, pattern := r.root, filepath.ToSlash(handle)
	if filepath.IsAbs(handle) {
		base, pattern = splitPattern(handle)
	}
	matches, err := Glob(base, pattern)
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("fs: no files match %s: %w", handle, os.ErrNotExist)
	case 1:
		return filepath.Join(base, matches[0]), nil
	default:
		return "", fmt.Errorf("fs: %s: %d files: %w", handle, len(matches), ErrAmbiguous)
	}
}

// DetectMIME picks a MIME type from the file extension, falling back to
// content sniffing. Parameters such as charset are dropped.
func DetectMIME(path string, data []byte) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if t == "" {
		t = http.DetectContentType(data)
	}
	t, _, _ = strings.Cut(t, ";")
	return strings.TrimSpace(t)
}
