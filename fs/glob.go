package fs

import (
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IsPattern reports whether handle contains glob metacharacters.
func IsPattern(handle string) bool {
	return strings.ContainsAny(handle, "*?[{")
}

// Glob returns the regular files under dir matching pattern, relative to
// dir and sorted. Supports ** for recursive matching.
func Glob(dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("fs: invalid glob pattern: %s", pattern)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("fs: failed to access path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fs: %s is not a directory", dir)
	}

	var matches []string
	err = doublestar.GlobWalk(os.DirFS(dir), pattern, func(path string, d iofs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		matches = append(matches, filepath.FromSlash(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fs: error matching pattern: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// splitPattern separates an absolute pattern into the longest static
// directory prefix and the remaining pattern.
func splitPattern(p string) (string, string) {
	base, pattern := doublestar.SplitPattern(filepath.ToSlash(p))
	return filepath.FromSlash(base), pattern
}
