package chain

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// PathComparer decides when two paths name the same file.
// Paths are equal when their keys are equal; keys also define the sort order of the eligible set.
type PathComparer interface {
	Key(path string) string
}

type caseSensitive struct{}

func (caseSensitive) Key(path string) string { return path }

type caseInsensitive struct{}

func (caseInsensitive) Key(path string) string { return strings.ToLower(path) }

var (
	// CaseSensitive compares paths byte for byte.
	CaseSensitive PathComparer = caseSensitive{}
	// CaseInsensitive compares paths ignoring letter case.
	CaseInsensitive PathComparer = caseInsensitive{}
)

// DefaultComparer returns the strategy matching the host filesystem convention.
func DefaultComparer() PathComparer {
	if runtime.GOOS == "windows" {
		return CaseInsensitive
	}
	return CaseSensitive
}

// canonicalPath returns the absolute, symlink-free form of path.
// Paths that do not exist fall back to their cleaned absolute form.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// collapseSeparators rewrites every run of path separators as a single platform separator.
func collapseSeparators(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	prevSep := false
	for i := 0; i < len(path); i++ {
		c := path[i]
		if os.IsPathSeparator(c) {
			if !prevSep {
				b.WriteByte(filepath.Separator)
			}
			prevSep = true
			continue
		}
		prevSep = false
		b.WriteByte(c)
	}
	return b.String()
}

// normalizeDir turns dir into an absolute directory path with a trailing separator.
// It returns "" when nothing is left after collapsing separators.
func normalizeDir(dir string) string {
	dir = collapseSeparators(dir)
	if dir == "" {
		return ""
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return dir
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
