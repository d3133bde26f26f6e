// Package chain flattens a set of source files into one output by inlining
// their #include directives.
package chain

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// FileChain holds the files eligible for inlining and the include search directories.
// It is built once per run and is not safe for concurrent use.
type FileChain struct {
	cmp         PathComparer
	includeDirs []string
	files       map[string]string // comparer key -> canonical path
	logger      *zap.Logger
}

// Option configures a FileChain.
type Option func(*FileChain)

// WithComparer sets the path comparison strategy.
func WithComparer(cmp PathComparer) Option {
	return func(fc *FileChain) {
		if cmp != nil {
			fc.cmp = cmp
		}
	}
}

// New creates an empty FileChain. A nil logger disables logging.
func New(logger *zap.Logger, opts ...Option) *FileChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	fc := &FileChain{
		cmp:    DefaultComparer(),
		files:  make(map[string]string),
		logger: logger,
	}
	for _, opt := range opts {
		opt(fc)
	}
	return fc
}

// AddIncludeDir appends dir to the search directories unless an equal entry exists.
func (fc *FileChain) AddIncludeDir(dir string) {
	normalized := normalizeDir(dir)
	if normalized == "" {
		return
	}
	key := fc.cmp.Key(normalized)
	for _, existing := range fc.includeDirs {
		if fc.cmp.Key(existing) == key {
			fc.logger.Debug("Include directory already registered", zap.String("dir", normalized))
			return
		}
	}
	fc.includeDirs = append(fc.includeDirs, normalized)
	fc.logger.Debug("Added include directory", zap.String("dir", normalized))
}

// IncludeDirs returns the search directories in priority order.
func (fc *FileChain) IncludeDirs() []string {
	return append([]string(nil), fc.includeDirs...)
}

// PushFile marks path as eligible for inlining.
func (fc *FileChain) PushFile(path string) error {
	abs, err := canonicalPath(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	fc.files[fc.cmp.Key(abs)] = abs
	return nil
}

// ExcludeFile removes path from the eligible set. Removing a non-member is a no-op.
func (fc *FileChain) ExcludeFile(path string) error {
	abs, err := canonicalPath(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	delete(fc.files, fc.cmp.Key(abs))
	return nil
}

// Contains reports whether the canonical path is in the eligible set.
func (fc *FileChain) Contains(path string) bool {
	_, ok := fc.files[fc.cmp.Key(path)]
	return ok
}

// Files returns the eligible set in traversal order.
func (fc *FileChain) Files() []string {
	keys := make([]string, 0, len(fc.files))
	for key := range fc.files {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	files := make([]string, len(keys))
	for i, key := range keys {
		files[i] = fc.files[key]
	}
	return files
}

// Len returns the number of eligible files.
func (fc *FileChain) Len() int {
	return len(fc.files)
}
