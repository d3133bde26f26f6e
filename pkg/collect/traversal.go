// Package collect finds candidate files for "dir/pattern" arguments.
package collect

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"amalgam/pkg/pattern"

	"go.uber.org/zap"
)

// Options controls how a pattern argument is expanded.
type Options struct {
	Recursive       bool // Descend into subdirectories.
	CaseInsensitive bool // Match names ignoring letter case.
	SkipBinary      bool // Leave out files that look binary.
}

// Collected lists the files matched by one argument.
type Collected struct {
	Regular []string // Matching text files, sorted.
	Binary  []string // Matching files skipped as binary.
}

// Find expands a "dir/pattern" argument into the files it names.
func Find(arg string, opts Options, logger *zap.Logger) (Collected, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir, namePattern := pattern.Split(arg)
	if dir == "" {
		dir = "."
	}
	spec, err := pattern.Compile(namePattern, opts.CaseInsensitive)
	if err != nil {
		return Collected{}, err
	}
	logger.Debug("Expanding pattern",
		zap.String("arg", arg),
		zap.String("dir", dir),
		zap.Stringer("pattern", spec),
		zap.Bool("recursive", opts.Recursive))

	var collected Collected
	visit := func(path string) {
		if opts.SkipBinary {
			isBinary, err := isBinaryFile(path)
			if err != nil {
				logger.Warn("Failed to check if file is binary", zap.String("filePath", path), zap.Error(err))
				return
			}
			if isBinary {
				collected.Binary = append(collected.Binary, path)
				return
			}
		}
		collected.Regular = append(collected.Regular, path)
	}

	if opts.Recursive {
		err = walk(dir, spec, visit, logger)
	} else {
		err = list(dir, spec, visit)
	}
	if err != nil {
		return collected, fmt.Errorf("failed to search %s: %w", dir, err)
	}

	sort.Strings(collected.Regular)
	sort.Strings(collected.Binary)
	logger.Debug("Pattern expanded",
		zap.String("arg", arg),
		zap.Int("regularFiles", len(collected.Regular)),
		zap.Int("binaryFiles", len(collected.Binary)))
	return collected, nil
}

// list matches the entries of a single directory.
func list(dir string, spec *pattern.Spec, visit func(string)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !spec.Match(entry.Name()) {
			continue
		}
		visit(filepath.Join(dir, entry.Name()))
	}
	return nil
}

// walk matches files in dir and every directory below it.
func walk(dir string, spec *pattern.Spec, visit func(string), logger *zap.Logger) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logger.Warn("Error accessing path during traversal", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() || !spec.Match(d.Name()) {
			return nil
		}
		visit(path)
		return nil
	})
}
