package chain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// chunkSize is the read buffer size; lines longer than it are still read whole.
const chunkSize = 8192

type fileStatus int

const (
	statusProcessing fileStatus = iota
	statusDone
)

type fileRecord struct {
	path   string
	status fileStatus
}

// Stats summarises one generation run.
type Stats struct {
	Files      int   // Files whose content was emitted.
	Inlined    int   // Include directives replaced by file content.
	Verbatim   int   // Include directives left as written.
	Unreadable error // Eligible files that could not be read, combined with multierr.
	Bytes      int   // Size of the flattened output.
}

// run is the state of a single generation pass.
type run struct {
	fc      *FileChain
	records map[string]fileRecord
	failed  map[string]bool // files that could not be opened, reported once
	stack   []string
	out     strings.Builder
	stats   Stats
}

func beginMarker(path string) string {
	return "\n/********** BEGIN OF " + path + " **********/\n\n"
}

func endMarker(path string) string {
	return "\n\n/************ END OF " + path + " **********/\n"
}

// Render flattens every eligible file, in sorted path order, and returns the combined text.
// A *CycleError is returned if any file includes itself; no output is produced in that case.
func (fc *FileChain) Render() ([]byte, Stats, error) {
	r := &run{
		fc:      fc,
		records: make(map[string]fileRecord),
		failed:  make(map[string]bool),
	}
	for _, path := range fc.Files() {
		if _, err := r.processFile(path); err != nil {
			return nil, r.stats, err
		}
	}
	r.stats.Bytes = r.out.Len()
	return []byte(r.out.String()), r.stats, nil
}

// processFile appends the flattened content of path to the output.
// It reports false if the file could not be read. The only error it returns is a *CycleError.
func (r *run) processFile(path string) (bool, error) {
	key := r.fc.cmp.Key(path)
	if rec, ok := r.records[key]; ok {
		if rec.status == statusProcessing {
			chain := append(append([]string(nil), r.stack...), path)
			r.fc.logger.Error("Circular include detected", zap.String("file", path), zap.Strings("chain", chain))
			return false, &CycleError{Path: path, Chain: chain}
		}
		return true, nil
	}
	if r.failed[key] {
		return false, nil
	}

	r.fc.logger.Info("Analyzing file", zap.String("file", path))
	f, err := openRegular(path)
	if err != nil {
		r.fc.logger.Warn("Failed to open file", zap.String("file", path), zap.Error(err))
		r.failed[key] = true
		r.stats.Unreadable = multierr.Append(r.stats.Unreadable, fmt.Errorf("error reading file %s: %w", path, err))
		return false, nil
	}
	defer f.Close()

	r.records[key] = fileRecord{path: path, status: statusProcessing}
	r.stack = append(r.stack, path)
	r.out.WriteString(beginMarker(path))

	reader := bufio.NewReaderSize(f, chunkSize)
	var logical strings.Builder
	pending := false
	for {
		physical, readErr := reader.ReadString('\n')
		if physical != "" {
			physical = trimLineEnding(physical)
			if strings.HasSuffix(physical, `\`) {
				logical.WriteString(physical[:len(physical)-1])
				pending = true
			} else {
				logical.WriteString(physical)
				pending = false
				if err := r.processLine(path, logical.String()); err != nil {
					return false, err
				}
				logical.Reset()
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				r.fc.logger.Warn("Failed to read file to the end", zap.String("file", path), zap.Error(readErr))
				r.stats.Unreadable = multierr.Append(r.stats.Unreadable, fmt.Errorf("error reading file %s: %w", path, readErr))
			}
			break
		}
	}
	if pending && logical.Len() > 0 {
		if err := r.processLine(path, logical.String()); err != nil {
			return false, err
		}
	}

	r.out.WriteString(endMarker(path))
	r.stack = r.stack[:len(r.stack)-1]
	r.records[key] = fileRecord{path: path, status: statusDone}
	r.stats.Files++
	return true, nil
}

// openRegular opens path for reading, refusing directories and other non-regular files.
func openRegular(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	return f, nil
}

// trimLineEnding drops a trailing "\n" or "\r\n". CRLF input is emitted with LF endings.
func trimLineEnding(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// processLine emits one logical line, replacing a resolvable include directive with the
// flattened content of its target.
func (r *run) processLine(path, line string) error {
	if line == "" {
		r.out.WriteByte('\n')
		return nil
	}

	directive, ok := ParseInclude(line)
	if !ok {
		r.emit(line)
		return nil
	}
	r.fc.logger.Debug("Found include directive",
		zap.String("file", path),
		zap.String("target", directive.Target),
		zap.Stringer("style", directive.Style))

	resolved, ok := r.fc.resolveInclude(path, directive.Target)
	if !ok {
		r.fc.logger.Debug("Include not eligible, left verbatim", zap.String("file", path), zap.String("target", directive.Target))
		r.stats.Verbatim++
		r.emit(line)
		return nil
	}
	r.fc.logger.Debug("Resolved include", zap.String("target", directive.Target), zap.String("resolved", resolved))

	inlined, err := r.processFile(resolved)
	if err != nil {
		return err
	}
	if inlined {
		r.stats.Inlined++
	}
	return nil
}

func (r *run) emit(line string) {
	r.out.WriteString(line)
	r.out.WriteByte('\n')
}

// resolveInclude finds the eligible file named by target, looking first next to the
// including file and then in each include directory in order.
func (fc *FileChain) resolveInclude(including, target string) (string, bool) {
	candidates := make([]string, 0, len(fc.includeDirs)+1)
	candidates = append(candidates, filepath.Join(filepath.Dir(including), target))
	for _, dir := range fc.includeDirs {
		candidates = append(candidates, dir+target)
	}

	for _, candidate := range candidates {
		abs, err := canonicalPath(candidate)
		if err != nil {
			continue
		}
		if fileExists(abs) && fc.Contains(abs) {
			return abs, true
		}
	}
	return "", false
}
