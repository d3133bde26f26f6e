// Package pattern compiles wildcard file name specs such as "*.c;*.h".
package pattern

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Precompiled regular expressions used in spec conversion.
var (
	SingleStarPattern   = regexp.MustCompile(`\*`)
	QuestionMarkPattern = regexp.MustCompile(`\?`)
)

// Spec is a compiled name pattern. A name matches if any alternative matches.
type Spec struct {
	raw          string
	alternatives []*regexp.Regexp
}

// Compile parses a ';'-separated list of wildcard patterns.
// '*' matches any run of characters and '?' matches exactly one.
func Compile(spec string, caseInsensitive bool) (*Spec, error) {
	s := &Spec{raw: spec}
	for _, alt := range strings.Split(spec, ";") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		expr := "^" + wildcardToRegex(escapeSpecialChars(alt)) + "$"
		if caseInsensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", alt, err)
		}
		s.alternatives = append(s.alternatives, re)
	}
	if len(s.alternatives) == 0 {
		return nil, fmt.Errorf("empty pattern %q", spec)
	}
	return s, nil
}

// Match reports whether the base name matches the spec.
func (s *Spec) Match(name string) bool {
	for _, re := range s.alternatives {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func (s *Spec) String() string {
	return s.raw
}

// Split separates a "dir/pattern" argument into its directory and name pattern.
// The directory keeps its trailing separator; an empty name pattern becomes "*".
// An argument without a separator is a bare pattern in the current directory.
func Split(arg string) (dir, namePattern string) {
	idx := strings.LastIndexFunc(arg, func(r rune) bool {
		return r < 0x80 && os.IsPathSeparator(uint8(r))
	})
	if idx < 0 {
		return "", arg
	}
	dir, namePattern = arg[:idx+1], arg[idx+1:]
	if namePattern == "" {
		namePattern = "*"
	}
	return filepath.FromSlash(dir), namePattern
}

// escapeSpecialChars escapes regex special characters except for '*' and '?'.
func escapeSpecialChars(pattern string) string {
	const specialChars = `\.+()|^$[]{}`
	for _, char := range specialChars {
		pattern = strings.ReplaceAll(pattern, string(char), `\`+string(char))
	}
	return pattern
}

// wildcardToRegex converts '*' and '?' to their regex equivalents.
func wildcardToRegex(pattern string) string {
	pattern = SingleStarPattern.ReplaceAllString(pattern, `.*`)
	return QuestionMarkPattern.ReplaceAllString(pattern, `.`)
}
