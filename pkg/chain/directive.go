package chain

import "strings"

// QuoteStyle records how an include target was delimited.
type QuoteStyle int

const (
	// QuoteAngle is the <target> form.
	QuoteAngle QuoteStyle = iota
	// QuoteDouble is the "target" form.
	QuoteDouble
)

func (q QuoteStyle) String() string {
	if q == QuoteAngle {
		return "angle"
	}
	return "quote"
}

// Directive is a parsed #include line.
type Directive struct {
	Target string
	Style  QuoteStyle
}

const includeKeyword = "include"

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func skipSpaces(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

// ParseInclude recognises `# include <target>` and `# include "target"` lines.
// Whitespace may appear before and after the '#'. Anything after the closing delimiter is ignored.
func ParseInclude(line string) (Directive, bool) {
	i := skipSpaces(line, 0)
	if i == len(line) || line[i] != '#' {
		return Directive{}, false
	}

	i = skipSpaces(line, i+1)
	if !strings.HasPrefix(line[i:], includeKeyword) {
		return Directive{}, false
	}

	i = skipSpaces(line, i+len(includeKeyword))
	if i == len(line) {
		return Directive{}, false
	}

	var closing byte
	var style QuoteStyle
	switch line[i] {
	case '<':
		closing, style = '>', QuoteAngle
	case '"':
		closing, style = '"', QuoteDouble
	default:
		return Directive{}, false
	}

	start := i + 1
	end := strings.IndexByte(line[start:], closing)
	if end < 0 {
		return Directive{}, false
	}
	return Directive{Target: line[start : start+end], Style: style}, true
}
