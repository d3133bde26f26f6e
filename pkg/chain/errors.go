package chain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCircularInclude indicates a file transitively includes itself.
var ErrCircularInclude = errors.New("circular include")

// CycleError reports the file that was reached again while still being processed.
type CycleError struct {
	Path  string   // File that closed the loop.
	Chain []string // Include stack from the outermost file down to Path.
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular include found in %s (%s)", e.Path, strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCircularInclude
}
