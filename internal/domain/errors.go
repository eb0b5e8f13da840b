package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrUnknownLevel   = errors.New("unknown level")
)

// Failure describes one field that did not match the expected shape.
type Failure struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Reason   string `json:"reason,omitempty"`
}

func (f Failure) String() string {
	p := f.Path
	if p == "" {
		p = "value"
	}
	s := fmt.Sprintf("%s: expected %s, got %s", p, f.Expected, f.Actual)
	if f.Reason != "" {
		s += " (" + f.Reason + ")"
	}
	return s
}

// SchemaMismatch is the only validation error. Failures are ordered and never empty.
type SchemaMismatch struct {
	Level    Level     `json:"-"`
	Failures []Failure `json:"failures"`
}

func (e *SchemaMismatch) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("%s: %s", e.Level, ErrSchemaMismatch)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Level, ErrSchemaMismatch, e.Failures[0])
	if n := len(e.Failures) - 1; n > 0 {
		fmt.Fprintf(&b, " (and %d more)", n)
	}
	return b.String()
}

func (e *SchemaMismatch) Is(target error) bool { return target == ErrSchemaMismatch }

// Path returns the path of the first failure.
func (e *SchemaMismatch) Path() string {
	if len(e.Failures) == 0 {
		return ""
	}
	return e.Failures[0].Path
}

// Paths lists every failing path in report order.
func (e *SchemaMismatch) Paths() []string {
	out := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Path)
	}
	return out
}
