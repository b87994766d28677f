package types

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic kinds.
const (
	KindSyntax   = "SyntaxError"
	KindSemantic = "SemanticError"
)

// Diagnostic is a recoverable problem found while parsing a query. The query
// still produces a (possibly partial) tree.
type Diagnostic struct {
	Line    int
	Column  int
	Message string
	Kind    string
}

// String formats the diagnostic as "-- line L col C: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("-- line %d col %d: %s", d.Line, d.Column, d.Message)
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	return d.String()
}

// ToMap converts the diagnostic to a JSON-compatible map.
func (d Diagnostic) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"line":    d.Line,
		"column":  d.Column,
		"message": d.Message,
		"kind":    d.Kind,
	}
}

// Diagnostics is the ordered list of diagnostics produced by one parse.
type Diagnostics []Diagnostic

// Err returns nil when there are no diagnostics, and otherwise an error
// joining all of them.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	errs := make([]error, len(ds))
	for i, d := range ds {
		errs[i] = d
	}
	return errors.Join(errs...)
}

// String renders one diagnostic per line.
func (ds Diagnostics) String() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// ToList converts the diagnostics to a JSON-compatible list.
func (ds Diagnostics) ToList() []interface{} {
	out := make([]interface{}, len(ds))
	for i, d := range ds {
		out[i] = d.ToMap()
	}
	return out
}

// SourceError is a fatal fault in the query input itself (bad byte order
// mark, out-of-bounds access, read failure). No tree is produced.
type SourceError struct {
	Message string
	Err     error
}

// NewSourceError wraps err as a source fault.
func NewSourceError(msg string, err error) *SourceError {
	return &SourceError{Message: msg, Err: err}
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
