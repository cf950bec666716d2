package propset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is wrapped when a required directory or file is missing.
	ErrNotFound = errors.New("does not exist")
	// ErrNotADirectory is wrapped when a path exists but is not a directory.
	ErrNotADirectory = errors.New("is not a directory")
)

// ConfigurationError reports a bad or missing directory or path.
type ConfigurationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration: ")
	if e.Reason != "" {
		b.WriteString(e.Reason)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " '%s'", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ParseError reports malformed properties, CSV or Excel content.
// Row and Column are 1-based and zero when not applicable.
type ParseError struct {
	File   string
	Row    int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse %s", e.File)
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column > 0 {
		fmt.Fprintf(&b, " column %d", e.Column)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// AmbiguousPathError is returned when a write target matches more than
// one property set on disk.
type AmbiguousPathError struct {
	BaseName   string
	Candidates []string
}

func (e *AmbiguousPathError) Error() string {
	return fmt.Sprintf("found multiple storage paths for language properties set %q: %s",
		e.BaseName, strings.Join(e.Candidates, ", "))
}

// MissingColumnError is returned when tabular input lacks a mandatory column.
type MissingColumnError struct {
	File   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s does not contain mandatory column for %s", e.File, e.Column)
}
