package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyFile     = errors.New("empty file")
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidValue  = errors.New("invalid value")
	ErrInvalidRange  = errors.New("date range start is after its end")
)

// LoadError reports why an input file could not be loaded. Line is the
// 1-based CSV line of a bad cell, or 0 when the failure is not tied to a row.
type LoadError struct {
	Path   string
	Column string
	Line   int
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("load %s: line %d column %q: %v", e.Path, e.Line, e.Column, e.Err)
	case e.Column != "":
		return fmt.Sprintf("load %s: column %q: %v", e.Path, e.Column, e.Err)
	default:
		return fmt.Sprintf("load %s: %v", e.Path, e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
