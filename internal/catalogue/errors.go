package catalogue

import "fmt"

// MissingColumnError reports a catalogue row without a required field.
type MissingColumnError struct {
	Column string
	Line   int
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("line %d: missing column %q", e.Line, e.Column)
}

// ParseError reports a field that could not be parsed as a number.
type ParseError struct {
	Column string
	Line   int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: column %q: invalid value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
