// Package astro holds the numeric primitives and error types shared by the
// catalogue, fitting and distance stages.
package astro

import "fmt"

// InsufficientDataError reports a fit attempted with too few points to
// determine a line.
type InsufficientDataError struct {
	N int // points supplied
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least 2 points for a linear fit, got %d", e.N)
}

// DomainError reports a logarithm taken of a non-positive (or non-finite)
// argument, e.g. a zero period or a negative reference distance.
type DomainError struct {
	Op    string
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("domain error: %s requires a positive finite value, got %g", e.Op, e.Value)
}
