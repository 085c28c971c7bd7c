package query

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFilter is returned (wrapped in a *FilterError) when a filter string cannot be parsed.
	ErrMalformedFilter = errors.New("malformed filter")
	// ErrUnsupportedComparison is returned (wrapped in a *ComparisonError) when two values cannot be ordered.
	ErrUnsupportedComparison = errors.New("unsupported comparison")
	// ErrUnsupportedPredicate is returned by ToTree for predicates or expressions not created by this package.
	ErrUnsupportedPredicate = errors.New("unsupported predicate")
	// ErrMalformedTree is returned by FromTree when a tree does not describe a predicate.
	ErrMalformedTree = errors.New("malformed predicate tree")
)

// FilterError describes where and why parsing a filter string failed.
type FilterError struct {
	Filter string // The complete input
	Pos    int    // Byte offset of the offending token
	Msg    string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("%s at position %d in %q: %s", ErrMalformedFilter, e.Pos, e.Filter, e.Msg)
}

func (e *FilterError) Unwrap() error {
	return ErrMalformedFilter
}

// ComparisonError is returned when a predicate orders two values of kinds
// that have no defined order.
type ComparisonError struct {
	Left  Value
	Right Value
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("%s: cannot order %s (%s) against %s (%s)",
		ErrUnsupportedComparison, e.Left, e.Left.Kind(), e.Right, e.Right.Kind())
}

func (e *ComparisonError) Unwrap() error {
	return ErrUnsupportedComparison
}
