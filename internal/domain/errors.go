package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrParse         = errors.New("parse error")
	ErrTypeMismatch  = errors.New("type mismatch")
)

// ConfigurationError reports missing, ambiguous, or contradictory caller
// parameters, such as a column binding that is absent from the table.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Param, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func configErr(param, format string, args ...any) error {
	return &ConfigurationError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// ParseError reports a value that could not be converted into its target
// semantic type. Row is the zero-based row index, or -1 for a free value.
type ParseError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Row >= 0 {
		fmt.Fprintf(&b, ": row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	fmt.Fprintf(&b, ": value %q: %s", e.Value, e.Reason)
	return b.String()
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// TypeMismatchError reports an externally supplied object that does not
// provide the expected capability, e.g. a boundary that is not a polygon.
type TypeMismatchError struct {
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: want %s, got %s", e.Want, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }
