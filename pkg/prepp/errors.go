// Package prepp provides custom error types for preprocessing failures.
package prepp

import (
	"errors"
	"fmt"
)

// ErrEmptyTransclusionStack is returned when a bare #include directive is
// encountered but no #inside directive has parked a stream to resume.
var ErrEmptyTransclusionStack = errors.New("bare #include with no paused transclusion to resume")

// MalformedDirectiveError reports a line that starts with the directive sigil
// but does not match any well-formed directive pattern. Column is the length
// of the longest prefix that still looked like a directive.
type MalformedDirectiveError struct {
	File   string
	Line   int
	Column int
	Text   string
}

func (e *MalformedDirectiveError) Error() string {
	return fmt.Sprintf("%s:%d:%d: malformed directive: %s", e.File, e.Line, e.Column, e.Text)
}

// NewMalformedDirectiveError creates a new malformed directive error with position information
func NewMalformedDirectiveError(file string, line, column int, text string) error {
	return &MalformedDirectiveError{
		File:   file,
		Line:   line,
		Column: column,
		Text:   text,
	}
}

// UndefinedVariableError reports interpolation or a conditional test naming a
// variable absent from the active scope.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable: %s", e.Name)
}

// NewUndefinedVariableError creates a new undefined variable error
func NewUndefinedVariableError(name string) error {
	return &UndefinedVariableError{Name: name}
}

// MissingIncludeError reports an include or transclusion path that could not
// be opened.
type MissingIncludeError struct {
	Path  string
	Cause error
}

func (e *MissingIncludeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot open include %q: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("cannot open include %q", e.Path)
}

func (e *MissingIncludeError) Unwrap() error {
	return e.Cause
}

// NewMissingIncludeError creates a new missing include error
func NewMissingIncludeError(path string, cause error) error {
	return &MissingIncludeError{Path: path, Cause: cause}
}

// ClosedStreamError reports an operation attempted on a source already marked
// closed.
type ClosedStreamError struct {
	Name string
}

func (e *ClosedStreamError) Error() string {
	return fmt.Sprintf("I/O operation on closed source %q", e.Name)
}

// NewClosedStreamError creates a new closed stream error
func NewClosedStreamError(name string) error {
	return &ClosedStreamError{Name: name}
}

// InvalidForIterableError reports a #for payload that failed to parse as a
// literal sequence or mapping, or a variable iterable whose resolved value is
// not iterable.
type InvalidForIterableError struct {
	Value string
	Cause error
}

func (e *InvalidForIterableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid for iterable %q: %v", e.Value, e.Cause)
	}
	return fmt.Sprintf("invalid for iterable %q", e.Value)
}

func (e *InvalidForIterableError) Unwrap() error {
	return e.Cause
}

// NewInvalidForIterableError creates a new invalid iterable error
func NewInvalidForIterableError(value string, cause error) error {
	return &InvalidForIterableError{Value: value, Cause: cause}
}

// IsMalformedDirectiveError checks if an error is a malformed directive error
func IsMalformedDirectiveError(err error) bool {
	var target *MalformedDirectiveError
	return errors.As(err, &target)
}

// IsUndefinedVariableError checks if an error is an undefined variable error
func IsUndefinedVariableError(err error) bool {
	var target *UndefinedVariableError
	return errors.As(err, &target)
}

// IsMissingIncludeError checks if an error is a missing include error
func IsMissingIncludeError(err error) bool {
	var target *MissingIncludeError
	return errors.As(err, &target)
}

// IsClosedStreamError checks if an error is a closed stream error
func IsClosedStreamError(err error) bool {
	var target *ClosedStreamError
	return errors.As(err, &target)
}

// IsInvalidForIterableError checks if an error is an invalid iterable error
func IsInvalidForIterableError(err error) bool {
	var target *InvalidForIterableError
	return errors.As(err, &target)
}
