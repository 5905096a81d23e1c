package eutils

import (
	"errors"
	"fmt"
)

// ErrMissingPMID is wrapped by the ValidationError returned when an
// article has no PMID.
var ErrMissingPMID = errors.New("missing PMID")

// ParseError reports a response body that is not well-formed XML.
type ParseError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s response: %v", e.Op, e.Err)
}

// Unwrap returns the decoder error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports an article document that lacks a required field.
type ValidationError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid article: %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
