package refactor

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned before any network activity when no API key is configured.
	ErrMissingCredential = errors.New("API key not found in configuration")
	// ErrNoResponse is returned when the model answered with no text.
	ErrNoResponse = errors.New("no response received from AI")
	// ErrParseResponse is matched by every *ParseError.
	ErrParseResponse = errors.New("failed to parse AI response")
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")
)

// ParseError carries the raw model text that could not be decoded.
type ParseError struct {
	Raw   string
	Cause error
}

func (e *ParseError) Error() string { return ErrParseResponse.Error() }

func (e *ParseError) Unwrap() []error { return []error{ErrParseResponse, e.Cause} }

// Detail describes why the text was rejected.
func (e *ParseError) Detail() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Error()
}

func parseErrorf(raw string, format string, args ...any) error {
	return &ParseError{Raw: raw, Cause: fmt.Errorf(format, args...)}
}
