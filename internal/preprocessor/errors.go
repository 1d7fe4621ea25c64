package preprocessor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the host sends something that cannot be decoded.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported is returned for host versions the protocol does not understand.
	ErrUnsupported = errors.New("unsupported")
)

// ParseError reports input from the host that could not be decoded.
type ParseError struct {
	Format  string // e.g. "preprocessor input"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse %s: %s: %v", e.Format, e.Message, e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

// Unwrap lets errors.Is match both ErrInvalidInput and the decoder error.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// VersionError reports a host version that does not match the protocol version.
type VersionError struct {
	Host      string
	BuiltWith string
	Reason    string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("mdbook %s is not compatible with %s: %s", e.Host, e.BuiltWith, e.Reason)
}

func (e *VersionError) Unwrap() error {
	return ErrUnsupported
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
