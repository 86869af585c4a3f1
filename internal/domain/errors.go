package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies conversion failures.
type ErrorKind string

const (
	KindIO           ErrorKind = "io"
	KindEncoding     ErrorKind = "encoding"
	KindInvalidInput ErrorKind = "invalid_input"
)

// ConverterError is a kind-tagged failure raised anywhere in the conversion core.
type ConverterError struct {
	Kind    ErrorKind `json:"kind"`
	Context string    `json:"context"`
	Err     error     `json:"-"`
}

// Error formats the failure for logs and the UI boundary.
func (e *ConverterError) Error() string {
	if e == nil {
		return ""
	}

	switch e.Kind {
	case KindIO:
		if e.Err == nil {
			return fmt.Sprintf("io failure: %s", e.Context)
		}
		return fmt.Sprintf("io failure: %s: %v", e.Context, e.Err)
	case KindEncoding:
		if e.Context == "" {
			return fmt.Sprintf("encoding failure: %v", e.Err)
		}
		return fmt.Sprintf("encoding failure: %s: %v", e.Context, e.Err)
	default:
		return fmt.Sprintf("invalid input: %s", e.Context)
	}
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *ConverterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IOFailure reports an open/read/write/create failure with its context.
func IOFailure(context string, cause error) *ConverterError {
	return &ConverterError{Kind: KindIO, Context: context, Err: cause}
}

// EncodingFailure reports a WAV writer construction or finalization failure.
func EncodingFailure(context string, cause error) *ConverterError {
	return &ConverterError{Kind: KindEncoding, Context: context, Err: cause}
}

// InvalidInput reports a rejected input, such as a missing file or bad filename.
func InvalidInput(reason string) *ConverterError {
	return &ConverterError{Kind: KindInvalidInput, Context: reason}
}

// IsKind reports whether err carries a ConverterError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var convErr *ConverterError
	if !errors.As(err, &convErr) {
		return false
	}
	return convErr.Kind == kind
}
