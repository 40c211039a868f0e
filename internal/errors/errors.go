package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrMalformedInput         = errors.New("token sequence violates JSON grammar")
	ErrUnexpectedEOF          = errors.New("stream ended inside a JSON value")
	ErrIOFailure              = errors.New("reading the next token failed")
	ErrEmptyInput             = errors.New("input is empty or contains only whitespace")
	ErrNoSelector             = errors.New("no selector provided: use -s or set selector in the config file")
	ErrFileNotFound           = errors.New("file not found")
	ErrUnsupportedCompression = errors.New("unsupported compression")
	ErrInvalidPattern         = errors.New("invalid path pattern")
	ErrInputTooLarge          = errors.New("input exceeds the configured size limit")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput         ErrorType = "input"
	ErrorTypeConfig        ErrorType = "config"
	ErrorTypeMalformed     ErrorType = "malformed"
	ErrorTypeUnexpectedEOF ErrorType = "unexpected_eof"
	ErrorTypeIO            ErrorType = "io"
	ErrorTypeOutput        ErrorType = "output"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	// Offset is the input byte offset for malformed input, -1 when unknown.
	Offset int64
	Err    error
}

// Error implements error interface
func (e *AppError) Error() string {
	msg := e.Message
	if e.Offset >= 0 && (e.Type == ErrorTypeMalformed || e.Type == ErrorTypeUnexpectedEOF) {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

func newError(t ErrorType, message string, err error) *AppError {
	return &AppError{Type: t, Message: message, Offset: -1, Err: err}
}

// NewInputError creates a new error related to opening or reading input
func NewInputError(message string, err error) *AppError {
	return newError(ErrorTypeInput, message, err)
}

// NewConfigError creates a new error related to configuration
func NewConfigError(message string, err error) *AppError {
	return newError(ErrorTypeConfig, message, err)
}

// NewMalformedError creates a new error for input that is not valid JSON.
// offset is the byte position of the problem or -1.
func NewMalformedError(message string, offset int64, err error) *AppError {
	e := newError(ErrorTypeMalformed, message, wrapSentinel(err, ErrMalformedInput))
	e.Offset = offset
	return e
}

// NewUnexpectedEOFError creates a new error for a stream that ends mid-structure
func NewUnexpectedEOFError(message string, offset int64, err error) *AppError {
	e := newError(ErrorTypeUnexpectedEOF, message, wrapSentinel(err, ErrUnexpectedEOF))
	e.Offset = offset
	return e
}

// NewIOError creates a new error for a failing transport
func NewIOError(message string, err error) *AppError {
	return newError(ErrorTypeIO, message, wrapSentinel(err, ErrIOFailure))
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return newError(ErrorTypeOutput, message, err)
}

// wrapSentinel makes sure errors.Is(err, sentinel) holds for the wrapped cause.
func wrapSentinel(err, sentinel error) error {
	if err == nil {
		return sentinel
	}
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// IsMalformed reports whether err was caused by invalid JSON.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}

// IsUnexpectedEOF reports whether err was caused by truncated input.
func IsUnexpectedEOF(err error) bool {
	return errors.Is(err, ErrUnexpectedEOF)
}

// IsIOFailure reports whether err was caused by the underlying transport.
func IsIOFailure(err error) bool {
	return errors.Is(err, ErrIOFailure)
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeConfig:
			if errors.Is(appErr.Err, ErrNoSelector) {
				return "Configuration error: No selector provided. Use -s or set selector in the config file."
			}
			if appErr.Err != nil {
				return fmt.Sprintf("Configuration error: %s: %v", appErr.Message, appErr.Err)
			}
			return fmt.Sprintf("Configuration error: %s", appErr.Message)
		case ErrorTypeMalformed:
			if appErr.Offset >= 0 {
				return fmt.Sprintf("JSON parsing error: %s (byte %d)", appErr.Message, appErr.Offset)
			}
			return fmt.Sprintf("JSON parsing error: %s", appErr.Message)
		case ErrorTypeUnexpectedEOF:
			return fmt.Sprintf("JSON parsing error: %s. The input looks truncated.", appErr.Message)
		case ErrorTypeIO:
			return fmt.Sprintf("Read error: %s", appErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide valid JSON data."
	}
	if errors.Is(err, ErrNoSelector) {
		return "Error: No selector provided. Use -s or set selector in the config file."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrInvalidPattern) {
		return fmt.Sprintf("Error: %v", err)
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
