package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes carried in AppError.Code.
const (
	CodeConfig           = "CONFIG_ERROR"
	CodeExtractionFailed = "EXTRACTION_FAILED"
	CodeUnclassified     = "UNCLASSIFIED"
	CodeTemplate         = "TEMPLATE_ERROR"
	CodeMoveFailed       = "MOVE_FAILED"
)

// Common application errors
var (
	ErrConfig             = errors.New("invalid configuration")
	ErrExtractionFailed   = errors.New("no text could be extracted")
	ErrUnclassified       = errors.New("document could not be classified")
	ErrClassifierDisabled = errors.New("classification is disabled")
	ErrTemplate           = errors.New("template error")
	ErrMove               = errors.New("move failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError wraps cause (or ErrConfig when nil) with CONFIG_ERROR.
func ConfigError(message string, cause error) *AppError {
	return NewAppError(CodeConfig, message, withSentinel(ErrConfig, cause))
}

func ExtractionError(message string, cause error) *AppError {
	return NewAppError(CodeExtractionFailed, message, withSentinel(ErrExtractionFailed, cause))
}

func UnclassifiedError(message string, cause error) *AppError {
	return NewAppError(CodeUnclassified, message, withSentinel(ErrUnclassified, cause))
}

func TemplateError(message string, cause error) *AppError {
	return NewAppError(CodeTemplate, message, withSentinel(ErrTemplate, cause))
}

func MoveError(message string, cause error) *AppError {
	return NewAppError(CodeMoveFailed, message, withSentinel(ErrMove, cause))
}

// CodeOf returns the code of the outermost AppError in err's chain, or "".
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// withSentinel keeps both the sentinel and the original cause reachable via errors.Is.
func withSentinel(sentinel, cause error) error {
	switch {
	case cause == nil:
		return sentinel
	case errors.Is(cause, sentinel):
		return cause
	default:
		return fmt.Errorf("%w: %w", sentinel, cause)
	}
}
