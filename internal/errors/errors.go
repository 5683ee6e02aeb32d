package errors

import (
	"errors"
	"fmt"
)

// VaultError is the structured error type for the personal vault.
// It carries enough context for logging, transport mapping and user output.
type VaultError struct {
	// Code is the unique error code (e.g., "ERR_404_QUERY_EMPTY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *VaultError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works against sentinel VaultErrors.
func (e *VaultError) Is(target error) bool {
	if t, ok := target.(*VaultError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *VaultError) WithDetail(key, value string) *VaultError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *VaultError) WithSuggestion(suggestion string) *VaultError {
	e.Suggestion = suggestion
	return e
}

// New creates a new VaultError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *VaultError {
	return &VaultError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a VaultError from an existing error.
func Wrap(code string, err error) *VaultError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *VaultError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *VaultError {
	return New(ErrCodeInvalidInput, message, cause)
}

// MissingFieldError reports a required request field that was absent.
func MissingFieldError(field, message string) *VaultError {
	return New(ErrCodeMissingField, message, nil).WithDetail("field", field)
}

// ProviderError reports a failed or malformed embedding provider call.
func ProviderError(message string, cause error) *VaultError {
	return New(ErrCodeEmbeddingFailed, message, cause)
}

// StorageError creates an item store error.
func StorageError(message string, cause error) *VaultError {
	return New(ErrCodeStoreUnavailable, message, cause)
}

// NotFoundError reports a missing item.
func NotFoundError(kind string, id int64) *VaultError {
	return New(ErrCodeItemNotFound, fmt.Sprintf("%s %d not found", kind, id), nil).
		WithDetail("kind", kind)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *VaultError {
	return New(ErrCodeInternal, message, cause)
}

// As returns the first VaultError in err's chain.
func As(err error) (*VaultError, bool) {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if ve, ok := As(err); ok {
		return ve.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if ve, ok := As(err); ok {
		return ve.Severity == SeverityFatal
	}
	return false
}

// IsValidation reports whether err is a client-side input problem.
// Transports map these to client errors; everything else is a server error.
func IsValidation(err error) bool {
	return GetCategory(err) == CategoryValidation
}

// IsNotFound reports whether err refers to a missing item.
func IsNotFound(err error) bool {
	return GetCode(err) == ErrCodeItemNotFound
}

// GetCode extracts the error code from a VaultError.
// Returns empty string if not a VaultError.
func GetCode(err error) string {
	if ve, ok := As(err); ok {
		return ve.Code
	}
	return ""
}

// GetCategory extracts the category from a VaultError.
func GetCategory(err error) Category {
	if ve, ok := As(err); ok {
		return ve.Category
	}
	return ""
}
