package errors

import (
	"fmt"
	"log/slog"
	"strings"
)

// PublicServerMessage is the only text shown to clients for non-validation failures.
const PublicServerMessage = "Server error"

// PublicMessage returns the message a transport may expose to its caller.
// Validation failures keep their specific message; every other kind collapses
// to PublicServerMessage.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if ve, ok := As(err); ok && (ve.Category == CategoryValidation || ve.Code == ErrCodeItemNotFound) {
		return ve.Message
	}
	return PublicServerMessage
}

// FormatForCLI formats an error for terminal output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ve, ok := As(err)
	if !ok {
		ve = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", ve.Message))
	if ve.Cause != nil && ve.Cause.Error() != ve.Message {
		sb.WriteString(fmt.Sprintf("  Cause: %s\n", ve.Cause.Error()))
	}
	if ve.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", ve.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", ve.Code))

	return sb.String()
}

// LogAttrs returns slog attributes describing err.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	ve, ok := As(err)
	if !ok {
		return []any{slog.String("error", err.Error())}
	}

	attrs := []any{
		slog.String("error_code", ve.Code),
		slog.String("error", ve.Message),
		slog.String("category", string(ve.Category)),
		slog.String("severity", string(ve.Severity)),
	}
	if ve.Cause != nil {
		attrs = append(attrs, slog.String("cause", ve.Cause.Error()))
	}
	for k, v := range ve.Details {
		attrs = append(attrs, slog.String("detail_"+k, v))
	}
	return attrs
}
