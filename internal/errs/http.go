package errs

import (
	"strings"
	"time"

	"github.com/deppfellow/calculator-api/internal/lib/utils"
)

// FieldError represents a field-level validation error (typical for forms).
// Example:
//
//	{ "field": "email", "error": "must be a valid email address" }
type FieldError struct {
	// Field is the field name/key the error relates to (e.g. "email").
	Field string `json:"field"`

	// Error is the human-readable error message.
	Error string `json:"error"`
}

// ActionType is a string-based enum describing what the client should do.
type ActionType string

const (
	// ActionTypeRedirect tells the client it should redirect somewhere.
	// Usually "Value" holds the URL or route.
	ActionTypeRedirect ActionType = "redirect"
)

// Action describes an optional “what the client should do next” instruction.
//
// Handy for auth flows: e.g. “redirect to login”.
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the main custom error type for API responses.
//
// It implements the `error` interface via Error().
// Fields:
//   - Code: machine-friendly error code (one of the Kind values).
//   - Message: human-friendly message.
//   - Status: HTTP status code.
//   - Override: true when Message is safe to show to the client as-is.
//   - Errors: list of per-field errors (validation).
//   - Action: client instruction, action to be taken (optional).
type HTTPError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	// Errors holds field-level validation errors, typically for form inputs.
	Errors []FieldError `json:"errors"`

	// Action is an optional client instruction (redirect, etc.).
	Action *Action `json:"action"`
}

// Error makes *HTTPError satisfy the built-in `error` interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Is customizes how errors.Is(...) treats HTTPError.
//
// It only checks whether the other thing is the same *type* (*HTTPError),
// it does NOT compare Code/Status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)

	return ok
}

// WithMessage returns a *copy* of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:     e.Code,
		Message:  message,
		Status:   e.Status,
		Override: e.Override,
		Errors:   e.Errors,
		Action:   e.Action,
	}
}

// ErrorEnvelope is the body written for every failed request.
//
// It is the failure half of the API's uniform envelope:
//
//	{ "success": false, "error": "Cannot divide by zero", "code": "DIVISION_BY_ZERO", "timestamp": "..." }
type ErrorEnvelope struct {
	Success   bool         `json:"success"`
	Error     string       `json:"error"`
	Code      string       `json:"code"`
	Timestamp string       `json:"timestamp"`
	Errors    []FieldError `json:"errors,omitempty"`
	Action    *Action      `json:"action,omitempty"`
	Path      string       `json:"path,omitempty"`
}

// Envelope converts the error into the response body sent to clients.
func (e *HTTPError) Envelope(at time.Time) ErrorEnvelope {
	return ErrorEnvelope{
		Success:   false,
		Error:     e.Message,
		Code:      e.Code,
		Timestamp: utils.ISOTimestamp(at),
		Errors:    e.Errors,
		Action:    e.Action,
	}
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"Bad Request" -> "BAD_REQUEST"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
