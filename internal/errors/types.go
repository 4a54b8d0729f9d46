package errors

import stderrors "errors"

// represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`             // error code (e.g., "validation_error", "not_found")
	Message string `json:"message"`           // user-friendly message
	Details string `json:"details,omitempty"` // optional details (sanitized in production)
}

type ErrorInfo struct {
	category  string
	sanitized string
}

// standard error codes
const (
	CodeNotFound        = "not_found"
	CodeValidationError = "validation_error"
	CodeServerError     = "server_error"
	CodeBadRequest      = "bad_request"
	CodeForbidden       = "forbidden"
	CodeTooManyRequests = "too_many_requests"
)

// error categories for classification
const (
	CategoryDatabase   = "database"
	CategoryNetwork    = "network"
	CategoryValidation = "validation"
	CategoryNotFound   = "not_found"
	CategoryTimeout    = "timeout"
	CategoryUnknown    = "unknown"
)

// error kinds. domain packages wrap one of these with %w so handlers can
// decide how to surface an error without knowing where it came from.
var (
	// rejected input, nothing mutated, caller is told
	ErrValidation = stderrors.New("validation error")

	// unknown code block or session
	ErrNotFound = stderrors.New("not found")

	// lost a race (duplicate join, edit after teardown, duplicate
	// disconnect); absorbed as a no-op and never surfaced to clients
	ErrRaceRecovered = stderrors.New("race recovered")

	// connection dropped mid-send; handled by the normal leave path
	ErrTransport = stderrors.New("transport error")
)
