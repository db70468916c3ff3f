// Package apierror renders every error the insights API returns as an
// RFC 9457 problem document (https://www.rfc-editor.org/rfc/rfc9457.html).
package apierror

// ProblemDetails is the body of every non-2xx response. The first five
// fields are the RFC members; the rest are API extensions.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	RequestID string `json:"request_id,omitempty"`
	// UserMessage is safe to show in the app as-is
	UserMessage string `json:"user_message,omitempty"`
	// RetryAfter mirrors the Retry-After header in seconds
	RetryAfter *int         `json:"retry_after,omitempty"`
	Action     string       `json:"action,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
}

// FieldError names one rejected request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
