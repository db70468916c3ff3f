package apierror

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the MIME type for RFC 9457 Problem Details.
const ContentTypeProblemJSON = "application/problem+json"

// WriteProblem writes problem as application/problem+json, filling Instance
// from the request path and Retry-After from RetryAfter.
func WriteProblem(c *gin.Context, problem *ProblemDetails) {
	c.Header("Content-Type", ContentTypeProblemJSON)

	if problem.RetryAfter != nil {
		c.Header("Retry-After", strconv.Itoa(*problem.RetryAfter))
	}

	if c.Request != nil && problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}

	c.JSON(problem.Status, problem)
}

// AbortWithProblem writes the problem and stops the handler chain
func AbortWithProblem(c *gin.Context, problem *ProblemDetails) {
	WriteProblem(c, problem)
	c.Abort()
}

// GetRequestID extracts the request ID from the gin context.
// Returns empty string if not found.
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return c.GetHeader("X-Request-ID")
}

// NewValidationError creates a 400 Bad Request response for validation failures.
// Multiple field errors can be included to report all validation issues at once.
func NewValidationError(requestID string, errors []FieldError) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeValidation,
		Title:       TitleValidation,
		Status:      http.StatusBadRequest,
		Detail:      "One or more fields failed validation",
		RequestID:   requestID,
		UserMessage: "Please check your input and try again",
		Errors:      errors,
	}
}

// NewRangeError reports a numeric query parameter outside [min, max]
func NewRangeError(requestID, field string, min, max int) *ProblemDetails {
	return NewValidationError(requestID, []FieldError{{
		Field:   field,
		Message: fmt.Sprintf("must be an integer between %d and %d", min, max),
		Code:    "out_of_range",
	}})
}

// NewInvalidDateError reports a date that is not formatted as YYYY-MM-DD
func NewInvalidDateError(requestID, field, value string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeValidation,
		Title:       TitleValidation,
		Status:      http.StatusBadRequest,
		Detail:      fmt.Sprintf("Invalid date for field '%s': '%s'", field, value),
		RequestID:   requestID,
		UserMessage: "Dates must use the YYYY-MM-DD format",
		Errors: []FieldError{
			{Field: field, Message: "must be a date in YYYY-MM-DD format", Code: "invalid_date"},
		},
	}
}

// NewNotFoundError creates a 404 Not Found response.
func NewNotFoundError(requestID, resource, id string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeNotFound,
		Title:       TitleNotFound,
		Status:      http.StatusNotFound,
		Detail:      fmt.Sprintf("%s for '%s' was not found", resource, id),
		RequestID:   requestID,
		UserMessage: fmt.Sprintf("The requested %s could not be found", resource),
	}
}

// NewInsufficientDataError creates a 400 response when a user has fewer
// days of history than the analysis requires.
func NewInsufficientDataError(requestID string, have, need int) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeInsufficientData,
		Title:       TitleInsufficientData,
		Status:      http.StatusBadRequest,
		Detail:      fmt.Sprintf("Insufficient data: %d days available, at least %d required", have, need),
		RequestID:   requestID,
		UserMessage: fmt.Sprintf("Keep syncing your health data. Insights unlock after %d days.", need),
		Action:      "sync_more_data",
	}
}

// NewRateLimitError creates a 429 Too Many Requests response.
// retryAfter specifies seconds until the client should retry.
func NewRateLimitError(requestID string, retryAfter int) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeRateLimit,
		Title:       TitleRateLimit,
		Status:      http.StatusTooManyRequests,
		Detail:      fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds", retryAfter),
		RequestID:   requestID,
		UserMessage: "Too many requests. Please wait before trying again.",
		RetryAfter:  &retryAfter,
	}
}

// NewInternalError creates a 500 response. The cause is logged by the caller,
// never echoed to the client.
func NewInternalError(requestID string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeInternal,
		Title:       TitleInternal,
		Status:      http.StatusInternalServerError,
		Detail:      "An unexpected error occurred",
		RequestID:   requestID,
		UserMessage: "Something went wrong. Please try again later.",
	}
}

// NewTimeoutError creates a 504 response for an analysis that ran past its deadline.
func NewTimeoutError(requestID string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeTimeout,
		Title:       TitleTimeout,
		Status:      http.StatusGatewayTimeout,
		Detail:      "The analysis did not complete before the deadline",
		RequestID:   requestID,
		UserMessage: "The analysis is taking longer than expected. Please try again.",
	}
}

// NewBadRequestError creates a 400 Bad Request response for malformed requests.
func NewBadRequestError(requestID, detail, userMessage string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeBadRequest,
		Title:       TitleBadRequest,
		Status:      http.StatusBadRequest,
		Detail:      detail,
		RequestID:   requestID,
		UserMessage: userMessage,
	}
}

// NewServiceUnavailableError reports a backing store outage. retryAfter is
// sent in seconds as both the Retry-After header and the body field.
func NewServiceUnavailableError(requestID string, retryAfter int) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeUnavailable,
		Title:       TitleUnavailable,
		Status:      http.StatusServiceUnavailable,
		Detail:      "The health data store is temporarily unreachable",
		RequestID:   requestID,
		UserMessage: "Your health data is temporarily unavailable. Please try again shortly.",
		RetryAfter:  &retryAfter,
	}
}
