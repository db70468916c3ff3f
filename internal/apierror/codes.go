package apierror

// Error type URIs following the urn:insights:error:* pattern.
// These are used as the "type" field in RFC 9457 Problem Details.
const (
	// TypeValidation indicates request validation failed (400)
	TypeValidation = "urn:insights:error:validation"

	// TypeNotFound indicates the requested resource was not found (404)
	TypeNotFound = "urn:insights:error:not_found"

	// TypeRateLimit indicates too many requests (429)
	TypeRateLimit = "urn:insights:error:rate_limit"

	// TypeInternal indicates an unexpected server error (500)
	TypeInternal = "urn:insights:error:internal"

	// TypeBadRequest indicates a malformed or invalid request (400)
	TypeBadRequest = "urn:insights:error:bad_request"

	// TypeInsufficientData indicates the analysis window has too few days (400)
	TypeInsufficientData = "urn:insights:error:insufficient_data"

	// TypeTimeout indicates the analysis did not finish in time (504)
	TypeTimeout = "urn:insights:error:timeout"

	// TypeUnavailable indicates the health data store could not be reached (503)
	TypeUnavailable = "urn:insights:error:unavailable"
)

// Titles for each error type - human-readable summaries
const (
	TitleValidation       = "Validation Error"
	TitleNotFound         = "Resource Not Found"
	TitleRateLimit        = "Rate Limit Exceeded"
	TitleInternal         = "Internal Server Error"
	TitleBadRequest       = "Bad Request"
	TitleInsufficientData = "Insufficient Data"
	TitleTimeout          = "Analysis Timed Out"
	TitleUnavailable      = "Data Store Unavailable"
)
