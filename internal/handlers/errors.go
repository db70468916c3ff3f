package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kylemck03/PANW-take-home/backend/internal/analytics"
	"github.com/kylemck03/PANW-take-home/backend/internal/apierror"
	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/service"
	"github.com/kylemck03/PANW-take-home/backend/pkg/supabase"
)

// StoreRetryAfterSeconds is the Retry-After hint sent when the data store is unreachable
const StoreRetryAfterSeconds = 30

// queryDays reads the "days" query parameter and enforces [min, max].
// On failure it writes a problem response and returns false.
func queryDays(c *gin.Context, def, min, max int) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return def, true
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days < min || days > max {
		apierror.WriteProblem(c, apierror.NewRangeError(apierror.GetRequestID(c), "days", min, max))
		return 0, false
	}
	return days, true
}

// writeServiceError maps service and analytics errors onto problem responses
func writeServiceError(c *gin.Context, err error, resource, id string) {
	requestID := apierror.GetRequestID(c)

	var insufficient *analytics.InsufficientDataError
	switch {
	case errors.As(err, &insufficient):
		apierror.WriteProblem(c, apierror.NewInsufficientDataError(requestID, insufficient.Available, insufficient.Required))
	case errors.Is(err, service.ErrInvalidDate):
		apierror.WriteProblem(c, apierror.NewInvalidDateError(requestID, "date", id))
	case errors.Is(err, service.ErrNoHealthData), errors.Is(err, service.ErrBaselinesNotFound):
		apierror.WriteProblem(c, apierror.NewNotFoundError(requestID, resource, id))
	case errors.Is(err, context.DeadlineExceeded):
		apierror.WriteProblem(c, apierror.NewTimeoutError(requestID))
	case storeUnavailable(err):
		logger.Ctx(c.Request.Context()).Warn("data store unavailable",
			logger.String("resource", resource),
			logger.Err(err),
		)
		apierror.WriteProblem(c, apierror.NewServiceUnavailableError(requestID, StoreRetryAfterSeconds))
	default:
		logger.Ctx(c.Request.Context()).Error("request failed",
			logger.String("resource", resource),
			logger.Err(err),
		)
		apierror.WriteProblem(c, apierror.NewInternalError(requestID))
	}
}

// storeUnavailable reports whether err comes from an unreachable or failing
// backing store rather than from the request itself.
func storeUnavailable(err error) bool {
	var supaErr *supabase.Error
	if errors.As(err, &supaErr) {
		return supaErr.StatusCode >= http.StatusInternalServerError
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
