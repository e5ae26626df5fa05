package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/apperr"
)

// statusOf maps an error kind to its HTTP status.
func statusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidState, apperr.KindInvalidTransition:
		return http.StatusConflict
	case apperr.KindCapacity:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "code"}.  Internal failures never
// leak their cause to the client.
func respondError(c echo.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request cancelled", "code": "cancelled"})
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind == apperr.KindInternal {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": "internal"})
	}
	return c.JSON(statusOf(err), echo.Map{"error": ae.Message, "code": ae.Code})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "bad_request"})
}
