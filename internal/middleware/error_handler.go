package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"outfitJourney/domain"
	"outfitJourney/pkg/logger"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Message string `json:"message"`
}

// ErrorHandler is the echo HTTPErrorHandler. Domain errors get their own
// status; anything unrecognised is a 500 and is logged.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"trace_id", logger.TraceID(c.Request().Context()),
			"method", c.Request().Method,
			"path", c.Path(),
			err,
		)
	}

	var respErr error
	if c.Request().Method == http.MethodHead {
		respErr = c.NoContent(status)
	} else {
		respErr = c.JSON(status, errorResponse{Message: message})
	}
	if respErr != nil {
		logger.Error("failed to write error response", respErr)
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, domain.ErrInvalidIdentity):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrOutfitNotFound),
		errors.Is(err, domain.ErrSimilarityNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrInsufficientSimilarItems):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrEmptyCollection):
		return http.StatusNotImplemented, err.Error()
	case errors.As(err, &he):
		return he.Code, fmt.Sprint(he.Message)
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}
