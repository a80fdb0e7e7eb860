// Package handler contains the HTTP handlers for the API. Handlers
// bind and validate the request, call into services or repositories
// and translate domain errors into HTTP status codes.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/railswap/train-seat-exchange/internal/repository"
	"github.com/railswap/train-seat-exchange/internal/service"
)

// getUserID extracts the authenticated user's id from the context.
// JWT claims decode numbers as float64, so several representations
// are accepted.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// writeDomainError maps repository and service errors to JSON error
// responses. Unrecognized errors become a 500 with a generic message
// so internals are not leaked.
func writeDomainError(c echo.Context, err error) error {
	var te *service.TransitionError
	switch {
	case errors.Is(err, repository.ErrTicketNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrRequestNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrDuplicateSeat):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.As(err, &te):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": te.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
