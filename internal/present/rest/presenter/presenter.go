package presenter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/squadup/squadup/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func BadRequest(c echo.Context, err error) error {
	fmt.Println("Bad request:", err)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	fmt.Println("Bad request:", msg)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	fmt.Println("Not found:", msg)
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func Forbidden(c echo.Context, msg string) error {
	return c.JSON(http.StatusForbidden, errorResponse{Error: msg})
}

func Conflict(c echo.Context, msg string) error {
	return c.JSON(http.StatusConflict, errorResponse{Error: msg})
}

func InternalError(c echo.Context, err error) error {
	fmt.Println("Internal error:", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// DomainError maps the error taxonomy onto HTTP statuses. Anything the
// taxonomy does not know lands on 500.
func DomainError(c echo.Context, err error) error {
	var rateBlocked domain.RateBlockedError
	if errors.As(err, &rateBlocked) {
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error":            "you are muted",
			"remainingMinutes": rateBlocked.RemainingMinutes,
		})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return NotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		return BadRequestMessage(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrNotOpen),
		errors.Is(err, domain.ErrFull),
		errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrNotMember):
		return Conflict(c, err.Error())
	}
	return InternalError(c, err)
}
