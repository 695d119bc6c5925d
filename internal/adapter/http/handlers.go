package http

import (
	"errors"
	"net/http"
	"time"

	loandomain "lendpool-backend/internal/domain/loan"
	tokendomain "lendpool-backend/internal/domain/token"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// domainStatus maps domain errors to HTTP codes. Unknown errors are treated as
// internal; callers decide whether to leak the message.
func domainStatus(err error) int {
	switch {
	case errors.Is(err, loandomain.ErrNotFound),
		errors.Is(err, loandomain.ErrNoContribution),
		errors.Is(err, tokendomain.ErrUnknownToken):
		return http.StatusNotFound
	case errors.Is(err, loandomain.ErrInvalidTransition),
		errors.Is(err, loandomain.ErrTerminalLoan),
		errors.Is(err, loandomain.ErrFundingClosed),
		errors.Is(err, loandomain.ErrAlreadyVoted),
		errors.Is(err, tokendomain.ErrTokenExists):
		return http.StatusConflict
	case errors.Is(err, loandomain.ErrExceedsRemaining),
		errors.Is(err, loandomain.ErrAmountMismatch),
		errors.Is(err, tokendomain.ErrTokenInactive):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeDomainError(c echo.Context, err error) error {
	code := domainStatus(err)
	if code == http.StatusInternalServerError {
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}
