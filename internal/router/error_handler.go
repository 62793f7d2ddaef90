package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	apperrors "acquisitions/internal/errors"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps the domain
// error taxonomy to HTTP status codes and renders the canonical envelope.
// In production, unexpected errors are logged but their detail is suppressed
// from the response; other environments echo the underlying message.
func NewHTTPErrorHandler(log zerolog.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c, production)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context, production bool) (int, apperrors.ErrorResponse) {
	// Validation failures carry field-level details.
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, apperrors.ErrorResponse{
			Error:   "Validation failed",
			Details: ve.Details,
		}
	}

	// Errors raised by handlers and middleware with an explicit status.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if resp, ok := he.Message.(apperrors.ErrorResponse); ok {
			return he.Code, resp
		}
		return he.Code, apperrors.ErrorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Typed domain errors from the data-access layer.
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return http.StatusNotFound, apperrors.ErrorResponse{Error: "User not found"}
	case errors.Is(err, apperrors.ErrEmailTaken):
		return http.StatusConflict, apperrors.ErrorResponse{Error: "Email already exists"}
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, apperrors.ErrorResponse{
			Error:   "Authentication failed",
			Message: "Invalid email or password",
		}
	}

	// Unexpected error: log the real cause.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	resp := apperrors.ErrorResponse{Error: "Internal server error"}
	if !production {
		resp.Message = err.Error()
	}
	return http.StatusInternalServerError, resp
}
