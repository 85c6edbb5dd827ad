package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"usersvc/internal/users/model"

	"github.com/labstack/echo/v4"
)

const msgInternal = "Internal server error"

// ErrorHandler is the catch-all for errors returned by handlers and by echo
// itself. Every error leaves as a JSON envelope with a stable status code.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := httpError(err)
		attrs := []any{
			"error", err,
			"status", status,
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", attrs...)
		} else {
			logger.Debug("request rejected", attrs...)
		}

		if err := c.JSON(status, body); err != nil {
			logger.Error("failed to write error response", "error", err)
		}
	}
}

// Helper to map errors to HTTP status and body
func httpError(err error) (int, model.ErrorResponse) {
	var failure *model.Failure
	if errors.As(err, &failure) {
		return failureError(failure)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			return errorBody(http.StatusNotFound, "Route not found")
		}
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(he.Code)
		}
		return errorBody(he.Code, msg)
	}

	return errorBody(http.StatusInternalServerError, msgInternal)
}

func failureError(f *model.Failure) (int, model.ErrorResponse) {
	switch f.Kind {
	case model.ValidationFailure:
		status, body := errorBody(http.StatusBadRequest, "Validation error")
		body.Errors = f.Messages
		return status, body
	case model.DuplicateKeyFailure:
		return errorBody(http.StatusConflict, f.Field+" already exists")
	case model.CastFailure:
		return errorBody(http.StatusBadRequest, "Invalid ID format")
	}

	if f.Status != 0 {
		msg := f.Message
		if msg == "" {
			msg = http.StatusText(f.Status)
		}
		return errorBody(f.Status, msg)
	}
	return errorBody(http.StatusInternalServerError, msgInternal)
}

func errorBody(status int, msg string) (int, model.ErrorResponse) {
	return status, model.ErrorResponse{
		Success:    false,
		StatusCode: status,
		Message:    msg,
	}
}
