package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"usersvc/internal/users/model"
	"usersvc/internal/users/service"

	"github.com/labstack/echo/v4"
)

var errNotArray = errors.New("request body is not a JSON array")

const healthTimeout = 2 * time.Second

type UserHandler struct {
	Service      service.UserService
	MaxPageLimit int
}

func NewUserHandler(s service.UserService, maxPageLimit int) *UserHandler {
	return &UserHandler{Service: s, MaxPageLimit: maxPageLimit}
}

// HealthCheck handles GET /health
func (h *UserHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	if err := h.Service.Health(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Success:    false,
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Database unavailable",
		})
	}
	return c.JSON(http.StatusOK, model.Response{
		Success:    true,
		StatusCode: http.StatusOK,
		Message:    "ok",
	})
}

// readBatch reads the body as a JSON array of raw items. With allowObject a
// single object is accepted as a one-item batch.
func readBatch(c echo.Context, allowObject bool) ([]json.RawMessage, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errNotArray
	}
	if !json.Valid(trimmed) {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body")
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body")
		}
		return items, nil
	case '{':
		if allowObject {
			return []json.RawMessage{json.RawMessage(trimmed)}, nil
		}
	}
	return nil, errNotArray
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Success:    false,
		StatusCode: http.StatusBadRequest,
		Message:    msg,
	})
}
