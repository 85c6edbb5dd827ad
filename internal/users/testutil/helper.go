package testutil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"

	"usersvc/internal/users/handler"
	"usersvc/internal/users/repository"
	"usersvc/internal/users/router"
	"usersvc/internal/users/service"

	"github.com/labstack/echo/v4"
)

// MaxPageLimit is the page size cap used by SetupServer.
const MaxPageLimit = 100

// SetupServer wires the real router, handler and service on top of repo.
func SetupServer(repo repository.UserRepository) *echo.Echo {
	e := echo.New()
	svc := service.NewService(repo)
	svc.Logger = DiscardLogger()
	h := handler.NewUserHandler(svc, MaxPageLimit)
	router.RegisterRoutes(e, h, router.Options{BodyLimit: "1M", Logger: DiscardLogger()})
	return e
}

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// PerformRequest marshals body as JSON (nil sends no body).
func PerformRequest(e *echo.Echo, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	raw := ""
	if body != nil {
		b, _ := json.Marshal(body)
		raw = string(b)
	}
	return PerformRawRequest(e, method, path, raw, headers)
}

// PerformRawRequest sends body verbatim.
func PerformRawRequest(e *echo.Echo, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
