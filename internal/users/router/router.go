package router

import (
	"log/slog"

	"usersvc/internal/users/handler"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Options struct {
	BodyLimit string
	Logger    *slog.Logger
}

func RegisterRoutes(e *echo.Echo, h *handler.UserHandler, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(handler.RequestIDMiddleware)

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.PUT, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	// Health Check
	e.GET("/health", h.HealthCheck)

	users := e.Group("/api/users")
	users.POST("/bulk-create", h.PostBulkCreate)
	users.PUT("/bulk-update", h.PutBulkUpdate)
	users.GET("", h.GetUsers)
	users.GET("/:id", h.GetUser)
}
