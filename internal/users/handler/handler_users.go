package handler

import (
	"errors"
	"fmt"
	"net/http"

	"usersvc/internal/users/model"

	"github.com/labstack/echo/v4"
)

// PostBulkCreate handles POST /users/bulk-create
func (h *UserHandler) PostBulkCreate(c echo.Context) error {
	records, err := readBatch(c, true)
	if errors.Is(err, errNotArray) {
		return badRequest(c, "Request body must be an array of user objects")
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return badRequest(c, "Array cannot be empty")
	}

	result, err := h.Service.BulkCreate(c.Request().Context(), records)
	if err != nil {
		var failure *model.Failure
		if errors.As(err, &failure) && failure.Kind == model.PartialBatchFailure && result != nil {
			return c.JSON(http.StatusMultiStatus, model.BulkCreatePartialResponse{
				Success:       false,
				StatusCode:    http.StatusMultiStatus,
				Message:       "Partial bulk create - some documents failed",
				InsertedCount: len(result.Inserted),
				FailedCount:   len(result.Failures),
				InsertedDocs:  result.Inserted,
				Errors:        result.Failures,
			})
		}
		return err
	}

	count := len(result.Inserted)
	return c.JSON(http.StatusCreated, model.Response{
		Success:    true,
		StatusCode: http.StatusCreated,
		Message:    fmt.Sprintf("Successfully created %d users", count),
		Count:      &count,
		Data:       result.Inserted,
	})
}

// PutBulkUpdate handles PUT /users/bulk-update
func (h *UserHandler) PutBulkUpdate(c echo.Context) error {
	ops, err := readBatch(c, false)
	if errors.Is(err, errNotArray) {
		return badRequest(c, "Request body must be an array of update operations")
	}
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return badRequest(c, "Operations array cannot be empty")
	}

	result, err := h.Service.BulkUpdate(c.Request().Context(), ops)
	if err != nil {
		var failure *model.Failure
		if errors.As(err, &failure) && failure.Kind == model.PartialBatchFailure && result != nil {
			return c.JSON(http.StatusMultiStatus, model.BulkUpdatePartialResponse{
				Success:    false,
				StatusCode: http.StatusMultiStatus,
				Message:    "Partial bulk update - some operations failed",
				Data:       result.BulkWriteCounts,
				Errors:     result.Failures,
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, model.Response{
		Success:    true,
		StatusCode: http.StatusOK,
		Message:    "Bulk update completed successfully",
		Data:       result.BulkWriteCounts,
	})
}

// GetUsers handles GET /users
func (h *UserHandler) GetUsers(c echo.Context) error {
	var req model.ListUsersReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "page and limit must be integers")
	}
	if err := req.Normalize(h.MaxPageLimit); err != nil {
		return badRequest(c, "page is out of range")
	}

	result, err := h.Service.ListUsers(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, model.Response{
		Success:    true,
		StatusCode: http.StatusOK,
		Data:       result.Users,
		Pagination: model.NewPagination(req.Page, req.Limit, result.Total),
	})
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.Service.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if user == nil {
		return c.JSON(http.StatusNotFound, model.ErrorResponse{
			Success:    false,
			StatusCode: http.StatusNotFound,
			Message:    "User not found",
		})
	}

	return c.JSON(http.StatusOK, model.Response{
		Success:    true,
		StatusCode: http.StatusOK,
		Data:       user,
	})
}
