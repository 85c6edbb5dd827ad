package handler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"usersvc/internal/users/model"
	"usersvc/internal/users/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func decode(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func newUsers(n int) []map[string]interface{} {
	users := make([]map[string]interface{}, n)
	for i := range users {
		users[i] = map[string]interface{}{
			"fullName": fmt.Sprintf("User %d", i),
			"email":    fmt.Sprintf("user%d@example.com", i),
			"password": "secret",
			"phone":    fmt.Sprintf("01234567%02d", i),
		}
	}
	return users
}

func TestBulkCreateCreated(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("InsertMany", mock.Anything, mock.Anything).Return(testutil.InsertAll, nil)
	e := testutil.SetupServer(repo)

	w := testutil.PerformRequest(e, http.MethodPost, "/api/users/bulk-create", newUsers(5), nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w.Body.Bytes())
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Successfully created 5 users", resp["message"])
	assert.EqualValues(t, 5, resp["count"])

	data := resp["data"].([]interface{})
	require.Len(t, data, 5)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "user0@example.com", first["email"])
	assert.Equal(t, "Pending", first["kycStatus"])
	assert.Equal(t, "user", first["role"])
	assert.NotContains(t, first, "password")
	assert.NotEmpty(t, first["_id"])
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestBulkCreateSingleObject(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("InsertMany", mock.Anything, mock.Anything).Return(testutil.InsertAll, nil)
	e := testutil.SetupServer(repo)

	w := testutil.PerformRequest(e, http.MethodPost, "/api/users/bulk-create", newUsers(1)[0], nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Successfully created 1 users", decode(t, w.Body.Bytes())["message"])
}

func TestBulkCreatePartial(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("InsertMany", mock.Anything, mock.Anything).Return(testutil.FailAt(1), nil)
	e := testutil.SetupServer(repo)

	w := testutil.PerformRequest(e, http.MethodPost, "/api/users/bulk-create", newUsers(3), nil)

	assert.Equal(t, http.StatusMultiStatus, w.Code)
	resp := decode(t, w.Body.Bytes())
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Partial bulk create - some documents failed", resp["message"])
	assert.EqualValues(t, 2, resp["insertedCount"])
	assert.EqualValues(t, 1, resp["failedCount"])
	assert.Len(t, resp["insertedDocs"], 2)

	errs := resp["errors"].([]interface{})
	require.Len(t, errs, 1)
	item := errs[0].(map[string]interface{})
	assert.EqualValues(t, 1, item["index"])
	assert.EqualValues(t, 11000, item["code"])
	assert.Contains(t, item["errmsg"], "E11000")
}

func TestBulkCreatePartialWithInvalidRecord(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("InsertMany", mock.Anything, mock.Anything).Return(testutil.InsertAll, nil)
	e := testutil.SetupServer(repo)

	users := newUsers(3)
	users[2]["email"] = "broken"
	w := testutil.PerformRequest(e, http.MethodPost, "/api/users/bulk-create", users, nil)

	assert.Equal(t, http.StatusMultiStatus, w.Code)
	resp := decode(t, w.Body.Bytes())
	assert.EqualValues(t, 2, resp["insertedCount"])
	item := resp["errors"].([]interface{})[0].(map[string]interface{})
	assert.EqualValues(t, 2, item["index"])
	assert.Equal(t, "Please provide a valid email address", item["errmsg"])
}

func TestBulkCreateAllInvalid(t *testing.T) {
	e := testutil.SetupServer(new(testutil.MockUserRepository))

	w := testutil.PerformRawRequest(e, http.MethodPost, "/api/users/bulk-create", `[{"fullName":"Ada"}]`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w.Body.Bytes())
	assert.Equal(t, "Validation error", resp["message"])
	assert.Contains(t, resp["errors"], "Email is required")
}

func TestBulkCreateDuplicateKeyFailure(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("InsertMany", mock.Anything, mock.Anything).
		Return(nil, &model.Failure{Kind: model.DuplicateKeyFailure, Field: "email"})
	e := testutil.SetupServer(repo)

	w := testutil.PerformRequest(e, http.MethodPost, "/api/users/bulk-create", newUsers(1), nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email already exists", decode(t, w.Body.Bytes())["message"])
}

func TestBulkCreateStoreFailure(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("InsertMany", mock.Anything, mock.Anything).
		Return(nil, &model.Failure{Kind: model.StoreFailure, Err: errors.New("server selection error")})
	e := testutil.SetupServer(repo)

	w := testutil.PerformRequest(e, http.MethodPost, "/api/users/bulk-create", newUsers(1), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w.Body.Bytes())
	assert.Equal(t, "Internal server error", resp["message"])
	assert.NotContains(t, w.Body.String(), "server selection")
}

func TestStoreFailureStatusMessage(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("InsertMany", mock.Anything, mock.Anything).Return(nil, &model.Failure{
		Kind:    model.StoreFailure,
		Status:  http.StatusGatewayTimeout,
		Message: "Database operation timed out",
		Err:     errors.New("context deadline exceeded"),
	}).Once()
	repo.On("InsertMany", mock.Anything, mock.Anything).Return(nil, &model.Failure{
		Kind:   model.StoreFailure,
		Status: http.StatusServiceUnavailable,
		Err:    errors.New("server selection error"),
	}).Once()
	e := testutil.SetupServer(repo)

	w := testutil.PerformRequest(e, http.MethodPost, "/api/users/bulk-create", newUsers(1), nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "Database operation timed out", decode(t, w.Body.Bytes())["message"])
	assert.NotContains(t, w.Body.String(), "deadline")

	w = testutil.PerformRequest(e, http.MethodPost, "/api/users/bulk-create", newUsers(1), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Service Unavailable", decode(t, w.Body.Bytes())["message"])
}

func TestBulkCreateRejectsBadBodies(t *testing.T) {
	e := testutil.SetupServer(new(testutil.MockUserRepository))

	cases := []struct {
		body string
		msg  string
	}{
		{"", "Request body must be an array of user objects"},
		{`"users"`, "Request body must be an array of user objects"},
		{`42`, "Request body must be an array of user objects"},
		{`[]`, "Array cannot be empty"},
		{`[{"fullName":`, "Invalid JSON body"},
	}
	for _, tc := range cases {
		w := testutil.PerformRawRequest(e, http.MethodPost, "/api/users/bulk-create", tc.body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.body)
		assert.Equal(t, tc.msg, decode(t, w.Body.Bytes())["message"], tc.body)
	}
}

func TestBulkCreateBodyTooLarge(t *testing.T) {
	e := testutil.SetupServer(new(testutil.MockUserRepository))

	body := `[{"fullName":"` + strings.Repeat("a", 2<<20) + `"}]`
	w := testutil.PerformRawRequest(e, http.MethodPost, "/api/users/bulk-create", body, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestBulkUpdateOK(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("BulkWrite", mock.Anything, mock.MatchedBy(func(models []mongo.WriteModel) bool {
		return len(models) == 1
	})).Return(&model.BulkWriteResult{BulkWriteCounts: model.BulkWriteCounts{Matched: 1, Modified: 1}}, nil)
	e := testutil.SetupServer(repo)

	ops := `[{"updateOne":{"filter":{"email":"user0@example.com"},"update":{"walletBalance":50}}}]`
	w := testutil.PerformRawRequest(e, http.MethodPut, "/api/users/bulk-update", ops, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w.Body.Bytes())
	assert.Equal(t, "Bulk update completed successfully", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["matched"])
	assert.EqualValues(t, 1, data["modified"])
	assert.EqualValues(t, 0, data["deletedCount"])
	repo.AssertExpectations(t)
}

func TestBulkUpdatePartial(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("BulkWrite", mock.Anything, mock.Anything).Return(&model.BulkWriteResult{
		BulkWriteCounts: model.BulkWriteCounts{Matched: 1, Modified: 1},
		Failures:        []model.ItemFailure{},
	}, nil)
	e := testutil.SetupServer(repo)

	ops := `[{"updateOne":{"filter":{"email":"a@x.com"},"update":{"isBlocked":true}}},{"dropAll":{}}]`
	w := testutil.PerformRawRequest(e, http.MethodPut, "/api/users/bulk-update", ops, nil)

	assert.Equal(t, http.StatusMultiStatus, w.Code)
	resp := decode(t, w.Body.Bytes())
	assert.Equal(t, "Partial bulk update - some operations failed", resp["message"])
	assert.EqualValues(t, 1, resp["data"].(map[string]interface{})["matched"])
	item := resp["errors"].([]interface{})[0].(map[string]interface{})
	assert.EqualValues(t, 1, item["index"])
	assert.Equal(t, `unsupported bulk operation "dropAll"`, item["errmsg"])
}

func TestBulkUpdateRejectsBadBodies(t *testing.T) {
	e := testutil.SetupServer(new(testutil.MockUserRepository))

	cases := []struct {
		body string
		msg  string
	}{
		{"", "Request body must be an array of update operations"},
		{`{"updateOne":{"filter":{},"update":{"a":1}}}`, "Request body must be an array of update operations"},
		{`[]`, "Operations array cannot be empty"},
		{`[{}]`, "Validation error"},
	}
	for _, tc := range cases {
		w := testutil.PerformRawRequest(e, http.MethodPut, "/api/users/bulk-update", tc.body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.body)
		assert.Equal(t, tc.msg, decode(t, w.Body.Bytes())["message"], tc.body)
	}
}

func TestGetUsersPagination(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	page := []*model.User{{FullName: "Five"}, {FullName: "Six"}}
	repo.On("Find", mock.Anything, int64(5), int64(5)).Return(page, nil)
	repo.On("CountDocuments", mock.Anything).Return(int64(12), nil)
	e := testutil.SetupServer(repo)

	w := testutil.PerformRequest(e, http.MethodGet, "/api/users?page=2&limit=5", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w.Body.Bytes())
	assert.Len(t, resp["data"], 2)
	p := resp["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, p["currentPage"])
	assert.EqualValues(t, 5, p["limit"])
	assert.EqualValues(t, 12, p["total"])
	assert.EqualValues(t, 3, p["pages"])
	repo.AssertExpectations(t)
}

func TestGetUsersDefaultsAndCap(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("Find", mock.Anything, int64(0), int64(10)).Return([]*model.User{}, nil).Once()
	repo.On("Find", mock.Anything, int64(0), int64(testutil.MaxPageLimit)).Return([]*model.User{}, nil).Once()
	repo.On("CountDocuments", mock.Anything).Return(int64(0), nil)
	e := testutil.SetupServer(repo)

	w := testutil.PerformRequest(e, http.MethodGet, "/api/users", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w.Body.Bytes())
	assert.EqualValues(t, 1, resp["pagination"].(map[string]interface{})["currentPage"])
	assert.EqualValues(t, 0, resp["pagination"].(map[string]interface{})["pages"])

	w = testutil.PerformRequest(e, http.MethodGet, "/api/users/?limit=100000", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, testutil.MaxPageLimit, decode(t, w.Body.Bytes())["pagination"].(map[string]interface{})["limit"])
	repo.AssertExpectations(t)
}

func TestGetUsersBadQuery(t *testing.T) {
	e := testutil.SetupServer(new(testutil.MockUserRepository))

	w := testutil.PerformRequest(e, http.MethodGet, "/api/users?page=two", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "page and limit must be integers", decode(t, w.Body.Bytes())["message"])
}

func TestGetUsersPageOutOfRange(t *testing.T) {
	e := testutil.SetupServer(new(testutil.MockUserRepository))

	w := testutil.PerformRequest(e, http.MethodGet, "/api/users?page=922337203685477582&limit=10", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "page is out of range", decode(t, w.Body.Bytes())["message"])
}

func TestGetUserByID(t *testing.T) {
	id := primitive.NewObjectID()
	repo := new(testutil.MockUserRepository)
	repo.On("FindByID", mock.Anything, id.Hex()).Return(&model.User{ID: id, FullName: "Ada", Password: "hash"}, nil)
	repo.On("FindByID", mock.Anything, "65a1b2c3d4e5f60718293a4b").Return(nil, nil)
	repo.On("FindByID", mock.Anything, "xyz").Return(nil, model.NewCastFailure(primitive.ErrInvalidHex))
	e := testutil.SetupServer(repo)

	w := testutil.PerformRequest(e, http.MethodGet, "/api/users/"+id.Hex(), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w.Body.Bytes())["data"].(map[string]interface{})
	assert.Equal(t, id.Hex(), data["_id"])
	assert.NotContains(t, data, "password")

	w = testutil.PerformRequest(e, http.MethodGet, "/api/users/65a1b2c3d4e5f60718293a4b", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decode(t, w.Body.Bytes())["message"])

	w = testutil.PerformRequest(e, http.MethodGet, "/api/users/xyz", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid ID format", decode(t, w.Body.Bytes())["message"])
}

func TestRouteNotFound(t *testing.T) {
	e := testutil.SetupServer(new(testutil.MockUserRepository))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/nothing"},
		{http.MethodDelete, "/api/users/bulk-create"},
	} {
		w := testutil.PerformRequest(e, tc.method, tc.path, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
		resp := decode(t, w.Body.Bytes())
		assert.Equal(t, "Route not found", resp["message"])
		assert.Equal(t, false, resp["success"])
	}
}

func TestHealth(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("Ping", mock.Anything).Return(nil).Once()
	repo.On("Ping", mock.Anything).Return(errors.New("no reachable servers")).Once()
	e := testutil.SetupServer(repo)

	w := testutil.PerformRequest(e, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w.Body.Bytes())["message"])

	w = testutil.PerformRequest(e, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Database unavailable", decode(t, w.Body.Bytes())["message"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("Ping", mock.Anything).Return(nil)
	e := testutil.SetupServer(repo)

	w := testutil.PerformRequest(e, http.MethodGet, "/health", nil, map[string]string{"X-Request-Id": "req-123"})
	assert.Equal(t, "req-123", w.Header().Get("X-Request-Id"))
}
