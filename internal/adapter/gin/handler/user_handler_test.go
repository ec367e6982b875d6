package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	usecase "user-crud-service/internal/usecase/user"
	pkgerrors "user-crud-service/pkg/errors"
)

const testID = "65a1f0c2b4d3e2f1a0b9c8d7"

// MockUserUsecase is a mock implementation of user.UserUsecase
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) CreateUser(ctx context.Context, req usecase.CreateUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) GetUser(ctx context.Context, req usecase.GetUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) UpdateUser(ctx context.Context, req usecase.UpdateUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) DeleteUser(ctx context.Context, req usecase.DeleteUserRequest) (*usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.User), args.Error(1)
}

func (m *MockUserUsecase) ListUsers(ctx context.Context, req usecase.ListUsersRequest) ([]usecase.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]usecase.User), args.Error(1)
}

func setupTest(t *testing.T) (*gin.Engine, *MockUserUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockUserUsecase)
	h := NewUserHandler(mockUsecase, zaptest.NewLogger(t))

	r := gin.New()
	r.GET("/users", h.ListUsers)
	r.POST("/users", h.CreateUser)
	r.GET("/users/:id", h.GetUser)
	r.PUT("/users/:id", h.UpdateUser)
	r.DELETE("/users/:id", h.DeleteUser)
	return r, mockUsecase
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func strPtr(s string) *string { return &s }

func alice() *usecase.User {
	return &usecase.User{ID: testID, Name: "Alice", Email: "alice@example.com"}
}

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, usecase.CreateUserRequest{
			Name:  strPtr("Alice"),
			Email: strPtr("alice@example.com"),
		}).Return(alice(), nil)

		w := perform(r, http.MethodPost, "/users", `{"name":"Alice","email":"alice@example.com"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, testID, data["_id"])
		assert.Equal(t, "Alice", data["name"])
		assert.Equal(t, "alice@example.com", data["email"])
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Missing fields are passed as nil", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, usecase.CreateUserRequest{}).
			Return(nil, pkgerrors.NewValidationError("invalid user fields",
				pkgerrors.FieldViolation{Field: "name", Message: "name is required"},
				pkgerrors.FieldViolation{Field: "email", Message: "email is required"}))

		w := perform(r, http.MethodPost, "/users", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "validation_error", body["error"])
		assert.Len(t, body["fields"], 2)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := perform(r, http.MethodPost, "/users", `{"name":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decode(t, w)["error"])
		mockUsecase.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("Wrong field type", func(t *testing.T) {
		r, _ := setupTest(t)

		w := perform(r, http.MethodPost, "/users", `{"name":42,"email":"a@b.co"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Storage error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, pkgerrors.NewInternalError("failed to create user", errors.New("connection refused")))

		w := perform(r, http.MethodPost, "/users", `{"name":"Alice","email":"alice@example.com"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "internal_error", body["error"])
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestGetUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: testID}).Return(alice(), nil)

		w := perform(r, http.MethodGet, "/users/"+testID, "")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, testID, data["_id"])
	})

	t.Run("Invalid ID", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: "invalid}"}).
			Return(nil, pkgerrors.NewValidationError("invalid user id",
				pkgerrors.FieldViolation{Field: "id", Message: "invalid id"}))

		w := perform(r, http.MethodGet, "/users/invalid}", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decode(t, w)["error"])
	})

	t.Run("Not found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, mock.Anything).
			Return(nil, pkgerrors.NewNotFoundError("user", "user not found: id="+testID))

		w := perform(r, http.MethodGet, "/users/"+testID, "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decode(t, w)
		assert.Equal(t, "not_found", body["error"])
		assert.Equal(t, "user not found", body["message"])
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{
			ID:    testID,
			Name:  strPtr("Alicia"),
			Email: strPtr("alicia@example.com"),
		}).Return(&usecase.User{ID: testID, Name: "Alicia", Email: "alicia@example.com"}, nil)

		w := perform(r, http.MethodPut, "/users/"+testID, `{"name":"Alicia","email":"alicia@example.com"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, "Alicia", data["name"])
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Empty body reaches usecase", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{ID: testID}).
			Return(nil, pkgerrors.NewNotFoundError("user", ""))

		w := perform(r, http.MethodPut, "/users/"+testID, "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := perform(r, http.MethodPut, "/users/"+testID, `[1,2]`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUsecase.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: testID}).Return(alice(), nil)

		w := perform(r, http.MethodDelete, "/users/"+testID, "")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, testID, data["_id"])
	})

	t.Run("Not found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, mock.Anything).Return(nil, pkgerrors.NewNotFoundError("user", ""))

		w := perform(r, http.MethodDelete, "/users/"+testID, "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListUsers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything, usecase.ListUsersRequest{}).
			Return([]usecase.User{*alice(), {ID: "65a1f0c2b4d3e2f1a0b9c8d8", Name: "Bob", Email: "bob@example.com"}}, nil)

		w := perform(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].([]any)
		require.Len(t, data, 2)
		assert.Equal(t, testID, data[0].(map[string]any)["_id"])
	})

	t.Run("Empty list is an array", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything, mock.Anything).Return([]usecase.User{}, nil)

		w := perform(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":[]}`, w.Body.String())
	})

	t.Run("Filter", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything, usecase.ListUsersRequest{Name: "Alice", Email: "alice@example.com"}).
			Return([]usecase.User{*alice()}, nil)

		w := perform(r, http.MethodGet, "/users?name=Alice&email=alice@example.com", "")

		assert.Equal(t, http.StatusOK, w.Code)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Storage error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything, mock.Anything).
			Return(nil, pkgerrors.NewInternalError("failed to list users", errors.New("boom")))

		w := perform(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
