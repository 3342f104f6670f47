package http

import (
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/setrow/taskboard-backend/internal/auth"
	"github.com/setrow/taskboard-backend/internal/core/domain"
	apperrors "github.com/setrow/taskboard-backend/internal/core/errors"
	"github.com/setrow/taskboard-backend/internal/core/mocks"
	"github.com/setrow/taskboard-backend/internal/core/services"
)

func newAuthRouter(t *testing.T) (*chi.Mux, *mocks.MockUserRepository, *auth.TokenManager) {
	t.Helper()

	userRepo := mocks.NewMockUserRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := NewErrorHandler(logger)
	authService := services.NewAuthService(userRepo)
	tokenManager := auth.NewTokenManager("test-secret", time.Hour)
	handler := NewAuthHandler(authService, tokenManager, errorHandler, logger)

	router := chi.NewRouter()
	router.Route("/auth", handler.RegisterRoutes)

	return router, userRepo, tokenManager
}

func TestAuthHandler_Register(t *testing.T) {
	router, userRepo, tokenManager := newAuthRouter(t)

	userRepo.On("GetByUsername", mock.Anything, "alice").Return(nil, apperrors.ErrUserNotFound)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Return(&domain.User{ID: 1, Username: "alice", CreatedAt: time.Now().UTC()}, nil)

	req := httptest.NewRequest(stdhttp.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"alice","password":"secret"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusCreated, recorder.Code)

	var response TokenResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, int64(1), response.User.ID)
	assert.Equal(t, "alice", response.User.Username)
	require.NotEmpty(t, response.Token)

	claims, err := tokenManager.ValidateToken(response.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	router, userRepo, _ := newAuthRouter(t)

	userRepo.On("GetByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 1, Username: "alice"}, nil)

	req := httptest.NewRequest(stdhttp.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"alice","password":"secret"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusConflict, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "USER_EXISTS", response.Code)
}

func TestAuthHandler_Register_ShortPassword(t *testing.T) {
	router, userRepo, _ := newAuthRouter(t)

	req := httptest.NewRequest(stdhttp.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"alice","password":"abc"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)

	var response ValidationErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Contains(t, response.Fields, "password")

	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthHandler_Login(t *testing.T) {
	router, userRepo, _ := newAuthRouter(t)

	hash, err := domain.HashPassword("secret")
	require.NoError(t, err)
	userRepo.On("GetByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 1, Username: "alice", PasswordHash: hash}, nil)

	req := httptest.NewRequest(stdhttp.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"alice","password":"secret"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response TokenResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.NotEmpty(t, response.Token)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	router, userRepo, _ := newAuthRouter(t)

	hash, err := domain.HashPassword("secret")
	require.NoError(t, err)
	userRepo.On("GetByUsername", mock.Anything, "alice").
		Return(&domain.User{ID: 1, Username: "alice", PasswordHash: hash}, nil)

	req := httptest.NewRequest(stdhttp.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"alice","password":"wrong"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "INVALID_CREDENTIALS", response.Code)
}

func TestAuthHandler_Login_UnknownUser(t *testing.T) {
	router, userRepo, _ := newAuthRouter(t)

	userRepo.On("GetByUsername", mock.Anything, "ghost").Return(nil, apperrors.ErrUserNotFound)

	req := httptest.NewRequest(stdhttp.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"ghost","password":"whatever"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	// Same response as a wrong password, so usernames cannot be probed
	require.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
}

func TestAuthHandler_Register_BadBody(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	req := httptest.NewRequest(stdhttp.MethodPost, "/auth/register", strings.NewReader(`{nope`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
}
