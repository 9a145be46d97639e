package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	handlers "storyhub/internal/handler"
	"storyhub/internal/models"
	"storyhub/internal/repository"
	"storyhub/internal/service"
)

func jsonRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()

	data, err := json.Marshal(body)
	assert.NoError(t, err)
	req := httptest.NewRequest(method, url, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegisterHandler_Success(t *testing.T) {
	// Arrange
	handler, m := createTestHandler()
	user := &models.User{UserID: "user-123", Email: "test@example.com", DisplayName: "test", Role: models.RoleAuthor}

	m.auth.On("Register", mock.Anything, repository.CreateUserRequest{
		Email:    "test@example.com",
		Password: "password123",
	}).Return(user, nil)
	m.auth.On("Login", mock.Anything, "test@example.com", "password123").
		Return(user, "access-token-123", "refresh-token-123", nil)

	req := jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"email":    "test@example.com",
		"password": "password123",
	})
	rr := httptest.NewRecorder()

	// Act
	handler.Register(rr, req)

	// Assert
	assert.Equal(t, http.StatusCreated, rr.Code)

	response := decodeBody[map[string]interface{}](t, rr)
	assert.Equal(t, "access-token-123", response["accessToken"])
	assert.Equal(t, "refresh-token-123", response["refreshToken"])

	userData, ok := response["user"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "user-123", userData["uid"])
	assert.Equal(t, "author", userData["role"])
	assert.NotContains(t, userData, "passwordHash")

	m.auth.AssertExpectations(t)
}

func TestRegisterHandler_Errors(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		mockSetup      func(*MockAuthService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Неверный email",
			body:           map[string]string{"email": "invalid-email", "password": "password123"},
			mockSetup:      func(*MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Email",
		},
		{
			name:           "Короткий пароль",
			body:           map[string]string{"email": "test@example.com", "password": "123"},
			mockSetup:      func(*MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Password",
		},
		{
			name:           "Неверный JSON",
			body:           "не объект",
			mockSetup:      func(*MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Неверный формат запроса",
		},
		{
			name: "Email уже занят",
			body: map[string]string{"email": "taken@example.com", "password": "password123"},
			mockSetup: func(auth *MockAuthService) {
				auth.On("Register", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("регистрация: %w", repository.ErrEmailTaken))
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "Email уже существует",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, m := createTestHandler()
			tt.mockSetup(m.auth)

			rr := httptest.NewRecorder()
			handler.Register(rr, jsonRequest(t, http.MethodPost, "/api/auth/register", tt.body))

			assertJSONError(t, rr, tt.expectedStatus, tt.expectedError)
			m.auth.AssertExpectations(t)
		})
	}
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func(*MockAuthService)
		expectedStatus int
	}{
		{
			name: "Успешный вход",
			body: map[string]string{"email": "test@example.com", "password": "password123"},
			mockSetup: func(auth *MockAuthService) {
				auth.On("Login", mock.Anything, "test@example.com", "password123").
					Return(&models.User{UserID: "user-123", Email: "test@example.com"}, "access", "refresh", nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Неверный пароль",
			body: map[string]string{"email": "test@example.com", "password": "wrong"},
			mockSetup: func(auth *MockAuthService) {
				auth.On("Login", mock.Anything, "test@example.com", "wrong").
					Return(nil, "", "", service.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Нет пароля",
			body:           map[string]string{"email": "test@example.com"},
			mockSetup:      func(*MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, m := createTestHandler()
			tt.mockSetup(m.auth)

			rr := httptest.NewRecorder()
			handler.Login(rr, jsonRequest(t, http.MethodPost, "/api/auth/login", tt.body))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				response := decodeBody[handlers.AuthResponse](t, rr)
				assert.Equal(t, "access", response.AccessToken)
				assert.Equal(t, "refresh", response.RefreshToken)
			}
			m.auth.AssertExpectations(t)
		})
	}
}

func TestRefreshTokenHandler(t *testing.T) {
	t.Run("Токен обновлен", func(t *testing.T) {
		handler, m := createTestHandler()
		m.auth.On("RefreshTokens", mock.Anything, "old-refresh").
			Return(&models.User{UserID: "user-123"}, "new-access", "new-refresh", nil)

		rr := httptest.NewRecorder()
		handler.RefreshToken(rr, jsonRequest(t, http.MethodPost, "/api/auth/refresh-token", map[string]string{"refreshToken": "old-refresh"}))

		assert.Equal(t, http.StatusOK, rr.Code)
		response := decodeBody[handlers.AuthResponse](t, rr)
		assert.Equal(t, "new-refresh", response.RefreshToken)
	})

	t.Run("Токен истек", func(t *testing.T) {
		handler, m := createTestHandler()
		m.auth.On("RefreshTokens", mock.Anything, "stale").
			Return(nil, "", "", service.ErrInvalidToken)

		rr := httptest.NewRecorder()
		handler.RefreshToken(rr, jsonRequest(t, http.MethodPost, "/api/auth/refresh-token", map[string]string{"refreshToken": "stale"}))

		assertJSONError(t, rr, http.StatusUnauthorized, "Refresh Token")
	})

	t.Run("Отсутствует токен", func(t *testing.T) {
		handler, _ := createTestHandler()

		rr := httptest.NewRecorder()
		handler.RefreshToken(rr, jsonRequest(t, http.MethodPost, "/api/auth/refresh-token", map[string]string{}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetCurrentUserHandler(t *testing.T) {
	tests := []struct {
		name           string
		authenticated  bool
		mockSetup      func(*MockUserService)
		expectedStatus int
	}{
		{
			name:          "Успешное получение текущего пользователя",
			authenticated: true,
			mockSetup: func(users *MockUserService) {
				users.On("GetUser", mock.Anything, author.UserID).
					Return(&models.User{UserID: author.UserID, Email: author.Email, Role: models.RoleAuthor}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Пользователь не аутентифицирован",
			mockSetup:      func(*MockUserService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:          "Пользователь не найден",
			authenticated: true,
			mockSetup: func(users *MockUserService) {
				users.On("GetUser", mock.Anything, author.UserID).Return(nil, repository.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, m := createTestHandler()
			tt.mockSetup(m.users)

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.authenticated {
				req = withActor(req, author)
			}
			rr := httptest.NewRecorder()

			handler.GetCurrentUser(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			m.users.AssertExpectations(t)
		})
	}
}
