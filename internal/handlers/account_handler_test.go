package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/passvault/internal/handlers"
	"github.com/maynagashev/passvault/internal/models"
	"github.com/maynagashev/passvault/internal/services"
	"github.com/maynagashev/passvault/internal/storage"
	"github.com/maynagashev/passvault/internal/upload"
)

// --- Mock AccountService --- //

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(userID int64, site, username, password, image string) (int64, error) {
	args := m.Called(userID, site, username, password, image)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountService) GetAccounts(userID int64) ([]models.Account, error) {
	args := m.Called(userID)
	var accounts []models.Account
	if a, ok := args.Get(0).([]models.Account); ok {
		accounts = a
	}
	return accounts, args.Error(1)
}

func (m *MockAccountService) UpdateAccount(userID, accountID int64, site, username, password, image string) error {
	args := m.Called(userID, accountID, site, username, password, image)
	return args.Error(0)
}

func (m *MockAccountService) DeleteAccount(userID, accountID int64) error {
	args := m.Called(userID, accountID)
	return args.Error(0)
}

// --- Вспомогательные функции --- //

func setupAccountRouter(h *handlers.AccountHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/accounts", h.CreateAccount)
	r.Get("/accounts", h.GetAccounts)
	r.Put("/accounts/{id}", h.UpdateAccount)
	r.Delete("/accounts/{id}", h.DeleteAccount)
	return r
}

func newAccountHandler(as services.AccountService, fs storage.FileStorage) *handlers.AccountHandler {
	return handlers.NewAccountHandler(as, fs, upload.NewParser(true))
}

var accountFormFields = map[string]string{
	"site":     "https://example.com",
	"username": "ivan",
	"password": "secret123",
}

// --- Tests --- //

func TestNewAccountHandler(t *testing.T) {
	h := newAccountHandler(new(MockAccountService), &fakeFileStorage{})
	assert.NotNil(t, h)
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	pngData := []byte("\x89PNG fake image data")

	t.Run("Создание без картинки подставляет заглушку", func(t *testing.T) {
		mockService := new(MockAccountService)
		mockService.On("CreateAccount", int64(42), "https://example.com", "ivan", "secret123", services.DefaultAccountImage).
			Return(int64(7), nil).Once()

		h := newAccountHandler(mockService, &fakeFileStorage{})
		r := setupAccountRouter(h)

		body, contentType := multipartBody(t, accountFormFields, "", "", "", nil)
		req := httptest.NewRequest(http.MethodPost, "/accounts", body)
		req.Header.Set("Content-Type", contentType)
		req = authedRequest(req, 42, "ivan@example.com")

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Account created successfully!")

		var resp handlers.CreateAccountResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, int64(7), resp.AccountID)
		mockService.AssertExpectations(t)
	})

	t.Run("Создание с картинкой сохраняет файл", func(t *testing.T) {
		fs := &fakeFileStorage{ref: "images/accounts/logo.png"}
		mockService := new(MockAccountService)
		mockService.On("CreateAccount", int64(42), "https://example.com", "ivan", "secret123", "images/accounts/logo.png").
			Return(int64(8), nil).Once()

		h := newAccountHandler(mockService, fs)
		r := setupAccountRouter(h)

		body, contentType := multipartBody(t, accountFormFields, "image", "logo.png", "image/png", pngData)
		req := httptest.NewRequest(http.MethodPost, "/accounts", body)
		req.Header.Set("Content-Type", contentType)
		req = authedRequest(req, 42, "ivan@example.com")

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, fs.stored)
		assert.Zero(t, fs.discarded)
		mockService.AssertExpectations(t)
	})

	t.Run("Не все поля заполнены", func(t *testing.T) {
		mockService := new(MockAccountService)
		h := newAccountHandler(mockService, &fakeFileStorage{})
		r := setupAccountRouter(h)

		body, contentType := multipartBody(t, map[string]string{"site": "https://example.com"}, "", "", "", nil)
		req := httptest.NewRequest(http.MethodPost, "/accounts", body)
		req.Header.Set("Content-Type", contentType)
		req = authedRequest(req, 42, "ivan@example.com")

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Site, username, and password are required.")
		mockService.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Недопустимый тип файла", func(t *testing.T) {
		mockService := new(MockAccountService)
		h := newAccountHandler(mockService, &fakeFileStorage{})
		r := setupAccountRouter(h)

		body, contentType := multipartBody(t, accountFormFields, "image", "virus.exe", "application/octet-stream", []byte("binary"))
		req := httptest.NewRequest(http.MethodPost, "/accounts", body)
		req.Header.Set("Content-Type", contentType)
		req = authedRequest(req, 42, "ivan@example.com")

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Only images (jpeg, jpg, png, gif) are allowed!")
	})

	t.Run("Файл больше лимита", func(t *testing.T) {
		mockService := new(MockAccountService)
		h := newAccountHandler(mockService, &fakeFileStorage{})
		r := setupAccountRouter(h)

		oversize := bytes.Repeat([]byte("a"), upload.MaxFileSize+1)
		body, contentType := multipartBody(t, accountFormFields, "image", "big.png", "image/png", oversize)
		req := httptest.NewRequest(http.MethodPost, "/accounts", body)
		req.Header.Set("Content-Type", contentType)
		req = authedRequest(req, 42, "ivan@example.com")

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "File exceeds the 5 MB size limit.")
		mockService.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Ошибка обработки файла в хранилище", func(t *testing.T) {
		fs := &fakeFileStorage{storeErr: storage.ErrFileProcessing}
		mockService := new(MockAccountService)
		h := newAccountHandler(mockService, fs)
		r := setupAccountRouter(h)

		body, contentType := multipartBody(t, accountFormFields, "image", "logo.png", "image/png", pngData)
		req := httptest.NewRequest(http.MethodPost, "/accounts", body)
		req.Header.Set("Content-Type", contentType)
		req = authedRequest(req, 42, "ivan@example.com")

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "Error processing uploaded file. Please try again or contact support.")
		mockService.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Файл откатывается при ошибке записи в БД", func(t *testing.T) {
		fs := &fakeFileStorage{ref: "images/accounts/logo.png"}
		mockService := new(MockAccountService)
		mockService.On("CreateAccount", int64(42), "https://example.com", "ivan", "secret123", "images/accounts/logo.png").
			Return(int64(0), errors.New("db error")).Once()

		h := newAccountHandler(mockService, fs)
		r := setupAccountRouter(h)

		body, contentType := multipartBody(t, accountFormFields, "image", "logo.png", "image/png", pngData)
		req := httptest.NewRequest(http.MethodPost, "/accounts", body)
		req.Header.Set("Content-Type", contentType)
		req = authedRequest(req, 42, "ivan@example.com")

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "Error creating account.")
		assert.Equal(t, 1, fs.discarded, "файл должен быть удален после сбоя записи в БД")
		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_GetAccounts(t *testing.T) {
	accounts := []models.Account{
		{ID: 1, Site: "https://example.com", Username: "ivan", Password: "secret", Image: "images/default.png"},
		{ID: 2, Site: "https://other.com", Username: "ivan2", Password: "secret2", Image: "images/accounts/logo.png"},
	}

	tests := []struct {
		name           string
		mockAccounts   []models.Account
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Успешное получение списка",
			mockAccounts:   accounts,
			expectedStatus: http.StatusOK,
			expectedBody:   "Accounts retrieved successfully!",
		},
		{
			name:           "Пустой список",
			mockAccounts:   []models.Account{},
			expectedStatus: http.StatusOK,
			expectedBody:   `"accounts":[]`,
		},
		{
			name:           "Ошибка чтения",
			mockError:      errors.New("db error"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Error reading accounts.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAccountService)
			mockService.On("GetAccounts", int64(42)).Return(tt.mockAccounts, tt.mockError).Once()

			h := newAccountHandler(mockService, &fakeFileStorage{})
			r := setupAccountRouter(h)

			req := authedRequest(httptest.NewRequest(http.MethodGet, "/accounts", http.NoBody), 42, "ivan@example.com")
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)

			if tt.expectedStatus == http.StatusOK && len(tt.mockAccounts) > 0 {
				var resp handlers.AccountsResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Len(t, resp.Accounts, len(tt.mockAccounts))
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestAccountHandler_UpdateAccount(t *testing.T) {
	pngData := []byte("\x89PNG fake image data")

	t.Run("Обновление без файла сохраняет текущую картинку", func(t *testing.T) {
		fields := map[string]string{
			"site":         "https://example.com",
			"username":     "ivan",
			"password":     "secret123",
			"currentImage": "images/accounts/old.png",
		}
		mockService := new(MockAccountService)
		mockService.On("UpdateAccount", int64(42), int64(7), "https://example.com", "ivan", "secret123", "images/accounts/old.png").
			Return(nil).Once()

		h := newAccountHandler(mockService, &fakeFileStorage{})
		r := setupAccountRouter(h)

		body, contentType := multipartBody(t, fields, "", "", "", nil)
		req := httptest.NewRequest(http.MethodPut, "/accounts/7", body)
		req.Header.Set("Content-Type", contentType)
		req = authedRequest(req, 42, "ivan@example.com")

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Account updated successfully!")

		var resp handlers.UpdateAccountResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "images/accounts/old.png", resp.Image)
		mockService.AssertExpectations(t)
	})

	t.Run("Новый файл заменяет картинку", func(t *testing.T) {
		fs := &fakeFileStorage{ref: "images/accounts/new.png"}
		mockService := new(MockAccountService)
		mockService.On("UpdateAccount", int64(42), int64(7), "https://example.com", "ivan", "secret123", "images/accounts/new.png").
			Return(nil).Once()

		h := newAccountHandler(mockService, fs)
		r := setupAccountRouter(h)

		body, contentType := multipartBody(t, accountFormFields, "image", "new.png", "image/png", pngData)
		req := httptest.NewRequest(http.MethodPut, "/accounts/7", body)
		req.Header.Set("Content-Type", contentType)
		req = authedRequest(req, 42, "ivan@example.com")

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp handlers.UpdateAccountResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "images/accounts/new.png", resp.Image)
		mockService.AssertExpectations(t)
	})

	t.Run("Без файла и без currentImage подставляется заглушка", func(t *testing.T) {
		mockService := new(MockAccountService)
		mockService.On("UpdateAccount", int64(42), int64(7), "https://example.com", "ivan", "secret123", services.DefaultAccountImage).
			Return(nil).Once()

		h := newAccountHandler(mockService, &fakeFileStorage{})
		r := setupAccountRouter(h)

		body, contentType := multipartBody(t, accountFormFields, "", "", "", nil)
		req := httptest.NewRequest(http.MethodPut, "/accounts/7", body)
		req.Header.Set("Content-Type", contentType)
		req = authedRequest(req, 42, "ivan@example.com")

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Невалидный ID в пути", func(t *testing.T) {
		mockService := new(MockAccountService)
		h := newAccountHandler(mockService, &fakeFileStorage{})
		r := setupAccountRouter(h)

		body, contentType := multipartBody(t, accountFormFields, "", "", "", nil)
		req := httptest.NewRequest(http.MethodPut, "/accounts/abc", body)
		req.Header.Set("Content-Type", contentType)
		req = authedRequest(req, 42, "ivan@example.com")

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid account ID.")
	})

	t.Run("Чужая или несуществующая запись", func(t *testing.T) {
		mockService := new(MockAccountService)
		mockService.On("UpdateAccount", int64(42), int64(7), "https://example.com", "ivan", "secret123", services.DefaultAccountImage).
			Return(services.ErrAccountNotFound).Once()

		h := newAccountHandler(mockService, &fakeFileStorage{})
		r := setupAccountRouter(h)

		body, contentType := multipartBody(t, accountFormFields, "", "", "", nil)
		req := httptest.NewRequest(http.MethodPut, "/accounts/7", body)
		req.Header.Set("Content-Type", contentType)
		req = authedRequest(req, 42, "ivan@example.com")

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "Account not found or you do not have permission to update it.")
		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_DeleteAccount(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		mockCall       bool
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Успешное удаление",
			path:           "/accounts/7",
			mockCall:       true,
			expectedStatus: http.StatusOK,
			expectedBody:   "Account deleted successfully!",
		},
		{
			name:           "Невалидный ID в пути",
			path:           "/accounts/0",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Invalid account ID.",
		},
		{
			name:           "Чужая или несуществующая запись",
			path:           "/accounts/7",
			mockCall:       true,
			mockError:      services.ErrAccountNotFound,
			expectedStatus: http.StatusNotFound,
			expectedBody:   "Account not found or you do not have permission to delete it.",
		},
		{
			name:           "Внутренняя ошибка сервера",
			path:           "/accounts/7",
			mockCall:       true,
			mockError:      errors.New("db error"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Error deleting account.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAccountService)
			if tt.mockCall {
				mockService.On("DeleteAccount", int64(42), int64(7)).Return(tt.mockError).Once()
			}

			h := newAccountHandler(mockService, &fakeFileStorage{})
			r := setupAccountRouter(h)

			req := authedRequest(httptest.NewRequest(http.MethodDelete, tt.path, http.NoBody), 42, "ivan@example.com")
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
