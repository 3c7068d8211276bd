package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/maynagashev/passvault/internal/middleware"
	"github.com/maynagashev/passvault/internal/models"
	"github.com/maynagashev/passvault/internal/services"
)

// AuthHandler обрабатывает HTTP-запросы, связанные с аутентификацией.
type AuthHandler struct {
	service services.AuthService // Зависимость от интерфейса, а не конкретной реализации
}

// NewAuthHandler создает новый экземпляр AuthHandler.
func NewAuthHandler(s services.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// TokenResponse — ответ с выданным токеном сессии.
type TokenResponse struct {
	Response
	Token string `json:"token"`
}

// RequestOTP обрабатывает запрос кода подтверждения для регистрации.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[AuthHandler] Ошибка декодирования запроса кода: %v", err)
		respondError(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email is required.")
		return
	}

	if err := h.service.RequestRegistrationOTP(req.Email); err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			respondError(w, http.StatusConflict, "Email already in use. Please try logging in.")
			return
		}
		log.Printf("[AuthHandler] Ошибка отправки кода регистрации для '%s': %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	respondSuccess(w, "OTP sent successfully to "+req.Email)
}

// Register обрабатывает запрос на регистрацию нового пользователя (с кодом OTP).
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	// Декодируем JSON из тела запроса
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[AuthHandler] Ошибка декодирования запроса регистрации: %v", err)
		respondError(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	// Валидация входных данных (отчество необязательно)
	if req.Firstname == "" || req.Lastname == "" || req.Email == "" || req.Password == "" || req.OTP == "" {
		respondError(w, http.StatusBadRequest, "All fields including OTP are required.")
		return
	}

	log.Printf("[AuthHandler] Попытка регистрации пользователя: %s", req.Email)

	token, err := h.service.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOTPInvalid):
			respondError(w, http.StatusBadRequest, "Invalid OTP. Please try again.")
		case errors.Is(err, services.ErrOTPExpired):
			respondError(w, http.StatusBadRequest, "OTP has expired. Please request a new one.")
		case errors.Is(err, services.ErrEmailTaken):
			respondError(w, http.StatusConflict, "Email already in use.")
		default:
			log.Printf("[AuthHandler] Ошибка регистрации '%s': %v", req.Email, err)
			respondError(w, http.StatusInternalServerError, "An error occurred during registration.")
		}
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{
		Response: Response{Success: true, Message: "Registration successful!"},
		Token:    token,
	})
	log.Printf("[AuthHandler] Успешная регистрация: %s", req.Email)
}

// Login обрабатывает запрос на вход пользователя.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	// Декодируем JSON из тела запроса
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[AuthHandler] Ошибка декодирования запроса входа: %v", err)
		respondError(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	log.Printf("[AuthHandler] Попытка входа пользователя: %s", req.Email)

	token, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials!")
			return
		}
		log.Printf("[AuthHandler] Ошибка входа '%s': %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "An error occurred during login.")
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{
		Response: Response{Success: true, Message: "Login successful!"},
		Token:    token,
	})
	log.Printf("[AuthHandler] Успешный вход: %s", req.Email)
}

// Logout обрабатывает выход: сбрасывает токен текущей сессии.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[AuthHandler:Logout] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred during logout.")
		return
	}

	if err := h.service.Logout(userID); err != nil {
		log.Printf("[AuthHandler:Logout] Ошибка выхода пользователя %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "An error occurred during logout.")
		return
	}

	respondSuccess(w, "Logout successful!")
}

// RequestPasswordResetOTP обрабатывает запрос кода для сброса пароля.
func (h *AuthHandler) RequestPasswordResetOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email is required.")
		return
	}

	if err := h.service.RequestPasswordResetOTP(req.Email); err != nil {
		if errors.Is(err, services.ErrEmailNotFound) {
			respondError(w, http.StatusNotFound, "Email not found.")
			return
		}
		log.Printf("[AuthHandler] Ошибка отправки кода сброса для '%s': %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "Failed to send password reset OTP.")
		return
	}

	respondSuccess(w, "Password reset OTP sent successfully to "+req.Email)
}

// VerifyPasswordResetOTP обрабатывает проверку кода перед сбросом пароля.
func (h *AuthHandler) VerifyPasswordResetOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	if req.Email == "" || req.OTP == "" {
		respondError(w, http.StatusBadRequest, "Email and OTP are required.")
		return
	}

	if err := h.service.VerifyPasswordResetOTP(req.Email, req.OTP); err != nil {
		if errors.Is(err, services.ErrOTPInvalid) || errors.Is(err, services.ErrOTPExpired) {
			respondError(w, http.StatusBadRequest, "Invalid or expired OTP.")
			return
		}
		log.Printf("[AuthHandler] Ошибка проверки кода сброса для '%s': %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	respondSuccess(w, "OTP verified successfully. You can now reset your password.")
}

// ResetPassword обрабатывает установку нового пароля после проверки кода.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	if req.Email == "" || req.NewPassword == "" || req.ConfirmNewPassword == "" {
		respondError(w, http.StatusBadRequest, "All fields are required.")
		return
	}
	if req.NewPassword != req.ConfirmNewPassword {
		respondError(w, http.StatusBadRequest, "New password and confirm password do not match.")
		return
	}

	if err := h.service.ResetPassword(req.Email, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrEmailNotFound) {
			respondError(w, http.StatusNotFound, "Email not found.")
			return
		}
		log.Printf("[AuthHandler] Ошибка сброса пароля для '%s': %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "An error occurred while resetting password.")
		return
	}

	respondSuccess(w, "Password has been reset successfully! Please log in with your new password.")
}
