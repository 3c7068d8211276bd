package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/maynagashev/passvault/internal/middleware"
	"github.com/maynagashev/passvault/internal/models"
	"github.com/maynagashev/passvault/internal/services"
	"github.com/maynagashev/passvault/internal/storage"
	"github.com/maynagashev/passvault/internal/upload"
)

// UserHandler обрабатывает HTTP-запросы к профилю пользователя.
type UserHandler struct {
	userService services.UserService
	fileStorage storage.FileStorage
	uploads     *upload.Parser
	baseURL     string // Базовый URL сервера для построения абсолютных ссылок
}

// NewUserHandler создает новый экземпляр UserHandler.
func NewUserHandler(us services.UserService, fs storage.FileStorage, up *upload.Parser, baseURL string) *UserHandler {
	return &UserHandler{userService: us, fileStorage: fs, uploads: up, baseURL: baseURL}
}

// userInfo — видимая клиенту часть профиля.
type userInfo struct {
	ID             int64   `json:"id"`
	Firstname      string  `json:"firstname"`
	Middlename     *string `json:"middlename"`
	Lastname       string  `json:"lastname"`
	Email          string  `json:"email"`
	ProfilePicture string  `json:"profilePicture"`
}

// UserInfoResponse — ответ с профилем пользователя.
type UserInfoResponse struct {
	Response
	User userInfo `json:"user"`
}

// ProfilePictureResponse — ответ со ссылкой на аватар.
type ProfilePictureResponse struct {
	Response
	ProfilePicture string `json:"profilepicture"`
}

// GetUserInfo обрабатывает GET запрос на профиль текущего пользователя.
func (h *UserHandler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[UserHandler:GetInfo] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	user, err := h.userService.GetUserInfo(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found.")
			return
		}
		log.Printf("[UserHandler:GetInfo] Ошибка получения профиля пользователя %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	respondJSON(w, http.StatusOK, UserInfoResponse{
		Response: Response{Success: true},
		User: userInfo{
			ID:             user.ID,
			Firstname:      user.Firstname,
			Middlename:     user.Middlename,
			Lastname:       user.Lastname,
			Email:          user.Email,
			ProfilePicture: user.ProfilePicture,
		},
	})
}

// UpdateUserInfo обрабатывает PUT запрос на обновление профиля.
// Пользователь может менять только свой профиль: id в пути должен совпадать
// с id сессии, иначе 403.
func (h *UserHandler) UpdateUserInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[UserHandler:UpdateInfo] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	pathID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || pathID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}

	if pathID != userID {
		log.Printf("[UserHandler:UpdateInfo] Пользователь %d пытался изменить профиль %d", userID, pathID)
		respondError(w, http.StatusForbidden, "Unauthorized to update this user.")
		return
	}

	var req models.UpdateUserRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	if req.Firstname == "" || req.Lastname == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "First name, last name, and email are required.")
		return
	}

	err = h.userService.UpdateUserInfo(userID, req.Firstname, req.Middlename, req.Lastname, req.Email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found or no changes made.")
			return
		}
		log.Printf("[UserHandler:UpdateInfo] Ошибка обновления профиля пользователя %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Error updating user information.")
		return
	}

	respondSuccess(w, "Account information updated successfully!")
}

// UploadProfilePicture обрабатывает POST запрос на загрузку аватара.
// В ответе — абсолютная ссылка: URL блоба как есть, либо BASE_URL + относительный путь.
func (h *UserHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[UserHandler:UploadPicture] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	file, err := h.uploads.FromRequest(r, "profilepicture")
	if err != nil {
		respondUploadError(w, err)
		return
	}
	if file == nil {
		respondError(w, http.StatusBadRequest, "No file uploaded.")
		return
	}

	stored, err := h.fileStorage.Store(r.Context(), file, "profiles")
	if err != nil {
		respondStorageError(w, err)
		return
	}

	// Файл откатывается, если ссылка не сохранилась в БД
	committed := false
	defer func() {
		if !committed {
			stored.Discard()
		}
	}()

	if err = h.userService.UpdateProfilePicture(userID, stored.Ref); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found or you do not have permission to update profile picture.")
			return
		}
		log.Printf("[UserHandler:UploadPicture] Ошибка сохранения аватара пользователя %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Error saving profile picture.")
		return
	}
	committed = true

	respondJSON(w, http.StatusOK, ProfilePictureResponse{
		Response:       Response{Success: true, Message: "Profile picture updated successfully!"},
		ProfilePicture: h.absoluteImageURL(stored.Ref),
	})
	log.Printf("[UserHandler:UploadPicture] Аватар пользователя %d обновлен: %s", userID, stored.Ref)
}

// GetProfilePicture обрабатывает GET запрос на ссылку аватара.
func (h *UserHandler) GetProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[UserHandler:GetPicture] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	picture, err := h.userService.GetProfilePicture(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found.")
			return
		}
		log.Printf("[UserHandler:GetPicture] Ошибка получения аватара пользователя %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	respondJSON(w, http.StatusOK, ProfilePictureResponse{
		Response:       Response{Success: true},
		ProfilePicture: picture,
	})
}

// VerifyCurrentPassword обрабатывает POST запрос на проверку текущего пароля.
// Операция не изменяет данные.
func (h *UserHandler) VerifyCurrentPassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[UserHandler:VerifyPassword] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	var req models.VerifyPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	if req.CurrentPassword == "" {
		respondError(w, http.StatusBadRequest, "Current password is required.")
		return
	}

	if err := h.userService.VerifyPassword(userID, req.CurrentPassword); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, services.ErrPasswordMismatch):
			respondError(w, http.StatusUnauthorized, "Current password does not match.")
		default:
			log.Printf("[UserHandler:VerifyPassword] Ошибка проверки пароля пользователя %d: %v", userID, err)
			respondError(w, http.StatusInternalServerError, "An error occurred during password comparison.")
		}
		return
	}

	respondSuccess(w, "Current password matches.")
}

// ChangePassword обрабатывает POST запрос на смену пароля.
// На каждый этап конвейера — свой статус и сообщение об ошибке.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[UserHandler:ChangePassword] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}
	email, _ := middleware.GetUserEmailFromContext(r.Context())

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmNewPassword == "" {
		respondError(w, http.StatusBadRequest, "All password fields are required.")
		return
	}
	if req.NewPassword != req.ConfirmNewPassword {
		respondError(w, http.StatusBadRequest, "New password and confirm password do not match.")
		return
	}

	token, err := h.userService.ChangePassword(userID, email, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondPasswordChangeError(w, userID, err)
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{
		Response: Response{Success: true, Message: "Password changed successfully!"},
		Token:    token,
	})
	log.Printf("[UserHandler:ChangePassword] Пароль пользователя %d изменен", userID)
}

// respondPasswordChangeError сопоставляет упавший этап смены пароля
// со статусом и сообщением ответа.
func respondPasswordChangeError(w http.ResponseWriter, userID int64, err error) {
	var stageErr *services.PasswordChangeError
	if !errors.As(err, &stageErr) {
		log.Printf("[UserHandler:ChangePassword] Непредвиденная ошибка смены пароля пользователя %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "An error occurred while changing password.")
		return
	}

	log.Printf("[UserHandler:ChangePassword] Смена пароля пользователя %d прервана на этапе %s: %v",
		userID, stageErr.Stage, stageErr.Err)

	switch stageErr.Stage {
	case services.StageVerify:
		if errors.Is(stageErr.Err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found.")
			return
		}
		respondError(w, http.StatusInternalServerError, "An error occurred while verifying current password.")
	case services.StageCompare:
		respondError(w, http.StatusUnauthorized, "Invalid current password.")
	case services.StageHash:
		respondError(w, http.StatusInternalServerError, "An error occurred during new password hashing.")
	case services.StageUpdate:
		respondError(w, http.StatusInternalServerError, "An error occurred while changing password.")
	case services.StageTokenIssue, services.StageTokenUpdate:
		respondError(w, http.StatusInternalServerError, "An error occurred while updating session.")
	default:
		respondError(w, http.StatusInternalServerError, "An error occurred while changing password.")
	}
}

// absoluteImageURL строит абсолютную ссылку на картинку: URL блоб-хранилища
// возвращается как есть, относительный путь дополняется базовым URL сервера.
func (h *UserHandler) absoluteImageURL(ref string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	return strings.TrimSuffix(h.baseURL, "/") + "/" + strings.TrimPrefix(ref, "/")
}
