package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/maynagashev/passvault/internal/middleware"
	"github.com/maynagashev/passvault/internal/models"
	"github.com/maynagashev/passvault/internal/services"
	"github.com/maynagashev/passvault/internal/storage"
	"github.com/maynagashev/passvault/internal/upload"
)

// AccountHandler обрабатывает HTTP-запросы к учетным записям пользователя.
type AccountHandler struct {
	accountService services.AccountService
	fileStorage    storage.FileStorage
	uploads        *upload.Parser
}

// NewAccountHandler создает новый экземпляр AccountHandler.
func NewAccountHandler(as services.AccountService, fs storage.FileStorage, up *upload.Parser) *AccountHandler {
	return &AccountHandler{accountService: as, fileStorage: fs, uploads: up}
}

// CreateAccountResponse — ответ на создание записи.
type CreateAccountResponse struct {
	Response
	AccountID int64 `json:"accountId"`
}

// AccountsResponse — ответ со списком записей.
type AccountsResponse struct {
	Response
	Accounts []models.Account `json:"accounts"`
}

// UpdateAccountResponse — ответ на обновление записи.
type UpdateAccountResponse struct {
	Response
	Image string `json:"image"`
}

// CreateAccount обрабатывает POST запрос на создание учетной записи.
// Multipart-форма: site, username, password и необязательный файл image.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[AccountHandler:Create] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	// Принимаем файл (если приложен) до остальной логики
	file, err := h.uploads.FromRequest(r, "image")
	if err != nil {
		respondUploadError(w, err)
		return
	}

	site := r.FormValue("site")
	username := r.FormValue("username")
	password := r.FormValue("password")
	if site == "" || username == "" || password == "" {
		respondError(w, http.StatusBadRequest, "Site, username, and password are required.")
		return
	}

	// Сохраняем картинку в хранилище; ссылка по умолчанию — общая заглушка
	imagePath := services.DefaultAccountImage
	var stored *storage.StoredFile
	if file != nil {
		stored, err = h.fileStorage.Store(r.Context(), file, "accounts")
		if err != nil {
			respondStorageError(w, err)
			return
		}
		imagePath = stored.Ref
	}

	// Файл откатывается, если запись в БД не состоялась
	committed := false
	defer func() {
		if !committed {
			stored.Discard()
		}
	}()

	accountID, err := h.accountService.CreateAccount(userID, site, username, password, imagePath)
	if err != nil {
		log.Printf("[AccountHandler:Create] Ошибка создания записи для пользователя %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Error creating account.")
		return
	}
	committed = true

	respondJSON(w, http.StatusOK, CreateAccountResponse{
		Response:  Response{Success: true, Message: "Account created successfully!"},
		AccountID: accountID,
	})
	log.Printf("[AccountHandler:Create] Запись %d создана для пользователя %d", accountID, userID)
}

// GetAccounts обрабатывает GET запрос на список учетных записей пользователя.
func (h *AccountHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[AccountHandler:List] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	accounts, err := h.accountService.GetAccounts(userID)
	if err != nil {
		log.Printf("[AccountHandler:List] Ошибка чтения записей пользователя %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Error reading accounts.")
		return
	}

	respondJSON(w, http.StatusOK, AccountsResponse{
		Response: Response{Success: true, Message: "Accounts retrieved successfully!"},
		Accounts: accounts,
	})
}

// UpdateAccount обрабатывает PUT запрос на обновление учетной записи.
// Без нового файла сохраняется переданное поле currentImage.
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[AccountHandler:Update] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || accountID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid account ID.")
		return
	}

	file, err := h.uploads.FromRequest(r, "image")
	if err != nil {
		respondUploadError(w, err)
		return
	}

	site := r.FormValue("site")
	username := r.FormValue("username")
	password := r.FormValue("password")
	if site == "" || username == "" || password == "" {
		respondError(w, http.StatusBadRequest, "Site, username, and password are required.")
		return
	}

	// Новый файл заменяет картинку, иначе остается прежняя
	imagePath := r.FormValue("currentImage")
	var stored *storage.StoredFile
	if file != nil {
		stored, err = h.fileStorage.Store(r.Context(), file, "accounts")
		if err != nil {
			respondStorageError(w, err)
			return
		}
		imagePath = stored.Ref
	}
	if imagePath == "" {
		imagePath = services.DefaultAccountImage
	}

	committed := false
	defer func() {
		if !committed {
			stored.Discard()
		}
	}()

	err = h.accountService.UpdateAccount(userID, accountID, site, username, password, imagePath)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			respondError(w, http.StatusNotFound, "Account not found or you do not have permission to update it.")
			return
		}
		log.Printf("[AccountHandler:Update] Ошибка обновления записи %d пользователя %d: %v", accountID, userID, err)
		respondError(w, http.StatusInternalServerError, "Error updating account.")
		return
	}
	committed = true

	respondJSON(w, http.StatusOK, UpdateAccountResponse{
		Response: Response{Success: true, Message: "Account updated successfully!"},
		Image:    imagePath,
	})
	log.Printf("[AccountHandler:Update] Запись %d пользователя %d обновлена", accountID, userID)
}

// DeleteAccount обрабатывает DELETE запрос на удаление учетной записи.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[AccountHandler:Delete] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || accountID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid account ID.")
		return
	}

	if err = h.accountService.DeleteAccount(userID, accountID); err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			respondError(w, http.StatusNotFound, "Account not found or you do not have permission to delete it.")
			return
		}
		log.Printf("[AccountHandler:Delete] Ошибка удаления записи %d пользователя %d: %v", accountID, userID, err)
		respondError(w, http.StatusInternalServerError, "Error deleting account.")
		return
	}

	respondSuccess(w, "Account deleted successfully!")
	log.Printf("[AccountHandler:Delete] Запись %d пользователя %d удалена", accountID, userID)
}

// respondUploadError превращает ошибку валидации загрузки в ответ клиенту.
func respondUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upload.ErrInvalidFileType):
		respondError(w, http.StatusBadRequest, "Only images (jpeg, jpg, png, gif) are allowed!")
	case errors.Is(err, upload.ErrFileTooLarge):
		respondError(w, http.StatusBadRequest, "File exceeds the 5 MB size limit.")
	default:
		log.Printf("[Handlers] Ошибка приема загруженного файла: %v", err)
		respondError(w, http.StatusInternalServerError, "Error processing uploaded file.")
	}
}

// respondStorageError превращает ошибку сохранения файла в ответ клиенту.
// Сбой блоб-загрузки и сбой обработки на диске различаются сообщением.
func respondStorageError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrBlobUpload) {
		log.Printf("[Handlers] Ошибка загрузки в блоб-хранилище: %v", err)
		respondError(w, http.StatusInternalServerError, "Error uploading image to blob storage.")
		return
	}
	log.Printf("[Handlers] Ошибка обработки загруженного файла: %v", err)
	respondError(w, http.StatusInternalServerError, "Error processing uploaded file. Please try again or contact support.")
}
