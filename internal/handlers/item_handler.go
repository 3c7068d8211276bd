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

// ItemHandler обрабатывает HTTP-запросы к произвольным записям пользователя.
type ItemHandler struct {
	itemService services.ItemService
}

// NewItemHandler создает новый экземпляр ItemHandler.
func NewItemHandler(is services.ItemService) *ItemHandler {
	return &ItemHandler{itemService: is}
}

// CreateItemResponse — ответ на создание записи.
type CreateItemResponse struct {
	Response
	ItemID int64 `json:"itemId"`
}

// ItemsResponse — ответ со списком записей пользователя.
type ItemsResponse struct {
	Response
	Items []models.Item `json:"items"`
}

// CreateItem обрабатывает POST запрос на создание записи.
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[ItemHandler:Create] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	var req models.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Item name is required.")
		return
	}

	itemID, err := h.itemService.CreateItem(userID, req.Name, req.Description)
	if err != nil {
		log.Printf("[ItemHandler:Create] Ошибка создания записи пользователя %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Error creating item.")
		return
	}

	respondJSON(w, http.StatusOK, CreateItemResponse{
		Response: Response{Success: true, Message: "Item created successfully!"},
		ItemID:   itemID,
	})
}

// GetItems обрабатывает GET запрос на список записей пользователя.
func (h *ItemHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[ItemHandler:List] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	items, err := h.itemService.GetItems(userID)
	if err != nil {
		log.Printf("[ItemHandler:List] Ошибка получения записей пользователя %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Error fetching items.")
		return
	}

	respondJSON(w, http.StatusOK, ItemsResponse{
		Response: Response{Success: true},
		Items:    items,
	})
}

// UpdateItem обрабатывает PUT запрос на обновление записи.
// Идентификатор записи передается в теле запроса.
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[ItemHandler:Update] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	var req models.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	if req.ID <= 0 || req.Name == "" {
		respondError(w, http.StatusBadRequest, "Item ID and name are required.")
		return
	}

	err := h.itemService.UpdateItem(userID, req.ID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			respondError(w, http.StatusNotFound, "Item not found or you do not have permission to update it.")
			return
		}
		log.Printf("[ItemHandler:Update] Ошибка обновления записи %d пользователя %d: %v", req.ID, userID, err)
		respondError(w, http.StatusInternalServerError, "Error updating item.")
		return
	}

	respondSuccess(w, "Item updated successfully!")
}

// DeleteItem обрабатывает DELETE запрос на удаление записи.
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[ItemHandler:Delete] Не удалось получить userID из контекста")
		respondError(w, http.StatusInternalServerError, "An error occurred.")
		return
	}

	var req models.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	if req.ID <= 0 {
		respondError(w, http.StatusBadRequest, "Item ID is required.")
		return
	}

	err := h.itemService.DeleteItem(userID, req.ID)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			respondError(w, http.StatusNotFound, "Item not found or you do not have permission to delete it.")
			return
		}
		log.Printf("[ItemHandler:Delete] Ошибка удаления записи %d пользователя %d: %v", req.ID, userID, err)
		respondError(w, http.StatusInternalServerError, "Error deleting item.")
		return
	}

	respondSuccess(w, "Item deleted successfully!")
}
