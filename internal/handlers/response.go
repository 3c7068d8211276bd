package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// Response — единый JSON-конверт всех ответов API: {success, message, ...}.
// Дополнительные поля конкретных ответов объявляются в их собственных структурах
// со встроенным Response.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// respondJSON пишет payload как JSON с указанным статусом.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Статус уже ушел клиенту, остается только залогировать
		log.Printf("[Handlers] Ошибка кодирования JSON-ответа: %v", err)
	}
}

// respondError пишет {success:false, message} с указанным статусом.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Response{Success: false, Message: message})
}

// respondSuccess пишет {success:true, message} со статусом 200.
func respondSuccess(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, Response{Success: true, Message: message})
}
