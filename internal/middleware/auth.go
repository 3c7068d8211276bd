package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/maynagashev/passvault/internal/repository"
)

// Тип для ключа контекста.
type contextKey string

// Ключи для хранения данных пользователя в контексте.
const (
	UserIDKey    contextKey = "userID"
	UserEmailKey contextKey = "userEmail"
)

// Структура для пользовательских данных в JWT (claims) — должна совпадать с той, что в services.
type jwtClaims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator проверяет JWT токен аутентификации и сверяет его с токеном
// текущей сессии в БД: токен, не совпадающий с сохраненным, считается
// отозванным (например, после логаута или смены пароля).
type Authenticator struct {
	secret   []byte
	userRepo repository.UserRepository
}

// NewAuthenticator создает middleware аутентификации.
func NewAuthenticator(secret string, userRepo repository.UserRepository) *Authenticator {
	return &Authenticator{secret: []byte(secret), userRepo: userRepo}
}

// Middleware возвращает http-middleware, проверяющий заголовок Authorization.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Получаем заголовок Authorization
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Println("[AuthMiddleware] Заголовок Authorization отсутствует")
			respondAuthError(w, http.StatusUnauthorized, "Access token required.")
			return
		}

		// Проверяем формат "Bearer token"
		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
			log.Printf("[AuthMiddleware] Неверный формат заголовка Authorization: %s", authHeader)
			respondAuthError(w, http.StatusUnauthorized, "Token format invalid.")
			return
		}

		tokenString := headerParts[1]

		// Парсим и валидируем токен
		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			// Убеждаемся, что метод подписи - HS256
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
			}
			return a.secret, nil
		})

		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				log.Printf("[AuthMiddleware] Токен истек: %v", err)
				respondAuthError(w, http.StatusForbidden, "Token expired. Please log in again.")
				return
			}
			log.Printf("[AuthMiddleware] Ошибка парсинга/валидации токена: %v", err)
			respondAuthError(w, http.StatusForbidden, "Invalid token. Please log in again.")
			return
		}

		if !token.Valid {
			log.Println("[AuthMiddleware] Предоставлен невалидный токен")
			respondAuthError(w, http.StatusForbidden, "Invalid token. Please log in again.")
			return
		}

		// Сверяем токен с текущей сессией в БД
		user, err := a.userRepo.GetUserByIDAndToken(r.Context(), claims.UserID, tokenString)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				log.Printf("[AuthMiddleware] Токен пользователя %d не совпадает с текущей сессией", claims.UserID)
				respondAuthError(w, http.StatusForbidden, "Invalid token. Please log in again.")
				return
			}
			log.Printf("[AuthMiddleware] Ошибка проверки токена пользователя %d в БД: %v", claims.UserID, err)
			respondAuthError(w, http.StatusInternalServerError, "An error occurred during token validation.")
			return
		}

		// Добавляем данные пользователя в контекст запроса
		ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
		ctx = context.WithValue(ctx, UserEmailKey, user.Email)

		log.Printf("[AuthMiddleware] Пользователь %d успешно аутентифицирован", user.ID)

		// Передаем управление следующему обработчику с обновленным контекстом
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext извлекает ID пользователя из контекста запроса.
// Возвращает ID и true, если ID найден, иначе 0 и false.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// GetUserEmailFromContext извлекает email пользователя из контекста запроса.
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

// respondAuthError пишет ошибку в том же JSON-конверте, что и обработчики.
func respondAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]any{"success": false, "message": message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[AuthMiddleware] Ошибка кодирования ответа: %v", err)
	}
}
