package models

import "time"

// User представляет пользователя системы.
// Тэги `db` используются для маппинга с полями БД с помощью sqlx.
// Тэги `json` используются для (де)сериализации JSON.
type User struct {
	ID         int64   `db:"id" json:"id"`
	Firstname  string  `db:"firstname" json:"firstname"`
	Middlename *string `db:"middlename" json:"middlename"` // Отчество может отсутствовать
	Lastname   string  `db:"lastname" json:"lastname"`
	Email      string  `db:"email" json:"email"`
	Password   string  `db:"password" json:"-"` // Хеш пароля, не отправляем в JSON
	// Ссылка на аватар: относительный путь (images/...) или абсолютный URL в блоб-хранилище.
	ProfilePicture string `db:"profilepicture" json:"profilePicture"`
	// Текущий токен сессии. NULL, если пользователь не залогинен.
	Token     *string   `db:"token" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterRequest представляет тело запроса на регистрацию (с кодом OTP).
type RegisterRequest struct {
	Firstname  string `json:"firstname"`
	Middlename string `json:"middlename"`
	Lastname   string `json:"lastname"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	OTP        string `json:"otp"`
}

// LoginRequest представляет тело запроса на вход.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest представляет тело запроса на обновление профиля.
type UpdateUserRequest struct {
	Firstname  string `json:"firstname"`
	Middlename string `json:"middlename"`
	Lastname   string `json:"lastname"`
	Email      string `json:"email"`
}

// VerifyPasswordRequest представляет тело запроса на проверку текущего пароля.
type VerifyPasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
}

// ChangePasswordRequest представляет тело запроса на смену пароля.
type ChangePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// OTPRequest представляет тело запроса на отправку кода OTP.
type OTPRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest представляет тело запроса на проверку кода OTP.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResetPasswordRequest представляет тело запроса на сброс пароля.
type ResetPasswordRequest struct {
	Email              string `json:"email"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}
