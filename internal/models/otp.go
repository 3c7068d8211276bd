package models

import "time"

// OTP представляет одноразовый код подтверждения, привязанный к email.
// Используется при регистрации и при сбросе пароля; живет 5 минут.
type OTP struct {
	Email     string    `db:"email" json:"email"`
	OTPCode   string    `db:"otp_code" json:"otp_code"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}
