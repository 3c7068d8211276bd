package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/maynagashev/passvault/internal/models"
)

// OTPRepository определяет методы для работы с одноразовыми кодами подтверждения.
type OTPRepository interface {
	// UpsertOTP сохраняет код для email, заменяя предыдущий, если он был.
	UpsertOTP(ctx context.Context, email, code string, expiresAt time.Time) error
	GetOTPByEmail(ctx context.Context, email string) (*models.OTP, error)
	DeleteOTP(ctx context.Context, email string) error
}

// postgresOTPRepository реализует OTPRepository для PostgreSQL.
type postgresOTPRepository struct {
	db *sqlx.DB
}

// NewPostgresOTPRepository создает новый экземпляр репозитория кодов OTP.
func NewPostgresOTPRepository(db *sqlx.DB) OTPRepository {
	return &postgresOTPRepository{db: db}
}

// UpsertOTP сохраняет код подтверждения для email (insert или замена).
func (r *postgresOTPRepository) UpsertOTP(ctx context.Context, email, code string, expiresAt time.Time) error {
	query := `INSERT INTO otps (email, otp_code, expires_at) VALUES ($1, $2, $3)
	          ON CONFLICT (email) DO UPDATE SET otp_code=EXCLUDED.otp_code, expires_at=EXCLUDED.expires_at`

	if _, err := r.db.ExecContext(ctx, query, email, code, expiresAt); err != nil {
		log.Printf("[OTPRepo] Ошибка сохранения кода для '%s': %v", email, err)
		return fmt.Errorf("ошибка выполнения запроса на сохранение кода: %w", err)
	}

	log.Printf("[OTPRepo] Код подтверждения для '%s' сохранен (истекает %s)", email, expiresAt.Format(time.RFC3339))
	return nil
}

// GetOTPByEmail возвращает сохраненный код подтверждения для email.
func (r *postgresOTPRepository) GetOTPByEmail(ctx context.Context, email string) (*models.OTP, error) {
	query := `SELECT email, otp_code, expires_at FROM otps WHERE email=$1`
	var otp models.OTP

	err := r.db.GetContext(ctx, &otp, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[OTPRepo] Код подтверждения для '%s' не найден", email)
			return nil, ErrOTPNotFound
		}
		log.Printf("[OTPRepo] Ошибка при поиске кода для '%s': %v", email, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение кода: %w", err)
	}

	return &otp, nil
}

// DeleteOTP удаляет код подтверждения для email.
func (r *postgresOTPRepository) DeleteOTP(ctx context.Context, email string) error {
	query := `DELETE FROM otps WHERE email=$1`

	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		log.Printf("[OTPRepo] Ошибка удаления кода для '%s': %v", email, err)
		return fmt.Errorf("ошибка выполнения запроса на удаление кода: %w", err)
	}
	return nil
}

// Кастомная ошибка репозитория.
var ErrOTPNotFound = errors.New("код подтверждения не найден")
