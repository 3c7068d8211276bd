package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/passvault/internal/repository"
)

// Вспомогательная функция для создания мока БД и репозитория.
func setupOTPRepoMock(t *testing.T) (repository.OTPRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := repository.NewPostgresOTPRepository(sqlxDB)
	return repo, mock
}

func TestUpsertOTP(t *testing.T) {
	upsertQuery := regexp.QuoteMeta(`INSERT INTO otps (email, otp_code, expires_at) VALUES ($1, $2, $3) ON CONFLICT (email) DO UPDATE SET otp_code=EXCLUDED.otp_code, expires_at=EXCLUDED.expires_at`)
	expiresAt := time.Now().Add(5 * time.Minute)

	t.Run("Успешное сохранение", func(t *testing.T) {
		repo, mock := setupOTPRepoMock(t)
		mock.ExpectExec(upsertQuery).
			WithArgs("ivan@example.com", "123456", expiresAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpsertOTP(context.Background(), "ivan@example.com", "123456", expiresAt)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ошибка базы данных", func(t *testing.T) {
		repo, mock := setupOTPRepoMock(t)
		mock.ExpectExec(upsertQuery).
			WithArgs("ivan@example.com", "123456", expiresAt).
			WillReturnError(errors.New("database error"))

		err := repo.UpsertOTP(context.Background(), "ivan@example.com", "123456", expiresAt)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ошибка выполнения запроса")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetOTPByEmail(t *testing.T) {
	selectQuery := regexp.QuoteMeta(`SELECT email, otp_code, expires_at FROM otps WHERE email=$1`)

	t.Run("Код найден", func(t *testing.T) {
		repo, mock := setupOTPRepoMock(t)
		expiresAt := time.Now().Add(5 * time.Minute)
		rows := sqlmock.NewRows([]string{"email", "otp_code", "expires_at"}).
			AddRow("ivan@example.com", "123456", expiresAt)
		mock.ExpectQuery(selectQuery).WithArgs("ivan@example.com").WillReturnRows(rows)

		otp, err := repo.GetOTPByEmail(context.Background(), "ivan@example.com")

		require.NoError(t, err)
		assert.Equal(t, "123456", otp.OTPCode)
		assert.Equal(t, "ivan@example.com", otp.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Код не найден", func(t *testing.T) {
		repo, mock := setupOTPRepoMock(t)
		mock.ExpectQuery(selectQuery).WithArgs("missing@example.com").WillReturnError(sql.ErrNoRows)

		otp, err := repo.GetOTPByEmail(context.Background(), "missing@example.com")

		assert.Nil(t, otp)
		assert.ErrorIs(t, err, repository.ErrOTPNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteOTP(t *testing.T) {
	deleteQuery := regexp.QuoteMeta(`DELETE FROM otps WHERE email=$1`)

	repo, mock := setupOTPRepoMock(t)
	mock.ExpectExec(deleteQuery).WithArgs("ivan@example.com").WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeleteOTP(context.Background(), "ivan@example.com")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
