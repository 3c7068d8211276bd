package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/maynagashev/passvault/internal/models"
)

// Коды ошибок PostgreSQL.
const (
	pgUniqueViolationCode = "23505"
)

// UserRepository определяет методы для работы с данными пользователей в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByIDAndToken находит пользователя по ID при условии, что переданный
	// токен совпадает с текущим токеном сессии в БД.
	GetUserByIDAndToken(ctx context.Context, id int64, token string) (*models.User, error)
	// UpdateUserInfo обновляет поля профиля. Возвращает число затронутых строк.
	UpdateUserInfo(ctx context.Context, id int64, firstname, middlename, lastname, email string) (int64, error)
	// UpdateProfilePicture сохраняет ссылку на аватар. Возвращает число затронутых строк.
	UpdateProfilePicture(ctx context.Context, id int64, picture string) (int64, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error)
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) (int64, error)
	// UpdateToken сохраняет токен текущей сессии. nil сбрасывает токен (логаут).
	UpdateToken(ctx context.Context, id int64, token *string) (int64, error)
	ClearTokenByEmail(ctx context.Context, email string) error
}

// postgresUserRepository реализует UserRepository для PostgreSQL.
type postgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository создает новый экземпляр репозитория пользователей для PostgreSQL.
func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, firstname, middlename, lastname, email, password, profilepicture, token, created_at, updated_at`

// CreateUser создает нового пользователя в базе данных.
// Возвращает ID созданного пользователя или ошибку.
func (r *postgresUserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	query := `INSERT INTO users (firstname, middlename, lastname, email, password, profilepicture)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var userID int64

	err := r.db.QueryRowxContext(ctx, query,
		user.Firstname, user.Middlename, user.Lastname, user.Email, user.Password, user.ProfilePicture,
	).Scan(&userID)
	if err != nil {
		// Проверяем на ошибку нарушения уникальности (duplicate key)
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Printf("[UserRepo] Ошибка создания пользователя: email '%s' уже занят", user.Email)
			return 0, ErrEmailTaken // Возвращаем кастомную ошибку
		}
		log.Printf("[UserRepo] Непредвиденная ошибка при создании пользователя '%s': %v", user.Email, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на создание пользователя: %w", err)
	}

	log.Printf("[UserRepo] Пользователь '%s' успешно создан с ID %d", user.Email, userID)
	return userID, nil
}

// GetUserByID находит пользователя по его ID.
func (r *postgresUserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	var user models.User

	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[UserRepo] Пользователь с ID %d не найден", id)
			return nil, ErrUserNotFound
		}
		log.Printf("[UserRepo] Ошибка при поиске пользователя с ID %d: %v", id, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение пользователя: %w", err)
	}

	return &user, nil
}

// GetUserByEmail находит пользователя по email.
func (r *postgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	var user models.User

	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[UserRepo] Пользователь с email '%s' не найден", email)
			return nil, ErrUserNotFound
		}
		log.Printf("[UserRepo] Ошибка при поиске пользователя '%s': %v", email, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение пользователя: %w", err)
	}

	log.Printf("[UserRepo] Найден пользователь '%s' (ID: %d)", email, user.ID)
	return &user, nil
}

// GetUserByIDAndToken находит пользователя по ID и текущему токену сессии.
// Используется middleware аутентификации: токен, не совпадающий с сохраненным
// в БД, считается отозванным.
func (r *postgresUserRepository) GetUserByIDAndToken(ctx context.Context, id int64, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1 AND token=$2`
	var user models.User

	err := r.db.GetContext(ctx, &user, query, id, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[UserRepo] Пользователь %d с указанным токеном не найден (токен отозван?)", id)
			return nil, ErrUserNotFound
		}
		log.Printf("[UserRepo] Ошибка при проверке токена пользователя %d: %v", id, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на проверку токена: %w", err)
	}

	return &user, nil
}

// UpdateUserInfo обновляет поля профиля пользователя.
func (r *postgresUserRepository) UpdateUserInfo(
	ctx context.Context,
	id int64,
	firstname, middlename, lastname, email string,
) (int64, error) {
	query := `UPDATE users SET firstname=$1, middlename=$2, lastname=$3, email=$4, updated_at=now() WHERE id=$5`

	res, err := r.db.ExecContext(ctx, query, firstname, nullIfEmpty(middlename), lastname, email, id)
	if err != nil {
		log.Printf("[UserRepo] Ошибка обновления профиля пользователя %d: %v", id, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на обновление профиля: %w", err)
	}
	return res.RowsAffected()
}

// UpdateProfilePicture сохраняет ссылку на аватар пользователя.
func (r *postgresUserRepository) UpdateProfilePicture(ctx context.Context, id int64, picture string) (int64, error) {
	query := `UPDATE users SET profilepicture=$1, updated_at=now() WHERE id=$2`

	res, err := r.db.ExecContext(ctx, query, picture, id)
	if err != nil {
		log.Printf("[UserRepo] Ошибка сохранения аватара пользователя %d: %v", id, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на сохранение аватара: %w", err)
	}
	return res.RowsAffected()
}

// UpdatePassword сохраняет новый хеш пароля пользователя.
func (r *postgresUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error) {
	query := `UPDATE users SET password=$1, updated_at=now() WHERE id=$2`

	res, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		log.Printf("[UserRepo] Ошибка обновления пароля пользователя %d: %v", id, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на обновление пароля: %w", err)
	}
	return res.RowsAffected()
}

// UpdatePasswordByEmail сохраняет новый хеш пароля по email (сброс пароля).
func (r *postgresUserRepository) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) (int64, error) {
	query := `UPDATE users SET password=$1, updated_at=now() WHERE email=$2`

	res, err := r.db.ExecContext(ctx, query, passwordHash, email)
	if err != nil {
		log.Printf("[UserRepo] Ошибка сброса пароля для '%s': %v", email, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на сброс пароля: %w", err)
	}
	return res.RowsAffected()
}

// UpdateToken сохраняет (или сбрасывает, если token == nil) токен текущей сессии.
func (r *postgresUserRepository) UpdateToken(ctx context.Context, id int64, token *string) (int64, error) {
	query := `UPDATE users SET token=$1, updated_at=now() WHERE id=$2`

	res, err := r.db.ExecContext(ctx, query, token, id)
	if err != nil {
		log.Printf("[UserRepo] Ошибка обновления токена пользователя %d: %v", id, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на обновление токена: %w", err)
	}
	return res.RowsAffected()
}

// ClearTokenByEmail сбрасывает токен сессии по email (после сброса пароля).
func (r *postgresUserRepository) ClearTokenByEmail(ctx context.Context, email string) error {
	query := `UPDATE users SET token=NULL, updated_at=now() WHERE email=$1`

	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		log.Printf("[UserRepo] Ошибка сброса токена для '%s': %v", email, err)
		return fmt.Errorf("ошибка выполнения запроса на сброс токена: %w", err)
	}
	return nil
}

// nullIfEmpty превращает пустую строку в NULL для необязательных колонок.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Кастомные ошибки репозитория.
var (
	ErrUserNotFound = errors.New("пользователь не найден")
	ErrEmailTaken   = errors.New("email уже занят")
)
