package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/maynagashev/passvault/internal/models"
)

// AccountRepository определяет методы для работы с сохраненными учетными записями.
// Все операции чтения/записи фильтруются по владельцу (user_id): запрос чужой
// записи просто не находит строк.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *models.Account) (int64, error)
	GetAccountsByUserID(ctx context.Context, userID int64) ([]models.Account, error)
	// UpdateAccount обновляет запись, отфильтрованную по id И владельцу.
	// Возвращает число затронутых строк (0 — запись не найдена или чужая).
	UpdateAccount(ctx context.Context, account *models.Account) (int64, error)
	// DeleteAccount удаляет запись, отфильтрованную по id И владельцу.
	// Возвращает число затронутых строк.
	DeleteAccount(ctx context.Context, id, userID int64) (int64, error)
}

// postgresAccountRepository реализует AccountRepository для PostgreSQL.
type postgresAccountRepository struct {
	db *sqlx.DB
}

// NewPostgresAccountRepository создает новый экземпляр репозитория учетных записей.
func NewPostgresAccountRepository(db *sqlx.DB) AccountRepository {
	return &postgresAccountRepository{db: db}
}

// CreateAccount создает новую учетную запись. Возвращает ID созданной записи.
func (r *postgresAccountRepository) CreateAccount(ctx context.Context, account *models.Account) (int64, error) {
	query := `INSERT INTO accounts (user_id, site, username, password, image)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var accountID int64

	err := r.db.QueryRowxContext(ctx, query,
		account.UserID, account.Site, account.Username, account.Password, account.Image,
	).Scan(&accountID)
	if err != nil {
		log.Printf("[AccountRepo] Ошибка создания записи для пользователя %d: %v", account.UserID, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на создание записи: %w", err)
	}

	log.Printf("[AccountRepo] Запись '%s' для пользователя %d создана с ID %d", account.Site, account.UserID, accountID)
	return accountID, nil
}

// GetAccountsByUserID возвращает все учетные записи пользователя.
func (r *postgresAccountRepository) GetAccountsByUserID(ctx context.Context, userID int64) ([]models.Account, error) {
	query := `SELECT id, user_id, site, username, password, image FROM accounts WHERE user_id=$1 ORDER BY id`
	accounts := []models.Account{}

	if err := r.db.SelectContext(ctx, &accounts, query, userID); err != nil {
		log.Printf("[AccountRepo] Ошибка чтения записей пользователя %d: %v", userID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение записей: %w", err)
	}

	log.Printf("[AccountRepo] Для пользователя %d получено записей: %d", userID, len(accounts))
	return accounts, nil
}

// UpdateAccount обновляет учетную запись по id и владельцу.
func (r *postgresAccountRepository) UpdateAccount(ctx context.Context, account *models.Account) (int64, error) {
	query := `UPDATE accounts SET site=$1, username=$2, password=$3, image=$4 WHERE id=$5 AND user_id=$6`

	res, err := r.db.ExecContext(ctx, query,
		account.Site, account.Username, account.Password, account.Image, account.ID, account.UserID,
	)
	if err != nil {
		log.Printf("[AccountRepo] Ошибка обновления записи %d пользователя %d: %v", account.ID, account.UserID, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на обновление записи: %w", err)
	}
	return res.RowsAffected()
}

// DeleteAccount удаляет учетную запись по id и владельцу.
func (r *postgresAccountRepository) DeleteAccount(ctx context.Context, id, userID int64) (int64, error) {
	query := `DELETE FROM accounts WHERE id=$1 AND user_id=$2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		log.Printf("[AccountRepo] Ошибка удаления записи %d пользователя %d: %v", id, userID, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на удаление записи: %w", err)
	}
	return res.RowsAffected()
}
