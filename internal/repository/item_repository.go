package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/maynagashev/passvault/internal/models"
)

// ItemRepository определяет методы для работы с заметками пользователя.
type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) (int64, error)
	GetItemsByUserID(ctx context.Context, userID int64) ([]models.Item, error)
	// UpdateItem и DeleteItem фильтруются по id И владельцу;
	// возвращают число затронутых строк.
	UpdateItem(ctx context.Context, item *models.Item) (int64, error)
	DeleteItem(ctx context.Context, id, userID int64) (int64, error)
}

// postgresItemRepository реализует ItemRepository для PostgreSQL.
type postgresItemRepository struct {
	db *sqlx.DB
}

// NewPostgresItemRepository создает новый экземпляр репозитория заметок.
func NewPostgresItemRepository(db *sqlx.DB) ItemRepository {
	return &postgresItemRepository{db: db}
}

// CreateItem создает новую заметку. Возвращает ID созданной заметки.
func (r *postgresItemRepository) CreateItem(ctx context.Context, item *models.Item) (int64, error) {
	query := `INSERT INTO items (user_id, name, description) VALUES ($1, $2, $3) RETURNING id`
	var itemID int64

	err := r.db.QueryRowxContext(ctx, query, item.UserID, item.Name, item.Description).Scan(&itemID)
	if err != nil {
		log.Printf("[ItemRepo] Ошибка создания заметки для пользователя %d: %v", item.UserID, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на создание заметки: %w", err)
	}
	return itemID, nil
}

// GetItemsByUserID возвращает все заметки пользователя.
func (r *postgresItemRepository) GetItemsByUserID(ctx context.Context, userID int64) ([]models.Item, error) {
	query := `SELECT id, user_id, name, description FROM items WHERE user_id=$1 ORDER BY id`
	items := []models.Item{}

	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		log.Printf("[ItemRepo] Ошибка чтения заметок пользователя %d: %v", userID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение заметок: %w", err)
	}
	return items, nil
}

// UpdateItem обновляет заметку по id и владельцу.
func (r *postgresItemRepository) UpdateItem(ctx context.Context, item *models.Item) (int64, error) {
	query := `UPDATE items SET name=$1, description=$2 WHERE id=$3 AND user_id=$4`

	res, err := r.db.ExecContext(ctx, query, item.Name, item.Description, item.ID, item.UserID)
	if err != nil {
		log.Printf("[ItemRepo] Ошибка обновления заметки %d пользователя %d: %v", item.ID, item.UserID, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на обновление заметки: %w", err)
	}
	return res.RowsAffected()
}

// DeleteItem удаляет заметку по id и владельцу.
func (r *postgresItemRepository) DeleteItem(ctx context.Context, id, userID int64) (int64, error) {
	query := `DELETE FROM items WHERE id=$1 AND user_id=$2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		log.Printf("[ItemRepo] Ошибка удаления заметки %d пользователя %d: %v", id, userID, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на удаление заметки: %w", err)
	}
	return res.RowsAffected()
}
