package services

import (
	"context"
	"errors"
	"log"

	"github.com/maynagashev/passvault/internal/models"
	"github.com/maynagashev/passvault/internal/repository"
)

// ItemService определяет интерфейс для сервиса заметок.
type ItemService interface {
	CreateItem(userID int64, name, description string) (int64, error)
	GetItems(userID int64) ([]models.Item, error)
	UpdateItem(userID, itemID int64, name, description string) error
	DeleteItem(userID, itemID int64) error
}

// Убедимся, что itemService удовлетворяет интерфейсу ItemService.
var _ ItemService = (*itemService)(nil)

type itemService struct {
	itemRepo repository.ItemRepository
}

// NewItemService создает новый экземпляр сервиса заметок.
func NewItemService(itemRepo repository.ItemRepository) ItemService {
	return &itemService{itemRepo: itemRepo}
}

// CreateItem создает заметку и возвращает ее ID.
func (s *itemService) CreateItem(userID int64, name, description string) (int64, error) {
	ctx := context.Background()

	item := &models.Item{UserID: userID, Name: name}
	if description != "" {
		item.Description = &description
	}

	itemID, err := s.itemRepo.CreateItem(ctx, item)
	if err != nil {
		log.Printf("[ItemService] Ошибка создания заметки для пользователя %d: %v", userID, err)
		return 0, errors.New("внутренняя ошибка сервера при создании заметки")
	}
	return itemID, nil
}

// GetItems возвращает все заметки пользователя.
func (s *itemService) GetItems(userID int64) ([]models.Item, error) {
	ctx := context.Background()

	items, err := s.itemRepo.GetItemsByUserID(ctx, userID)
	if err != nil {
		log.Printf("[ItemService] Ошибка чтения заметок пользователя %d: %v", userID, err)
		return nil, errors.New("внутренняя ошибка сервера при чтении заметок")
	}
	return items, nil
}

// UpdateItem обновляет заметку по id и владельцу.
func (s *itemService) UpdateItem(userID, itemID int64, name, description string) error {
	ctx := context.Background()

	item := &models.Item{ID: itemID, UserID: userID, Name: name}
	if description != "" {
		item.Description = &description
	}

	rows, err := s.itemRepo.UpdateItem(ctx, item)
	if err != nil {
		log.Printf("[ItemService] Ошибка обновления заметки %d пользователя %d: %v", itemID, userID, err)
		return errors.New("внутренняя ошибка сервера при обновлении заметки")
	}
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteItem удаляет заметку по id и владельцу.
func (s *itemService) DeleteItem(userID, itemID int64) error {
	ctx := context.Background()

	rows, err := s.itemRepo.DeleteItem(ctx, itemID, userID)
	if err != nil {
		log.Printf("[ItemService] Ошибка удаления заметки %d пользователя %d: %v", itemID, userID, err)
		return errors.New("внутренняя ошибка сервера при удалении заметки")
	}
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Кастомная ошибка сервиса.
var ErrItemNotFound = errors.New("заметка не найдена или принадлежит другому пользователю")
