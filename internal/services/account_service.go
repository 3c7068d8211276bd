package services

import (
	"context"
	"errors"
	"log"

	"github.com/maynagashev/passvault/internal/models"
	"github.com/maynagashev/passvault/internal/repository"
)

// AccountService определяет интерфейс для сервиса учетных записей.
// Все операции выполняются от имени владельца: чужая запись неотличима
// от несуществующей.
type AccountService interface {
	// CreateAccount создает запись и возвращает ее ID.
	CreateAccount(userID int64, site, username, password, image string) (int64, error)
	// GetAccounts возвращает записи пользователя с нормализованными ссылками на картинки.
	GetAccounts(userID int64) ([]models.Account, error)
	UpdateAccount(userID, accountID int64, site, username, password, image string) error
	DeleteAccount(userID, accountID int64) error
}

// DefaultAccountImage — картинка по умолчанию для записей без своей.
const DefaultAccountImage = "images/default.png"

// Убедимся, что accountService удовлетворяет интерфейсу AccountService.
var _ AccountService = (*accountService)(nil)

type accountService struct {
	accountRepo repository.AccountRepository
}

// NewAccountService создает новый экземпляр сервиса учетных записей.
func NewAccountService(accountRepo repository.AccountRepository) AccountService {
	return &accountService{accountRepo: accountRepo}
}

// CreateAccount создает учетную запись пользователя.
func (s *accountService) CreateAccount(userID int64, site, username, password, image string) (int64, error) {
	ctx := context.Background()

	if image == "" {
		image = DefaultAccountImage
	}

	account := &models.Account{
		UserID:   userID,
		Site:     site,
		Username: username,
		Password: password,
		Image:    image,
	}

	accountID, err := s.accountRepo.CreateAccount(ctx, account)
	if err != nil {
		log.Printf("[AccountService] Ошибка создания записи для пользователя %d: %v", userID, err)
		return 0, errors.New("внутренняя ошибка сервера при создании записи")
	}
	return accountID, nil
}

// GetAccounts возвращает все записи пользователя.
func (s *accountService) GetAccounts(userID int64) ([]models.Account, error) {
	ctx := context.Background()

	accounts, err := s.accountRepo.GetAccountsByUserID(ctx, userID)
	if err != nil {
		log.Printf("[AccountService] Ошибка чтения записей пользователя %d: %v", userID, err)
		return nil, errors.New("внутренняя ошибка сервера при чтении записей")
	}

	for i := range accounts {
		accounts[i].Image = NormalizeImageRef(accounts[i].Image)
	}
	return accounts, nil
}

// UpdateAccount обновляет запись. Ноль затронутых строк означает, что записи
// нет или она принадлежит другому пользователю.
func (s *accountService) UpdateAccount(userID, accountID int64, site, username, password, image string) error {
	ctx := context.Background()

	account := &models.Account{
		ID:       accountID,
		UserID:   userID,
		Site:     site,
		Username: username,
		Password: password,
		Image:    image,
	}

	rows, err := s.accountRepo.UpdateAccount(ctx, account)
	if err != nil {
		log.Printf("[AccountService] Ошибка обновления записи %d пользователя %d: %v", accountID, userID, err)
		return errors.New("внутренняя ошибка сервера при обновлении записи")
	}
	if rows == 0 {
		log.Printf("[AccountService] Запись %d не найдена у пользователя %d", accountID, userID)
		return ErrAccountNotFound
	}
	return nil
}

// DeleteAccount удаляет запись. Ноль затронутых строк означает, что записи
// нет или она принадлежит другому пользователю.
func (s *accountService) DeleteAccount(userID, accountID int64) error {
	ctx := context.Background()

	rows, err := s.accountRepo.DeleteAccount(ctx, accountID, userID)
	if err != nil {
		log.Printf("[AccountService] Ошибка удаления записи %d пользователя %d: %v", accountID, userID, err)
		return errors.New("внутренняя ошибка сервера при удалении записи")
	}
	if rows == 0 {
		log.Printf("[AccountService] Запись %d не найдена у пользователя %d", accountID, userID)
		return ErrAccountNotFound
	}
	return nil
}

// Кастомная ошибка сервиса.
var ErrAccountNotFound = errors.New("учетная запись не найдена или принадлежит другому пользователю")
