package services_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/passvault/internal/models"
	"github.com/maynagashev/passvault/internal/services"
)

func TestAccountService_CreateAccount(t *testing.T) {
	t.Run("Картинка передается как есть", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		accountRepo.On("CreateAccount", mock.Anything, mock.AnythingOfType("*models.Account")).
			Return(int64(7), nil).Once()

		accountID, err := services.NewAccountService(accountRepo).
			CreateAccount(1, "example.com", "ivan", "secret", "images/custom.png")

		require.NoError(t, err)
		assert.Equal(t, int64(7), accountID)

		created := accountRepo.Calls[0].Arguments.Get(1).(*models.Account)
		assert.Equal(t, "images/custom.png", created.Image)
		accountRepo.AssertExpectations(t)
	})

	t.Run("Пустая картинка заменяется на картинку по умолчанию", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		accountRepo.On("CreateAccount", mock.Anything, mock.AnythingOfType("*models.Account")).
			Return(int64(8), nil).Once()

		_, err := services.NewAccountService(accountRepo).
			CreateAccount(1, "example.com", "ivan", "secret", "")

		require.NoError(t, err)
		created := accountRepo.Calls[0].Arguments.Get(1).(*models.Account)
		assert.Equal(t, services.DefaultAccountImage, created.Image)
		accountRepo.AssertExpectations(t)
	})

	t.Run("Ошибка репозитория", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		accountRepo.On("CreateAccount", mock.Anything, mock.AnythingOfType("*models.Account")).
			Return(int64(0), errors.New("db error")).Once()

		accountID, err := services.NewAccountService(accountRepo).
			CreateAccount(1, "example.com", "ivan", "secret", "")

		assert.Zero(t, accountID)
		require.Error(t, err)
		accountRepo.AssertExpectations(t)
	})
}

func TestAccountService_GetAccounts(t *testing.T) {
	t.Run("Ссылки на картинки нормализуются", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		accountRepo.On("GetAccountsByUserID", mock.Anything, int64(1)).
			Return([]models.Account{
				{ID: 1, Site: "example.com", Image: `images\a.png`},
				{ID: 2, Site: "mail.ru", Image: "http://minio:9000/passvault-images/accounts/b.png"},
			}, nil).Once()

		accounts, err := services.NewAccountService(accountRepo).GetAccounts(1)

		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, "images/a.png", accounts[0].Image)
		assert.Equal(t, "http://minio:9000/passvault-images/accounts/b.png", accounts[1].Image)
		accountRepo.AssertExpectations(t)
	})

	t.Run("Ошибка репозитория", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		accountRepo.On("GetAccountsByUserID", mock.Anything, int64(1)).
			Return(nil, errors.New("db error")).Once()

		accounts, err := services.NewAccountService(accountRepo).GetAccounts(1)

		assert.Nil(t, accounts)
		require.Error(t, err)
		accountRepo.AssertExpectations(t)
	})
}

func TestAccountService_UpdateAccount(t *testing.T) {
	t.Run("Успешное обновление", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		accountRepo.On("UpdateAccount", mock.Anything, mock.AnythingOfType("*models.Account")).
			Return(int64(1), nil).Once()

		err := services.NewAccountService(accountRepo).
			UpdateAccount(1, 3, "example.com", "ivan", "secret", "images/a.png")

		require.NoError(t, err)
		accountRepo.AssertExpectations(t)
	})

	t.Run("Чужая запись — ErrAccountNotFound", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		accountRepo.On("UpdateAccount", mock.Anything, mock.AnythingOfType("*models.Account")).
			Return(int64(0), nil).Once()

		err := services.NewAccountService(accountRepo).
			UpdateAccount(1, 3, "example.com", "ivan", "secret", "images/a.png")

		assert.ErrorIs(t, err, services.ErrAccountNotFound)
		accountRepo.AssertExpectations(t)
	})
}

func TestAccountService_DeleteAccount(t *testing.T) {
	t.Run("Успешное удаление", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		accountRepo.On("DeleteAccount", mock.Anything, int64(3), int64(1)).
			Return(int64(1), nil).Once()

		err := services.NewAccountService(accountRepo).DeleteAccount(1, 3)

		require.NoError(t, err)
		accountRepo.AssertExpectations(t)
	})

	t.Run("Запись не найдена", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		accountRepo.On("DeleteAccount", mock.Anything, int64(3), int64(1)).
			Return(int64(0), nil).Once()

		err := services.NewAccountService(accountRepo).DeleteAccount(1, 3)

		assert.ErrorIs(t, err, services.ErrAccountNotFound)
		accountRepo.AssertExpectations(t)
	})
}
