package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/maynagashev/passvault/internal/models"
)

// --- Mock UserRepository --- //

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetUserByIDAndToken(ctx context.Context, id int64, token string) (*models.User, error) {
	args := m.Called(ctx, id, token)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdateUserInfo(
	ctx context.Context,
	id int64,
	firstname, middlename, lastname, email string,
) (int64, error) {
	args := m.Called(ctx, id, firstname, middlename, lastname, email)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) UpdateProfilePicture(ctx context.Context, id int64, picture string) (int64, error) {
	args := m.Called(ctx, id, picture)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error) {
	args := m.Called(ctx, id, passwordHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) (int64, error) {
	args := m.Called(ctx, email, passwordHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) UpdateToken(ctx context.Context, id int64, token *string) (int64, error) {
	args := m.Called(ctx, id, token)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ClearTokenByEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// --- Mock OTPRepository --- //

type MockOTPRepository struct {
	mock.Mock
}

func (m *MockOTPRepository) UpsertOTP(ctx context.Context, email, code string, expiresAt time.Time) error {
	args := m.Called(ctx, email, code, expiresAt)
	return args.Error(0)
}

func (m *MockOTPRepository) GetOTPByEmail(ctx context.Context, email string) (*models.OTP, error) {
	args := m.Called(ctx, email)
	if otp, ok := args.Get(0).(*models.OTP); ok {
		return otp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOTPRepository) DeleteOTP(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// --- Mock Mailer --- //

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(to, subject, htmlBody, textBody string) error {
	args := m.Called(to, subject, htmlBody, textBody)
	return args.Error(0)
}

// --- Mock AccountRepository --- //

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, account *models.Account) (int64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) GetAccountsByUserID(ctx context.Context, userID int64) ([]models.Account, error) {
	args := m.Called(ctx, userID)
	if accounts, ok := args.Get(0).([]models.Account); ok {
		return accounts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account *models.Account) (int64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) DeleteAccount(ctx context.Context, id, userID int64) (int64, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock ItemRepository --- //

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) CreateItem(ctx context.Context, item *models.Item) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemRepository) GetItemsByUserID(ctx context.Context, userID int64) ([]models.Item, error) {
	args := m.Called(ctx, userID)
	if items, ok := args.Get(0).([]models.Item); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockItemRepository) UpdateItem(ctx context.Context, item *models.Item) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemRepository) DeleteItem(ctx context.Context, id, userID int64) (int64, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(int64), args.Error(1)
}
