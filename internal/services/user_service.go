package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/maynagashev/passvault/internal/models"
	"github.com/maynagashev/passvault/internal/repository"
)

// UserService определяет интерфейс для сервиса работы с профилем пользователя.
type UserService interface {
	GetUserInfo(userID int64) (*models.User, error)
	UpdateUserInfo(userID int64, firstname, middlename, lastname, email string) error
	// UpdateProfilePicture сохраняет ссылку на загруженный аватар.
	UpdateProfilePicture(userID int64, ref string) error
	GetProfilePicture(userID int64) (string, error)
	// VerifyPassword сверяет пароль с хешем из БД. Не изменяет данные.
	VerifyPassword(userID int64, password string) error
	// ChangePassword выполняет цепочку проверка → хеширование → сохранение →
	// перевыпуск токена. Возвращает новый токен сессии; при сбое — ошибку
	// *PasswordChangeError с указанием упавшего этапа.
	ChangePassword(userID int64, email, currentPassword, newPassword string) (string, error)
}

// Этапы смены пароля. Какой из них упал, сообщает PasswordChangeError.
type PasswordChangeStage string

const (
	StageVerify      PasswordChangeStage = "verify"       // Чтение текущего хеша из БД
	StageCompare     PasswordChangeStage = "compare"      // Сравнение текущего пароля с хешем
	StageHash        PasswordChangeStage = "hash"         // Хеширование нового пароля
	StageUpdate      PasswordChangeStage = "update"       // Сохранение нового хеша
	StageTokenIssue  PasswordChangeStage = "token_issue"  // Подпись нового токена
	StageTokenUpdate PasswordChangeStage = "token_update" // Сохранение нового токена
)

// PasswordChangeError сообщает, на каком этапе развалилась смена пароля.
type PasswordChangeError struct {
	Stage PasswordChangeStage
	Err   error
}

func (e *PasswordChangeError) Error() string {
	return fmt.Sprintf("смена пароля: этап %s: %v", e.Stage, e.Err)
}

func (e *PasswordChangeError) Unwrap() error { return e.Err }

// Убедимся, что userService удовлетворяет интерфейсу UserService.
var _ UserService = (*userService)(nil)

type userService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
}

// NewUserService создает новый экземпляр сервиса профиля.
func NewUserService(userRepo repository.UserRepository, jwtSecret string) UserService {
	return &userService{userRepo: userRepo, jwtSecret: []byte(jwtSecret)}
}

// GetUserInfo возвращает профиль пользователя с нормализованной ссылкой на аватар.
func (s *userService) GetUserInfo(userID int64) (*models.User, error) {
	ctx := context.Background()

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		log.Printf("[UserService] Ошибка получения профиля пользователя %d: %v", userID, err)
		return nil, errors.New("внутренняя ошибка сервера при получении профиля")
	}

	user.ProfilePicture = NormalizeImageRef(user.ProfilePicture)
	return user, nil
}

// UpdateUserInfo обновляет поля профиля пользователя.
func (s *userService) UpdateUserInfo(userID int64, firstname, middlename, lastname, email string) error {
	ctx := context.Background()

	rows, err := s.userRepo.UpdateUserInfo(ctx, userID, firstname, middlename, lastname, email)
	if err != nil {
		log.Printf("[UserService] Ошибка обновления профиля пользователя %d: %v", userID, err)
		return errors.New("внутренняя ошибка сервера при обновлении профиля")
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	log.Printf("[UserService] Профиль пользователя %d обновлен", userID)
	return nil
}

// UpdateProfilePicture сохраняет ссылку на новый аватар пользователя.
func (s *userService) UpdateProfilePicture(userID int64, ref string) error {
	ctx := context.Background()

	rows, err := s.userRepo.UpdateProfilePicture(ctx, userID, ref)
	if err != nil {
		log.Printf("[UserService] Ошибка сохранения аватара пользователя %d: %v", userID, err)
		return errors.New("внутренняя ошибка сервера при сохранении аватара")
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	log.Printf("[UserService] Аватар пользователя %d обновлен: %s", userID, ref)
	return nil
}

// GetProfilePicture возвращает нормализованную ссылку на аватар пользователя.
func (s *userService) GetProfilePicture(userID int64) (string, error) {
	ctx := context.Background()

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		log.Printf("[UserService] Ошибка получения аватара пользователя %d: %v", userID, err)
		return "", errors.New("внутренняя ошибка сервера при получении аватара")
	}

	return NormalizeImageRef(user.ProfilePicture), nil
}

// VerifyPassword сверяет пароль с текущим хешем. Операция только читает данные.
func (s *userService) VerifyPassword(userID int64, password string) error {
	ctx := context.Background()

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		log.Printf("[UserService] Ошибка чтения пользователя %d для проверки пароля: %v", userID, err)
		return errors.New("внутренняя ошибка сервера при проверке пароля")
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Printf("[UserService] Пароль пользователя %d не совпал", userID)
		return ErrPasswordMismatch
	}
	return nil
}

// ChangePassword выполняет последовательность смены пароля одним конвейером.
// Каждая ошибка несет этап, на котором цепочка оборвалась; обработчик
// превращает этап в свой HTTP-статус и сообщение.
func (s *userService) ChangePassword(userID int64, email, currentPassword, newPassword string) (string, error) {
	ctx := context.Background()

	// Этап 1: читаем текущий хеш
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", &PasswordChangeError{Stage: StageVerify, Err: ErrUserNotFound}
		}
		return "", &PasswordChangeError{Stage: StageVerify, Err: err}
	}

	// Этап 2: сверяем текущий пароль
	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return "", &PasswordChangeError{Stage: StageCompare, Err: ErrPasswordMismatch}
	}

	// Этап 3: хешируем новый пароль
	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", &PasswordChangeError{Stage: StageHash, Err: err}
	}

	// Этап 4: сохраняем новый хеш
	if _, err = s.userRepo.UpdatePassword(ctx, userID, string(newHash)); err != nil {
		return "", &PasswordChangeError{Stage: StageUpdate, Err: err}
	}

	// Этап 5: подписываем новый токен сессии
	token, err := GenerateJWT(s.jwtSecret, userID, email)
	if err != nil {
		return "", &PasswordChangeError{Stage: StageTokenIssue, Err: err}
	}

	// Этап 6: сохраняем токен как текущую сессию
	if _, err = s.userRepo.UpdateToken(ctx, userID, &token); err != nil {
		return "", &PasswordChangeError{Stage: StageTokenUpdate, Err: err}
	}

	log.Printf("[UserService] Пароль пользователя %d успешно изменен, выдан новый токен", userID)
	return token, nil
}

// NormalizeImageRef приводит локальные ссылки на картинки к прямым слешам.
// Абсолютные URL блоб-хранилища возвращаются как есть.
func NormalizeImageRef(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http") {
		return ref
	}
	return strings.ReplaceAll(ref, "\\", "/")
}

// Кастомные ошибки сервиса.
var (
	ErrUserNotFound     = errors.New("пользователь не найден")
	ErrPasswordMismatch = errors.New("пароль не совпадает")
)
