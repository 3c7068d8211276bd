package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/maynagashev/passvault/internal/mailer"
	"github.com/maynagashev/passvault/internal/models"
	"github.com/maynagashev/passvault/internal/repository"
)

// AuthService определяет интерфейс для сервиса аутентификации.
type AuthService interface {
	// RequestRegistrationOTP отправляет код подтверждения на email нового пользователя.
	RequestRegistrationOTP(email string) error
	// Register проверяет код OTP и создает пользователя. Возвращает JWT токен.
	Register(req *models.RegisterRequest) (string, error)
	// RequestPasswordResetOTP отправляет код подтверждения для сброса пароля.
	RequestPasswordResetOTP(email string) error
	// VerifyPasswordResetOTP проверяет код сброса и гасит его при успехе.
	VerifyPasswordResetOTP(email, otp string) error
	// ResetPassword устанавливает новый пароль и сбрасывает токен сессии.
	ResetPassword(email, newPassword string) error
	// Login аутентифицирует пользователя и возвращает JWT токен.
	Login(email, password string) (string, error)
	// Logout сбрасывает токен текущей сессии.
	Logout(userID int64) error
}

// Константы аутентификации.
const (
	tokenTTL = time.Hour      // Время жизни токена сессии — 1 час
	otpTTL   = 5 * time.Minute // Время жизни кода подтверждения

	// Аватар по умолчанию для новых пользователей.
	defaultProfilePicture = "images/default-profile.png"
)

// Структура для пользовательских данных в JWT (claims).
type jwtClaims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Убедимся, что authService удовлетворяет интерфейсу AuthService.
var _ AuthService = (*authService)(nil)

type authService struct {
	userRepo  repository.UserRepository
	otpRepo   repository.OTPRepository
	mailer    mailer.Mailer
	jwtSecret []byte
}

// NewAuthService создает новый экземпляр сервиса аутентификации.
func NewAuthService(
	userRepo repository.UserRepository,
	otpRepo repository.OTPRepository,
	m mailer.Mailer,
	jwtSecret string,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		otpRepo:   otpRepo,
		mailer:    m,
		jwtSecret: []byte(jwtSecret),
	}
}

// RequestRegistrationOTP генерирует код подтверждения для регистрации,
// сохраняет его и отправляет на указанный email.
func (s *authService) RequestRegistrationOTP(email string) error {
	ctx := context.Background()

	// Регистрация возможна только на свободный email
	_, err := s.userRepo.GetUserByEmail(ctx, email)
	if err == nil {
		log.Printf("[AuthService] Попытка запросить код регистрации на занятый email: %s", email)
		return ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		log.Printf("[AuthService] Ошибка проверки email '%s': %v", email, err)
		return errors.New("внутренняя ошибка сервера при проверке email")
	}

	return s.sendOTP(ctx, email, "Your OTP for Registration")
}

// RequestPasswordResetOTP генерирует код подтверждения для сброса пароля.
func (s *authService) RequestPasswordResetOTP(email string) error {
	ctx := context.Background()

	// Сброс пароля возможен только для существующего пользователя
	if _, err := s.userRepo.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("[AuthService] Запрос сброса пароля для неизвестного email: %s", email)
			return ErrEmailNotFound
		}
		log.Printf("[AuthService] Ошибка проверки email '%s': %v", email, err)
		return errors.New("внутренняя ошибка сервера при проверке email")
	}

	return s.sendOTP(ctx, email, "Password Reset OTP")
}

// sendOTP генерирует шестизначный код, сохраняет его и отправляет письмом.
func (s *authService) sendOTP(ctx context.Context, email, subject string) error {
	code, err := generateOTP()
	if err != nil {
		log.Printf("[AuthService] Ошибка генерации кода для '%s': %v", email, err)
		return errors.New("внутренняя ошибка сервера при генерации кода")
	}

	expiresAt := time.Now().UTC().Add(otpTTL)
	if err = s.otpRepo.UpsertOTP(ctx, email, code, expiresAt); err != nil {
		log.Printf("[AuthService] Ошибка сохранения кода для '%s': %v", email, err)
		return errors.New("внутренняя ошибка сервера при сохранении кода")
	}

	textBody := fmt.Sprintf(
		"Your One-Time Password (OTP) is: %s. It is valid for 5 minutes. Do not share this with anyone.", code)
	htmlBody := fmt.Sprintf("<p>Your One-Time Password (OTP) is: <b>%s</b>.</p>"+
		"<p>It is valid for 5 minutes. Do not share this with anyone.</p>", code)

	if err = s.mailer.Send(email, subject, htmlBody, textBody); err != nil {
		log.Printf("[AuthService] Ошибка отправки кода на '%s': %v", email, err)
		return errors.New("внутренняя ошибка сервера при отправке письма")
	}

	log.Printf("[AuthService] Код подтверждения отправлен на '%s'", email)
	return nil
}

// Register проверяет код OTP, создает пользователя и выдает токен сессии.
func (s *authService) Register(req *models.RegisterRequest) (string, error) {
	ctx := context.Background()

	if err := s.consumeOTP(ctx, req.Email, req.OTP); err != nil {
		return "", err
	}

	// Хешируем пароль
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[AuthService] Ошибка хеширования пароля для '%s': %v", req.Email, err)
		return "", errors.New("внутренняя ошибка сервера при хешировании пароля")
	}

	user := &models.User{
		Firstname:      req.Firstname,
		Lastname:       req.Lastname,
		Email:          req.Email,
		Password:       string(hashedPassword),
		ProfilePicture: defaultProfilePicture,
	}
	if req.Middlename != "" {
		user.Middlename = &req.Middlename
	}

	userID, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			log.Printf("[AuthService] Попытка регистрации с занятым email: %s", req.Email)
			return "", ErrEmailTaken
		}
		log.Printf("[AuthService] Непредвиденная ошибка репозитория при регистрации '%s': %v", req.Email, err)
		return "", errors.New("внутренняя ошибка сервера при создании пользователя")
	}

	token, err := s.issueToken(ctx, userID, req.Email)
	if err != nil {
		return "", err
	}

	log.Printf("[AuthService] Пользователь '%s' успешно зарегистрирован (ID: %d)", req.Email, userID)
	return token, nil
}

// VerifyPasswordResetOTP проверяет код для сброса пароля и гасит его при успехе.
func (s *authService) VerifyPasswordResetOTP(email, otp string) error {
	return s.consumeOTP(context.Background(), email, otp)
}

// consumeOTP сверяет код с сохраненным и удаляет его при успехе.
// Истекший код также удаляется.
func (s *authService) consumeOTP(ctx context.Context, email, otp string) error {
	stored, err := s.otpRepo.GetOTPByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return ErrOTPInvalid
		}
		log.Printf("[AuthService] Ошибка получения кода для '%s': %v", email, err)
		return errors.New("внутренняя ошибка сервера при проверке кода")
	}

	if stored.OTPCode != otp {
		log.Printf("[AuthService] Неверный код подтверждения для '%s'", email)
		return ErrOTPInvalid
	}

	if time.Now().UTC().After(stored.ExpiresAt) {
		log.Printf("[AuthService] Истекший код подтверждения для '%s'", email)
		if delErr := s.otpRepo.DeleteOTP(ctx, email); delErr != nil {
			log.Printf("[AuthService] Ошибка удаления истекшего кода для '%s': %v", email, delErr)
		}
		return ErrOTPExpired
	}

	if err = s.otpRepo.DeleteOTP(ctx, email); err != nil {
		log.Printf("[AuthService] Ошибка удаления использованного кода для '%s': %v", email, err)
	}
	return nil
}

// ResetPassword устанавливает новый пароль по email и сбрасывает токен сессии,
// принудительно разлогинивая пользователя.
func (s *authService) ResetPassword(email, newPassword string) error {
	ctx := context.Background()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[AuthService] Ошибка хеширования нового пароля для '%s': %v", email, err)
		return errors.New("внутренняя ошибка сервера при хешировании пароля")
	}

	rows, err := s.userRepo.UpdatePasswordByEmail(ctx, email, string(hashedPassword))
	if err != nil {
		log.Printf("[AuthService] Ошибка сброса пароля для '%s': %v", email, err)
		return errors.New("внутренняя ошибка сервера при сбросе пароля")
	}
	if rows == 0 {
		return ErrEmailNotFound
	}

	if err = s.userRepo.ClearTokenByEmail(ctx, email); err != nil {
		log.Printf("[AuthService] Ошибка сброса токена для '%s': %v", email, err)
		return errors.New("внутренняя ошибка сервера при сбросе сессии")
	}

	log.Printf("[AuthService] Пароль для '%s' успешно сброшен", email)
	return nil
}

// Login аутентифицирует пользователя и возвращает JWT токен.
func (s *authService) Login(email, password string) (string, error) {
	ctx := context.Background()

	// Получаем пользователя по email
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("[AuthService] Попытка входа несуществующего пользователя: %s", email)
			return "", ErrInvalidCredentials // Общая ошибка для несуществующего пользователя и неверного пароля
		}
		log.Printf("[AuthService] Ошибка репозитория при поиске '%s': %v", email, err)
		return "", errors.New("внутренняя ошибка сервера при поиске пользователя")
	}

	// Сравниваем предоставленный пароль с хешем из базы данных
	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		// Ошибка сравнения означает неверный пароль (или другую проблему bcrypt)
		log.Printf("[AuthService] Неверный пароль для пользователя: %s", email)
		return "", ErrInvalidCredentials // Общая ошибка
	}

	token, err := s.issueToken(ctx, user.ID, user.Email)
	if err != nil {
		return "", err
	}

	log.Printf("[AuthService] Пользователь '%s' успешно аутентифицирован", email)
	return token, nil
}

// Logout сбрасывает токен текущей сессии пользователя.
func (s *authService) Logout(userID int64) error {
	ctx := context.Background()

	if _, err := s.userRepo.UpdateToken(ctx, userID, nil); err != nil {
		log.Printf("[AuthService] Ошибка сброса токена пользователя %d: %v", userID, err)
		return errors.New("внутренняя ошибка сервера при выходе")
	}

	log.Printf("[AuthService] Пользователь %d вышел из системы", userID)
	return nil
}

// issueToken генерирует JWT и сохраняет его как токен текущей сессии.
func (s *authService) issueToken(ctx context.Context, userID int64, email string) (string, error) {
	token, err := GenerateJWT(s.jwtSecret, userID, email)
	if err != nil {
		log.Printf("[AuthService] Ошибка генерации JWT для '%s': %v", email, err)
		return "", errors.New("внутренняя ошибка сервера при генерации токена")
	}

	if _, err = s.userRepo.UpdateToken(ctx, userID, &token); err != nil {
		log.Printf("[AuthService] Ошибка сохранения токена пользователя %d: %v", userID, err)
		return "", errors.New("внутренняя ошибка сервера при сохранении токена")
	}
	return token, nil
}

// GenerateJWT создает и подписывает токен сессии с полезной нагрузкой id+email.
func GenerateJWT(secret []byte, userID int64, email string) (string, error) {
	claims := jwtClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)), // Время истечения
			IssuedAt:  jwt.NewNumericDate(time.Now()),               // Время выдачи
		},
	}

	// Создаем токен с нашими claims и методом подписи HS256
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи JWT: %w", err)
	}

	return signedToken, nil
}

// generateOTP возвращает случайный шестизначный код.
func generateOTP() (string, error) {
	var sb strings.Builder
	for range 6 {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteString(n.String())
	}
	return sb.String(), nil
}

// Кастомные ошибки сервиса.
var (
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	ErrEmailTaken         = errors.New("email уже занят")
	ErrEmailNotFound      = errors.New("email не найден")
	ErrOTPInvalid         = errors.New("неверный или истекший код подтверждения")
	ErrOTPExpired         = errors.New("код подтверждения истек")
)
