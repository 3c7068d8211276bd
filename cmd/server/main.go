package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Драйвер PostgreSQL

	"github.com/maynagashev/passvault/internal/handlers"
	"github.com/maynagashev/passvault/internal/mailer"
	appmiddleware "github.com/maynagashev/passvault/internal/middleware"
	"github.com/maynagashev/passvault/internal/repository"
	"github.com/maynagashev/passvault/internal/services"
	"github.com/maynagashev/passvault/internal/storage"
	"github.com/maynagashev/passvault/internal/upload"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 30 * time.Second
)

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db             *sqlx.DB
	fileStorage    storage.FileStorage
	imagesDir      string // Каталог локальных картинок; пустой в режиме blob
	authHandler    *handlers.AuthHandler
	userHandler    *handlers.UserHandler
	accountHandler *handlers.AccountHandler
	itemHandler    *handlers.ItemHandler
	authenticator  *appmiddleware.Authenticator
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		log.Printf("Ошибка выполнения сервера: %v", err)
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	log.Println("Запуск сервера PassVault...")

	cfg, err := parseFlags()
	if err != nil {
		return fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	// Инициализация зависимостей
	deps, err := setupDependencies(cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	// Отложенное закрытие соединения с БД
	defer func() {
		if deps.db != nil {
			if closeErr := deps.db.Close(); closeErr != nil {
				log.Printf("Ошибка закрытия соединения с БД: %v", closeErr)
			}
		}
	}()

	// Настройка роутера
	r := setupRouter(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		log.Printf("Запуск HTTPS-сервера на порту %s...", cfg.Port)
		log.Printf("Используется сертификат: %s", cfg.CertFile)
		err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
	} else {
		log.Printf("Запуск HTTP-сервера на порту %s...", cfg.Port)
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ошибка запуска сервера: %w", err)
	}
	return nil
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(cfg *config) (*dependencies, error) {
	deps := &dependencies{}
	var err error

	// 1. Подключение к БД и миграции
	deps.db, err = repository.NewPostgresDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}
	log.Println("Соединение с БД успешно установлено.")

	if err = repository.RunMigrations(deps.db); err != nil {
		closeDB(deps.db)
		return nil, fmt.Errorf("ошибка применения миграций: %w", err)
	}

	// 2. Выбор хранилища картинок: блоб или локальный диск
	var parser *upload.Parser
	switch cfg.StorageMode {
	case storageModeBlob:
		minioCfg := storage.MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioUser,
			SecretAccessKey: cfg.MinioPassword,
			UseSSL:          false, // Для локальной разработки
			BucketName:      cfg.MinioBucket,
		}
		deps.fileStorage, err = storage.NewMinioStorage(minioCfg)
		if err != nil {
			closeDB(deps.db)
			return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
		}
		// Блоб-хранилище принимает файл из памяти
		parser = upload.NewParser(true)
	case storageModeLocal:
		baseDir, wdErr := os.Getwd()
		if wdErr != nil {
			closeDB(deps.db)
			return nil, fmt.Errorf("ошибка определения рабочего каталога: %w", wdErr)
		}
		localStorage := storage.NewLocalDiskStorage(cfg.ImagesDir, baseDir)
		deps.fileStorage = localStorage
		deps.imagesDir = localStorage.ImagesDir()
		// Дисковое хранилище переносит файл из временного каталога
		parser = upload.NewParser(false)
	default:
		closeDB(deps.db)
		return nil, fmt.Errorf("неизвестный режим хранения: %q", cfg.StorageMode)
	}

	// 3. Почтовый клиент для кодов подтверждения
	m := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	// 4. Создание репозиториев
	userRepo := repository.NewPostgresUserRepository(deps.db)
	accountRepo := repository.NewPostgresAccountRepository(deps.db)
	itemRepo := repository.NewPostgresItemRepository(deps.db)
	otpRepo := repository.NewPostgresOTPRepository(deps.db)

	// 5. Создание сервисов
	authService := services.NewAuthService(userRepo, otpRepo, m, cfg.JWTSecret)
	userService := services.NewUserService(userRepo, cfg.JWTSecret)
	accountService := services.NewAccountService(accountRepo)
	itemService := services.NewItemService(itemRepo)

	// 6. Создание обработчиков и middleware аутентификации
	deps.authHandler = handlers.NewAuthHandler(authService)
	deps.userHandler = handlers.NewUserHandler(userService, deps.fileStorage, parser, cfg.BaseURL)
	deps.accountHandler = handlers.NewAccountHandler(accountService, deps.fileStorage, parser)
	deps.itemHandler = handlers.NewItemHandler(itemService)
	deps.authenticator = appmiddleware.NewAuthenticator(cfg.JWTSecret, userRepo)

	return deps, nil
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(deps *dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	// Раздача локальных картинок. В режиме blob клиент ходит напрямую в хранилище.
	if deps.imagesDir != "" {
		fileServer := http.StripPrefix("/images/", http.FileServer(http.Dir(deps.imagesDir)))
		r.Get("/images/*", fileServer.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		// Публичные маршруты (регистрация, вход, восстановление пароля)
		r.Post("/request-otp", deps.authHandler.RequestOTP)
		r.Post("/verify-otp-and-register", deps.authHandler.Register)
		r.Post("/login", deps.authHandler.Login)
		r.Route("/forgot-password", func(r chi.Router) {
			r.Post("/request-otp", deps.authHandler.RequestPasswordResetOTP)
			r.Post("/verify-otp", deps.authHandler.VerifyPasswordResetOTP)
			r.Post("/reset", deps.authHandler.ResetPassword)
		})

		// Приватные маршруты (требуют аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(deps.authenticator.Middleware)

			r.Post("/logout", deps.authHandler.Logout)

			// Профиль
			r.Get("/user-info", deps.userHandler.GetUserInfo)
			r.Put("/users/{id}", deps.userHandler.UpdateUserInfo)
			r.Post("/upload-profile-picture", deps.userHandler.UploadProfilePicture)
			r.Get("/profile-picture", deps.userHandler.GetProfilePicture)
			r.Post("/verify-current-password", deps.userHandler.VerifyCurrentPassword)
			r.Post("/change-password", deps.userHandler.ChangePassword)

			// Сохраненные учетные записи
			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", deps.accountHandler.CreateAccount)
				r.Get("/", deps.accountHandler.GetAccounts)
				r.Put("/{id}", deps.accountHandler.UpdateAccount)
				r.Delete("/{id}", deps.accountHandler.DeleteAccount)
			})

			// Произвольные заметки
			r.Route("/items", func(r chi.Router) {
				r.Post("/", deps.itemHandler.CreateItem)
				r.Get("/", deps.itemHandler.GetItems)
				r.Put("/", deps.itemHandler.UpdateItem)
				r.Delete("/", deps.itemHandler.DeleteItem)
			})
		})
	})
	return r
}

// closeDB закрывает соединение с БД при ошибке инициализации.
func closeDB(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("Ошибка закрытия соединения с БД: %v", err)
	}
}
