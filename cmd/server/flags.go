package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
)

const (
	// Порт по умолчанию (непривилегированный).
	defaultServerPort = "8000"

	// Режимы хранения загружаемых картинок.
	storageModeLocal = "local"
	storageModeBlob  = "blob"

	defaultStorageMode = storageModeLocal
	defaultBaseURL     = "http://localhost:8000"

	// Значения по умолчанию для MinIO (из docker-compose).
	defaultMinioEndpoint = "localhost:9000"
	defaultMinioUser     = "minioadmin"
	defaultMinioPassword = "minioadmin"
	defaultMinioBucket   = "passvault-images"

	defaultSMTPPort = 587

	// Переменные окружения.
	envServerPort  = "SERVER_PORT"
	envTLSCertFile = "TLS_CERT_FILE"
	envTLSKeyFile  = "TLS_KEY_FILE"
	envDatabaseDSN = "DATABASE_DSN"
	envJWTSecret   = "JWT_SECRET" //nolint:gosec // Имя переменной окружения, не секрет
	envBaseURL     = "BASE_URL"
	envStorageMode = "STORAGE_MODE"
	envImagesDir   = "IMAGES_DIR"

	envMinioEndpoint = "MINIO_ENDPOINT"
	envMinioUser     = "MINIO_USER"
	envMinioPassword = "MINIO_PASSWORD"
	envMinioBucket   = "MINIO_BUCKET"

	envSMTPHost     = "SMTP_HOST"
	envSMTPPort     = "SMTP_PORT"
	envSMTPUser     = "SMTP_USER"
	envSMTPPassword = "SMTP_PASSWORD"
	envSMTPFrom     = "SMTP_FROM"
)

// config хранит конфигурацию сервера.
type config struct {
	Port        string
	CertFile    string
	KeyFile     string
	DatabaseDSN string
	JWTSecret   string
	// BaseURL используется для построения абсолютных ссылок на локальные картинки.
	BaseURL string
	// StorageMode: "local" — картинки на диске, "blob" — в MinIO.
	StorageMode string
	// ImagesDir — явный каталог картинок для режима local.
	// Пустое значение включает поиск каталога по унаследованной fallback-цепочке.
	ImagesDir string

	MinioEndpoint string
	MinioUser     string
	MinioPassword string
	MinioBucket   string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

// parseFlags разбирает флаги и переменные окружения, возвращает config или ошибку.
func parseFlags() (*config, error) {
	cfg := &config{}

	// Определяем флаги
	flag.StringVar(&cfg.Port, "port", "",
		fmt.Sprintf("Порт для запуска сервера (env: %s, default: %s)", envServerPort, defaultServerPort))
	flag.StringVar(&cfg.CertFile, "cert-file", "",
		fmt.Sprintf("Путь к файлу TLS-сертификата, опционально (env: %s)", envTLSCertFile))
	flag.StringVar(&cfg.KeyFile, "key-file", "",
		fmt.Sprintf("Путь к файлу TLS-ключа, опционально (env: %s)", envTLSKeyFile))
	flag.StringVar(&cfg.DatabaseDSN, "database-dsn", "",
		fmt.Sprintf("Строка подключения к базе данных (env: %s)", envDatabaseDSN))
	flag.StringVar(&cfg.JWTSecret, "jwt-secret", "",
		fmt.Sprintf("Секрет для подписи JWT (env: %s)", envJWTSecret))
	flag.StringVar(&cfg.BaseURL, "base-url", "",
		fmt.Sprintf("Базовый URL сервера для ссылок на картинки (env: %s, default: %s)", envBaseURL, defaultBaseURL))
	flag.StringVar(&cfg.StorageMode, "storage-mode", "",
		fmt.Sprintf("Режим хранения картинок: local или blob (env: %s, default: %s)", envStorageMode, defaultStorageMode))
	flag.StringVar(&cfg.ImagesDir, "images-dir", "",
		fmt.Sprintf("Каталог картинок для режима local (env: %s)", envImagesDir))

	flag.StringVar(&cfg.MinioEndpoint, "minio-endpoint", "",
		fmt.Sprintf("Адрес MinIO (env: %s, default: %s)", envMinioEndpoint, defaultMinioEndpoint))
	flag.StringVar(&cfg.MinioUser, "minio-user", "",
		fmt.Sprintf("Логин MinIO (env: %s)", envMinioUser))
	flag.StringVar(&cfg.MinioPassword, "minio-password", "",
		fmt.Sprintf("Пароль MinIO (env: %s)", envMinioPassword))
	flag.StringVar(&cfg.MinioBucket, "minio-bucket", "",
		fmt.Sprintf("Имя бакета MinIO (env: %s, default: %s)", envMinioBucket, defaultMinioBucket))

	flag.StringVar(&cfg.SMTPHost, "smtp-host", "",
		fmt.Sprintf("SMTP-сервер для отправки кодов подтверждения (env: %s)", envSMTPHost))
	flag.IntVar(&cfg.SMTPPort, "smtp-port", 0,
		fmt.Sprintf("Порт SMTP-сервера (env: %s, default: %d)", envSMTPPort, defaultSMTPPort))
	flag.StringVar(&cfg.SMTPUser, "smtp-user", "",
		fmt.Sprintf("Логин SMTP (env: %s)", envSMTPUser))
	flag.StringVar(&cfg.SMTPPassword, "smtp-password", "",
		fmt.Sprintf("Пароль SMTP (env: %s)", envSMTPPassword))
	flag.StringVar(&cfg.SMTPFrom, "smtp-from", "",
		fmt.Sprintf("Адрес отправителя писем (env: %s)", envSMTPFrom))

	// Парсим флаги
	flag.Parse()

	// Применяем переменные окружения, если флаги не заданы
	applyEnvString(&cfg.Port, envServerPort, defaultServerPort)
	applyEnvString(&cfg.CertFile, envTLSCertFile, "")
	applyEnvString(&cfg.KeyFile, envTLSKeyFile, "")
	applyEnvString(&cfg.DatabaseDSN, envDatabaseDSN, "")
	applyEnvString(&cfg.JWTSecret, envJWTSecret, "")
	applyEnvString(&cfg.BaseURL, envBaseURL, defaultBaseURL)
	applyEnvString(&cfg.StorageMode, envStorageMode, defaultStorageMode)
	applyEnvString(&cfg.ImagesDir, envImagesDir, "")

	applyEnvString(&cfg.MinioEndpoint, envMinioEndpoint, defaultMinioEndpoint)
	applyEnvString(&cfg.MinioUser, envMinioUser, defaultMinioUser)
	applyEnvString(&cfg.MinioPassword, envMinioPassword, defaultMinioPassword)
	applyEnvString(&cfg.MinioBucket, envMinioBucket, defaultMinioBucket)

	applyEnvString(&cfg.SMTPHost, envSMTPHost, "")
	applyEnvString(&cfg.SMTPUser, envSMTPUser, "")
	applyEnvString(&cfg.SMTPPassword, envSMTPPassword, "")
	applyEnvString(&cfg.SMTPFrom, envSMTPFrom, "")
	if cfg.SMTPPort == 0 {
		if value, ok := os.LookupEnv(envSMTPPort); ok {
			port, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("некорректный порт SMTP в %s: %q", envSMTPPort, value)
			}
			cfg.SMTPPort = port
		} else {
			cfg.SMTPPort = defaultSMTPPort
		}
	}

	// Проверяем обязательные параметры
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("не указана строка подключения к БД (--database-dsn или " + envDatabaseDSN + ")")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("не указан секрет для подписи JWT (--jwt-secret или " + envJWTSecret + ")")
	}
	if cfg.StorageMode != storageModeLocal && cfg.StorageMode != storageModeBlob {
		return nil, fmt.Errorf("некорректный режим хранения %q: допустимы %q и %q",
			cfg.StorageMode, storageModeLocal, storageModeBlob)
	}
	// TLS включается только парой сертификат+ключ
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, errors.New("для TLS нужны оба файла: --cert-file и --key-file")
	}

	return cfg, nil
}

// applyEnvString подставляет значение из переменной окружения или значение
// по умолчанию, если флаг не задан.
func applyEnvString(dst *string, envName, fallback string) {
	if *dst != "" {
		return
	}
	if value, ok := os.LookupEnv(envName); ok {
		*dst = value
		return
	}
	*dst = fallback
}
