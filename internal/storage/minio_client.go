package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/maynagashev/passvault/internal/upload"
)

// MinioStorage реализует FileStorage для объектного хранилища MinIO (S3-совместимого).
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string // Логин
	SecretAccessKey string // Пароль
	UseSSL          bool   // Использовать SSL (обычно false для локальной разработки)
	BucketName      string // Имя бакета для хранения файлов
	Region          string // Регион (не обязательно для MinIO, но может требоваться)
}

// NewMinioStorage создает новый клиент MinIO и убеждается, что бакет существует.
func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	log.Printf("Инициализация клиента MinIO для эндпоинта %s...", cfg.Endpoint)

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	// Проверка доступности MinIO
	// Необязательно, но полезно для раннего обнаружения проблем
	_, err = minioClient.ListBuckets(context.Background())
	if err != nil {
		log.Printf("Предупреждение: не удалось проверить соединение с MinIO: %v. Проверьте доступность и креды.", err)
		// Не возвращаем ошибку, чтобы сервер мог запуститься, даже если MinIO временно недоступен
	}

	// Проверка существования бакета и создание при необходимости
	ctx := context.Background()
	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		log.Printf("Бакет '%s' не найден, попытка создания...", cfg.BucketName)
		err = minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
		log.Printf("Бакет '%s' успешно создан.", cfg.BucketName)
	} else {
		log.Printf("Бакет '%s' уже существует.", cfg.BucketName)
	}

	log.Printf("Клиент MinIO успешно инициализирован для бакета '%s'.", cfg.BucketName)
	return &MinioStorage{
		client:     minioClient,
		bucketName: cfg.BucketName,
	}, nil
}

// Store загружает содержимое файла из памяти под ключом {folder}/{имя файла}
// и возвращает публичный URL объекта. Удаление при откате не поддерживается:
// осиротевший объект в блоб-хранилище — принятый риск.
func (s *MinioStorage) Store(ctx context.Context, file *upload.File, folder string) (*StoredFile, error) {
	objectKey := folder + "/" + file.Filename
	log.Printf("[Minio] Загрузка файла '%s' в бакет '%s'...", objectKey, s.bucketName)

	opts := minio.PutObjectOptions{
		ContentType: file.ContentType,
	}

	uploadInfo, err := s.client.PutObject(ctx, s.bucketName, objectKey, bytes.NewReader(file.Data), file.Size, opts)
	if err != nil {
		log.Printf("[Minio] Ошибка загрузки файла '%s': %v", objectKey, err)
		return nil, fmt.Errorf("%w: %w", ErrBlobUpload, err)
	}

	log.Printf("[Minio] Файл '%s' успешно загружен, размер: %d, ETag: %s", objectKey, uploadInfo.Size, uploadInfo.ETag)

	publicURL := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL(), s.bucketName, objectKey)
	return NewStoredFile(publicURL, nil), nil
}
