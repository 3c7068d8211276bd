package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/maynagashev/passvault/internal/upload"
)

// LocalDiskStorage реализует FileStorage для локального диска: принятый во
// временный файл аплоад переносится в каталог картинок фронтенда.
type LocalDiskStorage struct {
	imagesDir string
}

// NewLocalDiskStorage создает дисковое хранилище. imagesDir — явно
// сконфигурированный каталог картинок; пустое значение включает поиск
// каталога относительно baseDir (унаследованная цепочка fallback-путей).
func NewLocalDiskStorage(imagesDir, baseDir string) *LocalDiskStorage {
	if imagesDir == "" {
		imagesDir = ResolveImagesDir(baseDir)
		log.Printf("[LocalDisk] Каталог картинок не задан, выбран по fallback-цепочке: %s", imagesDir)
	}
	return &LocalDiskStorage{imagesDir: imagesDir}
}

// ImagesDir возвращает каталог, в котором хранятся картинки.
func (s *LocalDiskStorage) ImagesDir() string {
	return s.imagesDir
}

// ResolveImagesDir подбирает каталог картинок перебором путей относительно
// baseDir: ../../frontend/images, ../frontend/images, frontend/images —
// побеждает первый существующий родительский каталог frontend.
// Цепочка хрупкая и завязана на раскладку деплоя; используется только
// когда явный каталог не сконфигурирован.
func ResolveImagesDir(baseDir string) string {
	imagesDir := filepath.Join(baseDir, "..", "..", "frontend", "images")
	if dirExists(filepath.Join(baseDir, "..", "..", "frontend")) {
		return imagesDir
	}
	imagesDir = filepath.Join(baseDir, "..", "frontend", "images")
	if dirExists(filepath.Join(baseDir, "..", "frontend")) {
		return imagesDir
	}
	return filepath.Join(baseDir, "frontend", "images")
}

// Store переносит временный файл в каталог картинок и возвращает
// относительную ссылку "images/{имя файла}".
func (s *LocalDiskStorage) Store(_ context.Context, file *upload.File, _ string) (*StoredFile, error) {
	// Создаем каталог, если его еще нет
	if err := os.MkdirAll(s.imagesDir, 0o755); err != nil {
		log.Printf("[LocalDisk] Ошибка создания каталога '%s': %v", s.imagesDir, err)
		return nil, fmt.Errorf("%w: создание каталога: %w", ErrFileProcessing, err)
	}

	targetPath := filepath.Join(s.imagesDir, file.Filename)
	if err := moveFile(file.TempPath, targetPath); err != nil {
		log.Printf("[LocalDisk] Ошибка перемещения '%s' в '%s': %v", file.TempPath, targetPath, err)
		return nil, fmt.Errorf("%w: %w", ErrFileProcessing, err)
	}

	log.Printf("[LocalDisk] Файл сохранен: %s", targetPath)
	ref := "images/" + file.Filename
	return NewStoredFile(ref, func() error {
		return os.Remove(targetPath)
	}), nil
}

// moveFile переносит файл через rename, а при неудаче (например, другой
// раздел диска) копирует и удаляет оригинал.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	log.Printf("[LocalDisk] Rename не удался, пробуем копирование: %s -> %s", src, dst)

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("открытие исходного файла: %w", err)
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil {
			log.Printf("[LocalDisk] Ошибка закрытия исходного файла '%s': %v", src, closeErr)
		}
	}()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("создание целевого файла: %w", err)
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("копирование файла: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("закрытие целевого файла: %w", err)
	}

	if err = os.Remove(src); err != nil {
		// Оригинал скопирован, его удаление — уже не причина ронять загрузку
		log.Printf("[LocalDisk] Ошибка удаления оригинала '%s' после копирования: %v", src, err)
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
