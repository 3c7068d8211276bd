// Package storage предоставляет единую абстракцию сохранения загруженных
// файлов с двумя реализациями: блоб-хранилище (MinIO) и локальный диск.
package storage

import (
	"context"
	"errors"
	"log"

	"github.com/maynagashev/passvault/internal/upload"
)

// FileStorage определяет интерфейс сохранения загруженного файла.
// Store возвращает стабильную ссылку, по которой файл можно получить позже:
// относительный путь "images/..." для диска или публичный URL для блоба.
type FileStorage interface {
	Store(ctx context.Context, file *upload.File, folder string) (*StoredFile, error)
}

// StoredFile — результат сохранения: ссылка плюс отмена.
// Обработчик, у которого упала последующая запись в БД, вызывает Discard,
// чтобы не оставлять осиротевший файл; после успешной записи файл остается.
type StoredFile struct {
	Ref     string
	discard func() error
}

// NewStoredFile создает результат сохранения. discard может быть nil,
// если отмена не поддерживается (блоб-хранилище).
func NewStoredFile(ref string, discard func() error) *StoredFile {
	return &StoredFile{Ref: ref, discard: discard}
}

// Discard удаляет сохраненный файл. Ошибка удаления только логируется:
// очистка после сбоя не должна ломать ответ клиенту.
func (f *StoredFile) Discard() {
	if f == nil || f.discard == nil {
		return
	}
	if err := f.discard(); err != nil {
		log.Printf("[Storage] Ошибка удаления сохраненного файла '%s': %v", f.Ref, err)
	}
}

// Кастомные ошибки хранилища. Обработчики различают по ним сбой загрузки
// в блоб и сбой обработки файла на диске.
var (
	ErrBlobUpload     = errors.New("ошибка загрузки файла в блоб-хранилище")
	ErrFileProcessing = errors.New("ошибка обработки загруженного файла")
)
