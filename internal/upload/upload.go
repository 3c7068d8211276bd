// Package upload отвечает за разбор и валидацию multipart-загрузок до того,
// как управление попадет в обработчик: фильтр типов файлов и лимит размера
// применяются здесь.
package upload

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxFileSize — максимальный размер загружаемого файла (5 МБ).
	MaxFileSize = 5 * 1024 * 1024
	// Память, выделяемая на разбор multipart-формы; остальное уходит на диск.
	maxMultipartMemory = 8 * 1024 * 1024
)

// Разрешены только картинки.
var allowedExtensions = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".gif":  {},
}

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
}

// Кастомные ошибки валидации. Обработчики отвечают на них статусом 400.
var (
	ErrFileTooLarge    = errors.New("файл превышает максимальный размер 5 МБ")
	ErrInvalidFileType = errors.New("разрешены только изображения (jpeg, jpg, png, gif)")
)

// File — принятый и провалидированный загруженный файл.
// В дисковом режиме содержимое лежит во временном файле (TempPath),
// в режиме in-memory — в буфере Data.
type File struct {
	FieldName    string // Имя поля формы
	OriginalName string // Имя файла у клиента
	Filename     string // Сгенерированное уникальное имя
	ContentType  string
	Size         int64
	TempPath     string // Путь к временному файлу (дисковый режим)
	Data         []byte // Содержимое файла (режим in-memory)
}

// Parser разбирает multipart-форму и принимает файл в одном из двух режимов:
// во временный файл (для локального дискового хранилища) или в память
// (для блоб-хранилища).
type Parser struct {
	maxSize  int64
	inMemory bool
	tmpDir   string
}

// NewParser создает парсер загрузок. inMemory=true буферизует файл в памяти.
func NewParser(inMemory bool) *Parser {
	return &Parser{
		maxSize:  MaxFileSize,
		inMemory: inMemory,
		tmpDir:   os.TempDir(),
	}
}

// FromRequest извлекает файл из поля field multipart-формы.
// Возвращает (nil, nil), если файл не был приложен: для части операций
// файл необязателен.
func (p *Parser) FromRequest(r *http.Request, field string) (*File, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil // Обычная форма без файла
		}
		return nil, fmt.Errorf("ошибка разбора multipart-формы: %w", err)
	}

	src, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil // Файл не приложен
		}
		return nil, fmt.Errorf("ошибка чтения файла из формы: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			log.Printf("[Upload] Ошибка закрытия файла формы: %v", closeErr)
		}
	}()

	if header.Size > p.maxSize {
		log.Printf("[Upload] Файл '%s' отклонен: размер %d превышает лимит", header.Filename, header.Size)
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType := header.Header.Get("Content-Type")
	if _, ok := allowedExtensions[ext]; !ok {
		log.Printf("[Upload] Файл '%s' отклонен: недопустимое расширение '%s'", header.Filename, ext)
		return nil, ErrInvalidFileType
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		log.Printf("[Upload] Файл '%s' отклонен: недопустимый Content-Type '%s'", header.Filename, contentType)
		return nil, ErrInvalidFileType
	}

	file := &File{
		FieldName:    field,
		OriginalName: header.Filename,
		Filename:     generateFilename(field, ext),
		ContentType:  contentType,
		Size:         header.Size,
	}

	if p.inMemory {
		data, readErr := io.ReadAll(io.LimitReader(src, p.maxSize))
		if readErr != nil {
			return nil, fmt.Errorf("ошибка чтения файла в память: %w", readErr)
		}
		file.Data = data
		file.Size = int64(len(data))
		return file, nil
	}

	// Дисковый режим: сохраняем во временный файл, дальше им занимается хранилище.
	tmp, tmpErr := os.CreateTemp(p.tmpDir, "upload-*"+ext)
	if tmpErr != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", tmpErr)
	}
	written, copyErr := io.Copy(tmp, io.LimitReader(src, p.maxSize))
	if closeErr := tmp.Close(); closeErr != nil {
		log.Printf("[Upload] Ошибка закрытия временного файла '%s': %v", tmp.Name(), closeErr)
	}
	if copyErr != nil {
		removeTemp(tmp.Name())
		return nil, fmt.Errorf("ошибка записи временного файла: %w", copyErr)
	}
	file.TempPath = tmp.Name()
	file.Size = written

	log.Printf("[Upload] Файл '%s' принят как '%s' (%d байт)", header.Filename, file.Filename, file.Size)
	return file, nil
}

// generateFilename собирает уникальное имя файла: {поле}-{время}-{uuid}{расширение}.
func generateFilename(field, ext string) string {
	return fmt.Sprintf("%s-%d-%s%s", field, time.Now().UnixMilli(), uuid.NewString(), ext)
}

// removeTemp удаляет временный файл, только логируя неудачу.
func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[Upload] Ошибка удаления временного файла '%s': %v", path, err)
	}
}
