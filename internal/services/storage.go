package services

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"uninews/internal/config"
	"uninews/internal/logger"

	"go.uber.org/zap"
)

// FileStorage кладёт картинки постов на диск и отдаёт публичные ссылки.
// Путь объекта фиксирован контрактом: posts/{postId}/image — повторная
// загрузка для того же поста просто перезаписывает файл.
type FileStorage struct {
	dir     string
	baseURL string
}

func NewFileStorage(cfg *config.Config) *FileStorage {
	return &FileStorage{
		dir:     cfg.UploadDir,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// SaveDataURL принимает data URL (data:image/png;base64,...), раскодирует и
// сохраняет по objectPath, возвращая публичную ссылку.
func (s *FileStorage) SaveDataURL(objectPath, dataURL string) (string, error) {
	payload, err := decodeDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fullPath := filepath.Join(s.dir, filepath.FromSlash(objectPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, payload, 0o644); err != nil {
		return "", err
	}

	url := s.baseURL + "/uploads/" + objectPath
	logger.Log.Info("Файл сохранён", zap.String("path", fullPath), zap.String("url", url))
	return url, nil
}

func decodeDataURL(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return nil, fmt.Errorf("ожидался data URL")
	}
	meta, encoded, ok := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("ожидалась base64-кодировка")
	}

	mime := strings.TrimSuffix(meta, ";base64")
	switch mime {
	case "image/png", "image/jpeg":
	default:
		return nil, fmt.Errorf("неподдерживаемый тип изображения: %s", mime)
	}

	return base64.StdEncoding.DecodeString(encoded)
}
