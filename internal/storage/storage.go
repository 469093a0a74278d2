// Package storage сохраняет медиафайлы (картинки глав) локально или в S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"novel-stella/internal/config"

	"go.uber.org/zap"
)

// ErrInvalidKey - ключ пустой или выходит за пределы хранилища.
var ErrInvalidKey = errors.New("invalid storage key")

// Storage - хранилище медиафайлов. Key - относительный путь вида "chapters/x.png".
//
//go:generate mockery --name Storage --output ../mocks --outpkg mocks --case=underscore
type Storage interface {
	// Save записывает данные и возвращает сохраненный ключ.
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// URL returns the public URL of key (absolute for S3, MEDIA_URL-relative locally).
	URL(key string) string
}

// New выбирает реализацию по cfg.StorageType ("local" или "s3").
func New(cfg *config.Config, logger *zap.Logger) (Storage, error) {
	switch strings.ToLower(cfg.StorageType) {
	case "", "local":
		return NewLocal(cfg.MediaRoot, cfg.MediaURL, logger)
	case "s3":
		return NewS3(S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage type: '%s'", cfg.StorageType)
	}
}

var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}_\-.]+`)

// SanitizeName заменяет пробелы и спецсимволы на "_" для имени файла.
func SanitizeName(name string) string {
	name = unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "untitled"
	}
	return name
}

// ChapterImageKey строит ключ chapters/<title>_chapter_<n>.png.
func ChapterImageKey(title string, chapterNum int) string {
	return fmt.Sprintf("chapters/%s_chapter_%d.png", SanitizeName(title), chapterNum)
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(key)), "/")
	if key == "" || key == "." {
		return "", ErrInvalidKey
	}
	return key, nil
}
