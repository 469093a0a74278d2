package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

type localStorage struct {
	root    string
	baseURL string
	logger  *zap.Logger
}

// NewLocal хранит файлы под root и отдает их по baseURL (например "/media/").
func NewLocal(root, baseURL string, logger *zap.Logger) (Storage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &localStorage{root: abs, baseURL: baseURL, logger: logger.Named("LocalStorage")}, nil
}

func (s *localStorage) Save(ctx context.Context, key string, data []byte, _ string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	s.logger.Debug("File saved", zap.String("key", key), zap.Int("size", len(data)))
	return key, nil
}

func (s *localStorage) URL(key string) string {
	return s.baseURL + strings.TrimPrefix(key, "/")
}
