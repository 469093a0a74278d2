package interfaces

import (
	"context"
	"time"

	"novel-stella/internal/models"
)

// TokenRepository defines token persistence (Redis).
// Отсутствие ключа означает, что токен отозван или истек.
type TokenRepository interface {
	// SetToken stores the access and refresh UUIDs mapped to the user with their TTLs.
	SetToken(ctx context.Context, userID int64, td *models.TokenDetails) error

	// DeleteTokens removes the given token UUIDs. Returns the number of keys deleted.
	DeleteTokens(ctx context.Context, userID int64, accessUUID, refreshUUID string) (int64, error)

	// GetUserIDByAccessUUID returns models.ErrTokenNotFound if the token is unknown.
	GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (int64, error)

	// GetUserIDByRefreshUUID returns models.ErrTokenNotFound if the token is unknown.
	GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (int64, error)

	// ConsumeRefreshUUID атомарно читает и удаляет refresh-ключ (GETDEL).
	// Повторный вызов для того же UUID возвращает models.ErrTokenNotFound.
	ConsumeRefreshUUID(ctx context.Context, refreshUUID string) (int64, error)

	// DeleteTokensByUserID отзывает все токены пользователя.
	DeleteTokensByUserID(ctx context.Context, userID int64) (int64, error)
}

// VerificationRepository stores one-time keys for email confirmation and password reset.
type VerificationRepository interface {
	SaveConfirmationKey(ctx context.Context, key string, userID int64, ttl time.Duration) error

	// ConsumeConfirmationKey returns the user and deletes the key.
	// models.ErrInvalidConfirmationKey if the key is unknown or expired.
	ConsumeConfirmationKey(ctx context.Context, key string) (int64, error)

	SaveResetToken(ctx context.Context, token string, userID int64, ttl time.Duration) error

	// ConsumeResetToken удаляет токен, только если он выдан userID.
	// models.ErrInvalidPasswordResetLink if the token is unknown or belongs to another user;
	// в последнем случае токен остается действительным для владельца.
	ConsumeResetToken(ctx context.Context, token string, userID int64) error
}
