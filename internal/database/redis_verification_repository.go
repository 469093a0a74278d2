package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"novel-stella/internal/interfaces"
	"novel-stella/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	confirmationKeyPrefix = "email_confirm:"
	resetTokenPrefix      = "password_reset:"
)

var _ interfaces.VerificationRepository = (*redisVerificationRepository)(nil)

type redisVerificationRepository struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewRedisVerificationRepository хранит одноразовые ключи подтверждения email и сброса пароля.
func NewRedisVerificationRepository(client redis.UniversalClient, logger *zap.Logger) interfaces.VerificationRepository {
	return &redisVerificationRepository{client: client, logger: logger.Named("RedisVerificationRepo")}
}

func (r *redisVerificationRepository) SaveConfirmationKey(ctx context.Context, key string, userID int64, ttl time.Duration) error {
	return r.save(ctx, confirmationKeyPrefix+key, userID, ttl)
}

func (r *redisVerificationRepository) ConsumeConfirmationKey(ctx context.Context, key string) (int64, error) {
	return r.consume(ctx, confirmationKeyPrefix+key, models.ErrInvalidConfirmationKey)
}

func (r *redisVerificationRepository) SaveResetToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	return r.save(ctx, resetTokenPrefix+token, userID, ttl)
}

// consumeIfOwnerScript удаляет ключ, только если он принадлежит ARGV[1].
var consumeIfOwnerScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (r *redisVerificationRepository) ConsumeResetToken(ctx context.Context, token string, userID int64) error {
	deleted, err := consumeIfOwnerScript.Run(ctx, r.client, []string{resetTokenPrefix + token}, strconv.FormatInt(userID, 10)).Int()
	if err != nil {
		r.logger.Error("Failed to consume reset token", zap.Int64("userID", userID), zap.Error(err))
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if deleted == 0 {
		return models.ErrInvalidPasswordResetLink
	}
	return nil
}

func (r *redisVerificationRepository) save(ctx context.Context, key string, userID int64, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, strconv.FormatInt(userID, 10), ttl).Err(); err != nil {
		r.logger.Error("Failed to store one-time key", zap.Int64("userID", userID), zap.Error(err))
		return fmt.Errorf("failed to store one-time key: %w", err)
	}
	return nil
}

// consume читает и удаляет ключ атомарно (GETDEL).
func (r *redisVerificationRepository) consume(ctx context.Context, key string, notFound error) (int64, error) {
	val, err := r.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, notFound
		}
		r.logger.Error("Failed to consume one-time key", zap.Error(err))
		return 0, fmt.Errorf("failed to consume one-time key: %w", err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, notFound
	}
	return userID, nil
}
