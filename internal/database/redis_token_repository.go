package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"novel-stella/internal/interfaces"
	"novel-stella/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	accessKeyPrefix  = "access_uuid:"
	refreshKeyPrefix = "refresh_uuid:"
	userSetPrefix    = "user_tokens:"
)

// Compile-time check to ensure redisTokenRepository implements TokenRepository
var _ interfaces.TokenRepository = (*redisTokenRepository)(nil)

type redisTokenRepository struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewRedisTokenRepository creates a new Redis-backed TokenRepository.
func NewRedisTokenRepository(client redis.UniversalClient, logger *zap.Logger) interfaces.TokenRepository {
	return &redisTokenRepository{
		client: client,
		logger: logger.Named("RedisTokenRepo"),
	}
}

func userSetKey(userID int64) string {
	return userSetPrefix + strconv.FormatInt(userID, 10)
}

// SetToken хранит две пары ключ-значение:
//
//	access_uuid:{AccessUUID}   -> UserID (TTL access)
//	refresh_uuid:{RefreshUUID} -> UserID (TTL refresh)
//
// и добавляет идентификаторы в множество user_tokens:{UserID}.
func (r *redisTokenRepository) SetToken(ctx context.Context, userID int64, td *models.TokenDetails) error {
	now := time.Now()
	accessTTL := time.Unix(td.AtExpires, 0).Sub(now)
	refreshTTL := time.Unix(td.RtExpires, 0).Sub(now)
	userIDStr := strconv.FormatInt(userID, 10)

	pipe := r.client.Pipeline()
	pipe.Set(ctx, accessKeyPrefix+td.AccessUUID, userIDStr, accessTTL)
	pipe.Set(ctx, refreshKeyPrefix+td.RefreshUUID, userIDStr, refreshTTL)
	pipe.SAdd(ctx, userSetKey(userID), "access:"+td.AccessUUID, "refresh:"+td.RefreshUUID)
	pipe.Expire(ctx, userSetKey(userID), refreshTTL)

	r.logger.Debug("Setting tokens in Redis",
		zap.Int64("userID", userID),
		zap.String("accessUUID", td.AccessUUID),
		zap.String("refreshUUID", td.RefreshUUID),
		zap.Duration("accessTTL", accessTTL),
		zap.Duration("refreshTTL", refreshTTL),
	)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to set token details in redis", zap.Error(err), zap.Int64("userID", userID))
		return fmt.Errorf("failed to set token details in redis: %w", err)
	}
	return nil
}

// DeleteTokens removes tokens by their UUIDs and drops them from the user's set.
func (r *redisTokenRepository) DeleteTokens(ctx context.Context, userID int64, accessUUID, refreshUUID string) (int64, error) {
	keysToDelete := []string{}
	identifiers := []any{}
	logFields := []zap.Field{zap.Int64("userID", userID)}

	if accessUUID != "" {
		keysToDelete = append(keysToDelete, accessKeyPrefix+accessUUID)
		identifiers = append(identifiers, "access:"+accessUUID)
		logFields = append(logFields, zap.String("accessUUID", accessUUID))
	}
	if refreshUUID != "" {
		keysToDelete = append(keysToDelete, refreshKeyPrefix+refreshUUID)
		identifiers = append(identifiers, "refresh:"+refreshUUID)
		logFields = append(logFields, zap.String("refreshUUID", refreshUUID))
	}
	if len(keysToDelete) == 0 {
		r.logger.Warn("DeleteTokens called with no UUIDs")
		return 0, nil
	}

	pipe := r.client.Pipeline()
	delCmd := pipe.Del(ctx, keysToDelete...)
	pipe.SRem(ctx, userSetKey(userID), identifiers...)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete tokens", append(logFields, zap.Error(err))...)
		return 0, fmt.Errorf("failed to delete tokens/remove from set: %w", err)
	}

	deleted, _ := delCmd.Result()
	r.logger.Info("Tokens deleted from Redis", append(logFields, zap.Int64("deletedCount", deleted))...)
	return deleted, nil
}

func (r *redisTokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (int64, error) {
	return r.getUserID(ctx, accessKeyPrefix+accessUUID)
}

func (r *redisTokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (int64, error) {
	return r.getUserID(ctx, refreshKeyPrefix+refreshUUID)
}

// ConsumeRefreshUUID забирает refresh-ключ через GETDEL, поэтому из двух
// параллельных обновлений одним токеном успешно только одно.
func (r *redisTokenRepository) ConsumeRefreshUUID(ctx context.Context, refreshUUID string) (int64, error) {
	key := refreshKeyPrefix + refreshUUID
	userIDStr, err := r.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, models.ErrTokenNotFound
		}
		r.logger.Error("Failed to consume refresh token", zap.Error(err), zap.String("key", key))
		return 0, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		r.logger.Error("Corrupted userID in redis", zap.String("key", key), zap.String("value", userIDStr))
		return 0, fmt.Errorf("corrupted userID data in redis for %s: %w", key, err)
	}
	// запись в user_tokens вторична: ключ уже удален
	if err := r.client.SRem(ctx, userSetKey(userID), "refresh:"+refreshUUID).Err(); err != nil {
		r.logger.Warn("Failed to remove consumed refresh token from user set", zap.Error(err), zap.Int64("userID", userID))
	}
	return userID, nil
}

func (r *redisTokenRepository) getUserID(ctx context.Context, key string) (int64, error) {
	r.logger.Debug("Getting token from Redis", zap.String("key", key))
	userIDStr, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, models.ErrTokenNotFound
		}
		r.logger.Error("Failed to get token from redis", zap.Error(err), zap.String("key", key))
		return 0, fmt.Errorf("failed to get token from redis: %w", err)
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		r.logger.Error("Corrupted userID in redis", zap.String("key", key), zap.String("value", userIDStr))
		return 0, fmt.Errorf("corrupted userID data in redis for %s: %w", key, err)
	}
	return userID, nil
}

// DeleteTokensByUserID removes all tokens of a user using the user-specific set.
func (r *redisTokenRepository) DeleteTokensByUserID(ctx context.Context, userID int64) (int64, error) {
	log := r.logger.With(zap.Int64("userID", userID))
	setKey := userSetKey(userID)

	identifiers, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Error("Failed to get token identifiers from user set", zap.Error(err))
		return 0, fmt.Errorf("failed to retrieve token identifiers for user %d: %w", userID, err)
	}

	keysToDelete := make([]string, 0, len(identifiers))
	for _, identifier := range identifiers {
		tokType, tokUUID, ok := strings.Cut(identifier, ":")
		if !ok {
			log.Warn("Malformed token identifier found in user set", zap.String("identifier", identifier))
			continue
		}
		switch tokType {
		case "access":
			keysToDelete = append(keysToDelete, accessKeyPrefix+tokUUID)
		case "refresh":
			keysToDelete = append(keysToDelete, refreshKeyPrefix+tokUUID)
		}
	}

	pipe := r.client.Pipeline()
	var delCmd *redis.IntCmd
	if len(keysToDelete) > 0 {
		delCmd = pipe.Del(ctx, keysToDelete...)
	}
	pipe.Del(ctx, setKey)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error("Failed to delete tokens and set", zap.Error(err))
		return 0, fmt.Errorf("failed to delete tokens and set for user %d: %w", userID, err)
	}

	var deleted int64
	if delCmd != nil {
		deleted, _ = delCmd.Result()
	}
	log.Info("Deleted tokens for user", zap.Int64("deletedTokenKeys", deleted))
	return deleted, nil
}
