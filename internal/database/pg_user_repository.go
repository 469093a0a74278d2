package database

import (
	"context"
	"errors"
	"fmt"

	"novel-stella/internal/interfaces"
	"novel-stella/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	userColumns = `id, email, nickname, password_hash, profile_image, is_verified, is_active, created_at, updated_at`

	createUserQuery = `
        INSERT INTO users (email, nickname, password_hash, is_verified, is_active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	getUserByIDQuery      = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByEmailQuery   = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	existsUserEmailQuery  = `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`
	existsUserNickQuery   = `SELECT EXISTS(SELECT 1 FROM users WHERE nickname = $1 AND id <> $2)`
	updateUserNickQuery   = `UPDATE users SET nickname = $1, updated_at = NOW() WHERE id = $2`
	updateUserPassQuery   = `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	markUserVerifiedQuery = `UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`
	deleteUserQuery       = `DELETE FROM users WHERE id = $1`
)

// Коды ошибок PostgreSQL
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ interfaces.UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
func NewPgUserRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

// Create inserts a new user into the database.
func (r *pgUserRepository) Create(ctx context.Context, user *models.User) error {
	logFields := []zap.Field{zap.String("email", user.Email), zap.String("nickname", user.Nickname)}
	r.logger.Debug("Executing query", append(logFields, zap.String("query", createUserQuery))...)

	err := r.db.QueryRow(ctx, createUserQuery, user.Email, user.Nickname, user.PasswordHash, user.IsVerified, user.IsActive).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			switch pgErr.ConstraintName {
			case "users_nickname_key":
				r.logger.Warn("Attempted to create duplicate user by nickname", logFields...)
				return models.ErrNicknameAlreadyExists
			default:
				// users_email_key и idx_users_email_lower
				r.logger.Warn("Attempted to create duplicate user by email", append(logFields, zap.String("constraint", pgErr.ConstraintName))...)
				return models.ErrEmailAlreadyExists
			}
		}
		r.logger.Error("Failed to create user in postgres", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create user in postgres: %w", err)
	}
	r.logger.Info("User created successfully", zap.Int64("userID", user.ID), zap.String("email", user.Email))
	return nil
}

func (r *pgUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, getUserByIDQuery, id)
}

func (r *pgUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, getUserByEmailQuery, email)
}

func (r *pgUserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	r.logger.Debug("Executing query", zap.String("query", query), zap.Any("arg", arg))
	var user models.User
	if err := pgxscan.Get(ctx, r.db, &user, query, arg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found", zap.Any("arg", arg))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user from postgres", zap.Any("arg", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get user from postgres: %w", err)
	}
	return &user, nil
}

func (r *pgUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, existsUserEmailQuery, email).Scan(&exists); err != nil {
		r.logger.Error("Failed to check email", zap.String("email", email), zap.Error(err))
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func (r *pgUserRepository) ExistsByNickname(ctx context.Context, nickname string, excludeID int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, existsUserNickQuery, nickname, excludeID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check nickname", zap.String("nickname", nickname), zap.Error(err))
		return false, fmt.Errorf("failed to check nickname existence: %w", err)
	}
	return exists, nil
}

// UpdateNickname меняет никнейм; дубликат -> models.ErrNicknameAlreadyExists.
func (r *pgUserRepository) UpdateNickname(ctx context.Context, id int64, nickname string) error {
	r.logger.Debug("Executing query", zap.String("query", updateUserNickQuery), zap.Int64("userID", id))
	cmdTag, err := r.db.Exec(ctx, updateUserNickQuery, nickname, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return models.ErrNicknameAlreadyExists
		}
		r.logger.Error("Failed to update nickname", zap.Int64("userID", id), zap.Error(err))
		return fmt.Errorf("failed to update nickname: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *pgUserRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	return r.execAffecting(ctx, updateUserPassQuery, "update password hash", passwordHash, id)
}

func (r *pgUserRepository) MarkVerified(ctx context.Context, id int64) error {
	return r.execAffecting(ctx, markUserVerifiedQuery, "mark user verified", id)
}

func (r *pgUserRepository) Delete(ctx context.Context, id int64) error {
	return r.execAffecting(ctx, deleteUserQuery, "delete user", id)
}

// execAffecting выполняет запрос и возвращает ErrUserNotFound, если строк не затронуто.
func (r *pgUserRepository) execAffecting(ctx context.Context, query, action string, args ...any) error {
	r.logger.Debug("Executing query", zap.String("query", query), zap.Any("args", args))
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+action, zap.Error(err))
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("User not found for "+action, zap.Any("args", args))
		return models.ErrUserNotFound
	}
	return nil
}
