package interfaces

import (
	"context"

	"novel-stella/internal/models"
)

// UserRepository defines user persistence (PostgreSQL).
type UserRepository interface {
	// Create inserts a new user and fills ID and timestamps.
	// Returns models.ErrEmailAlreadyExists or models.ErrNicknameAlreadyExists on duplicates.
	Create(ctx context.Context, user *models.User) error

	// GetByID returns models.ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail ищет без учета регистра. models.ErrUserNotFound, если нет.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// ExistsByEmail проверяет занятость email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByNickname проверяет занятость никнейма, исключая пользователя excludeID (0 = никого).
	ExistsByNickname(ctx context.Context, nickname string, excludeID int64) (bool, error)

	UpdateNickname(ctx context.Context, id int64, nickname string) error
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error

	// MarkVerified sets is_verified. Returns models.ErrUserNotFound when nothing was updated.
	MarkVerified(ctx context.Context, id int64) error

	// Delete удаляет пользователя; книги, главы, комментарии и оценки удаляются каскадом.
	Delete(ctx context.Context, id int64) error
}
