package interfaces

import (
	"context"

	"novel-stella/internal/models"
)

// RatingRepository defines rating persistence.
type RatingRepository interface {
	// Get returns models.ErrRatingNotFound if the user has not rated the book.
	Get(ctx context.Context, bookID, userID int64) (*models.Rating, error)

	// Create returns models.ErrAlreadyRated on a second rating of the same book.
	Create(ctx context.Context, rating *models.Rating) error
}

// CommentRepository defines comment persistence.
type CommentRepository interface {
	ListByBook(ctx context.Context, bookID int64) ([]*models.Comment, error)

	// GetByID returns models.ErrCommentNotFound if the comment does not exist.
	GetByID(ctx context.Context, id int64) (*models.Comment, error)

	Create(ctx context.Context, comment *models.Comment) error
	UpdateContent(ctx context.Context, id int64, content string) error
	Delete(ctx context.Context, id int64) error
}

// LikeRepository определяет методы для работы с лайками книг.
type LikeRepository interface {
	// Toggle ставит лайк, если его не было, иначе снимает.
	// Возвращает итоговое состояние.
	Toggle(ctx context.Context, bookID, userID int64) (liked bool, err error)

	Exists(ctx context.Context, bookID, userID int64) (bool, error)
	Count(ctx context.Context, bookID int64) (int64, error)
}

// RecentSearchRepository stores the books a user has opened.
type RecentSearchRepository interface {
	Record(ctx context.Context, userID, bookID int64) error

	// ListBooks returns distinct books, most recently opened first.
	ListBooks(ctx context.Context, userID int64, limit int) ([]*models.Book, error)
}
