package service

import (
	"context"

	"novel-stella/internal/models"
)

// Окно популярных книг и размеры выдачи discovery.
const (
	PopularBooksWindowDays = 7
	PopularBooksLimit      = 10
	PopularTagsLimit       = 10
	RecentSearchesLimit    = 10
)

// BookService - книги и их поиск.
type BookService interface {
	// List returns one page (1-based) of books, newest first, and the total count.
	List(ctx context.Context, page int) ([]*models.Book, int64, error)
	// Create генерирует настройки по prompt и сохраняет книгу.
	Create(ctx context.Context, userID int64, prompt, language string, tags []string) (*models.CreatedBook, error)
	// Get возвращает книгу с главами; viewerID > 0 записывает недавний просмотр.
	Get(ctx context.Context, bookID, viewerID int64) (*models.Book, error)
	Update(ctx context.Context, userID, bookID int64, upd models.BookUpdate) (*models.Book, error)
	Delete(ctx context.Context, userID, bookID int64) error
	// DeletePrologue удаляет главу 0.
	DeletePrologue(ctx context.Context, userID, bookID int64) error

	UserBooks(ctx context.Context, userID int64) ([]*models.Book, error)
	LikedBooks(ctx context.Context, userID int64) ([]*models.Book, error)

	SearchByTag(ctx context.Context, tag string) ([]*models.Book, error)
	PopularTags(ctx context.Context) ([]models.Tag, error)
	PopularBooks(ctx context.Context) ([]*models.Book, error)
	RecentSearches(ctx context.Context, userID int64) ([]*models.Book, error)
}

// ChapterService generates chapter text and illustrations.
type ChapterService interface {
	// GenerateChapter пишет пролог, если глав нет, иначе следующую главу.
	GenerateChapter(ctx context.Context, userID, bookID int64, req models.ChapterRequest) (*models.GeneratedChapter, error)
	// GenerateChapterImage returns the public URL of the stored picture.
	GenerateChapterImage(ctx context.Context, chapterID int64, req models.ChapterImageRequest) (string, error)
}

// SocialService - оценки, комментарии и лайки.
type SocialService interface {
	GetRating(ctx context.Context, bookID, userID int64) (*models.Rating, error)
	Rate(ctx context.Context, bookID, userID int64, rating int) (*models.Rating, error)

	ListComments(ctx context.Context, bookID int64) ([]*models.Comment, error)
	CreateComment(ctx context.Context, bookID, userID int64, content string) (*models.Comment, error)
	UpdateComment(ctx context.Context, bookID, commentID, userID int64, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, bookID, commentID, userID int64) error

	LikeStatus(ctx context.Context, bookID, userID int64) (*models.LikeStatus, error)
	ToggleLike(ctx context.Context, bookID, userID int64) (*models.LikeStatus, error)
}
