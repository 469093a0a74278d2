package interfaces

import (
	"context"
	"time"

	"novel-stella/internal/models"
)

// BookRepository defines book persistence. Returned books carry
// average_rating, user_nickname, total_likes and tags.
//
//go:generate mockery --name BookRepository --output ../mocks --outpkg mocks --case=underscore
type BookRepository interface {
	// Create inserts the book with its tags (missing tags are created)
	// and fills ID and timestamps.
	Create(ctx context.Context, book *models.Book, tags []string) error

	// GetByID returns models.ErrBookNotFound if the book does not exist.
	GetByID(ctx context.Context, id int64) (*models.Book, error)

	// List returns books newest first.
	List(ctx context.Context, limit, offset int) ([]*models.Book, error)
	Count(ctx context.Context) (int64, error)

	ListByUser(ctx context.Context, userID int64) ([]*models.Book, error)
	ListLikedByUser(ctx context.Context, userID int64) ([]*models.Book, error)

	// SearchByTag - книги, у которых есть тег, содержащий query (без учета регистра).
	SearchByTag(ctx context.Context, query string) ([]*models.Book, error)

	// ListPopular - книги, созданные после since, по убыванию количества лайков.
	ListPopular(ctx context.Context, since time.Time, limit int) ([]*models.Book, error)

	// Update применяет только заданные поля; при upd.SetTags заменяет теги.
	// models.ErrBookNotFound, если книги нет.
	Update(ctx context.Context, id int64, upd models.BookUpdate) error

	// Delete removes the book with chapters, comments, ratings, likes (cascade).
	Delete(ctx context.Context, id int64) error

	// RefreshFullText пересобирает full_text из глав, упорядоченных по номеру.
	RefreshFullText(ctx context.Context, bookID int64) error
}

// ChapterRepository defines chapter persistence.
type ChapterRepository interface {
	// Create returns models.ErrChapterExists if (book_id, chapter_num) is taken.
	Create(ctx context.Context, chapter *models.Chapter) error

	GetByID(ctx context.Context, id int64) (*models.Chapter, error)
	GetByNumber(ctx context.Context, bookID int64, chapterNum int) (*models.Chapter, error)

	// ListByBook returns chapters ordered by chapter_num.
	ListByBook(ctx context.Context, bookID int64) ([]*models.Chapter, error)
	// ListByBooks groups chapters by book id, each group ordered by chapter_num.
	ListByBooks(ctx context.Context, bookIDs []int64) (map[int64][]*models.Chapter, error)

	// LastNumber возвращает номер последней главы; ok=false, если глав нет.
	LastNumber(ctx context.Context, bookID int64) (num int, ok bool, err error)

	DeleteByNumber(ctx context.Context, bookID int64, chapterNum int) error
	SetImage(ctx context.Context, id int64, image string) error
}

// TagRepository defines tag persistence.
type TagRepository interface {
	// Popular returns tags ordered by the number of books using them.
	Popular(ctx context.Context, limit int) ([]models.Tag, error)
}
