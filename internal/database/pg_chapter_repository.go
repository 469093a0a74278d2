package database

import (
	"context"
	"errors"
	"fmt"

	"novel-stella/internal/interfaces"
	"novel-stella/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	chapterColumns = `id, book_id, chapter_num, content, image, created_at, updated_at`

	createChapterQuery = `
        INSERT INTO chapters (book_id, chapter_num, content)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	getChapterByIDQuery      = `SELECT ` + chapterColumns + ` FROM chapters WHERE id = $1`
	getChapterByNumberQuery  = `SELECT ` + chapterColumns + ` FROM chapters WHERE book_id = $1 AND chapter_num = $2`
	listChaptersQuery        = `SELECT ` + chapterColumns + ` FROM chapters WHERE book_id = $1 ORDER BY chapter_num`
	listChaptersByBooksQuery = `SELECT ` + chapterColumns + ` FROM chapters WHERE book_id = ANY($1) ORDER BY book_id, chapter_num`
	lastChapterNumberQuery   = `SELECT MAX(chapter_num) FROM chapters WHERE book_id = $1`
	deleteChapterQuery       = `DELETE FROM chapters WHERE book_id = $1 AND chapter_num = $2`
	setChapterImageQuery     = `UPDATE chapters SET image = $1, updated_at = NOW() WHERE id = $2`
)

var _ interfaces.ChapterRepository = (*pgChapterRepository)(nil)

type pgChapterRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgChapterRepository creates a new PostgreSQL-backed ChapterRepository.
func NewPgChapterRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ChapterRepository {
	return &pgChapterRepository{db: db, logger: logger.Named("PgChapterRepo")}
}

// Create вставляет главу. Уникальность (book_id, chapter_num) гарантирует БД.
func (r *pgChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	logFields := []zap.Field{zap.Int64("bookID", chapter.BookID), zap.Int("chapterNum", chapter.ChapterNum)}
	r.logger.Debug("Executing query", append(logFields, zap.String("query", createChapterQuery))...)

	err := r.db.QueryRow(ctx, createChapterQuery, chapter.BookID, chapter.ChapterNum, chapter.Content).
		Scan(&chapter.ID, &chapter.CreatedAt, &chapter.UpdatedAt)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			r.logger.Warn("Chapter number already taken", logFields...)
			return models.ErrChapterExists
		}
		if isForeignKeyViolation(err) {
			return models.ErrBookNotFound
		}
		r.logger.Error("Failed to create chapter", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	r.logger.Info("Chapter created", append(logFields, zap.Int64("chapterID", chapter.ID))...)
	return nil
}

func (r *pgChapterRepository) GetByID(ctx context.Context, id int64) (*models.Chapter, error) {
	return r.getOne(ctx, getChapterByIDQuery, id)
}

func (r *pgChapterRepository) GetByNumber(ctx context.Context, bookID int64, chapterNum int) (*models.Chapter, error) {
	return r.getOne(ctx, getChapterByNumberQuery, bookID, chapterNum)
}

func (r *pgChapterRepository) getOne(ctx context.Context, query string, args ...any) (*models.Chapter, error) {
	r.logger.Debug("Executing query", zap.String("query", query), zap.Any("args", args))
	var chapter models.Chapter
	if err := pgxscan.Get(ctx, r.db, &chapter, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrChapterNotFound
		}
		r.logger.Error("Failed to get chapter", zap.Any("args", args), zap.Error(err))
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

func (r *pgChapterRepository) ListByBook(ctx context.Context, bookID int64) ([]*models.Chapter, error) {
	r.logger.Debug("Executing query", zap.String("query", listChaptersQuery), zap.Int64("bookID", bookID))
	chapters := make([]*models.Chapter, 0)
	if err := pgxscan.Select(ctx, r.db, &chapters, listChaptersQuery, bookID); err != nil {
		r.logger.Error("Failed to list chapters", zap.Int64("bookID", bookID), zap.Error(err))
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// ListByBooks загружает главы нескольких книг одним запросом.
func (r *pgChapterRepository) ListByBooks(ctx context.Context, bookIDs []int64) (map[int64][]*models.Chapter, error) {
	byBook := make(map[int64][]*models.Chapter, len(bookIDs))
	if len(bookIDs) == 0 {
		return byBook, nil
	}
	r.logger.Debug("Executing query", zap.String("query", listChaptersByBooksQuery), zap.Int("books", len(bookIDs)))
	var chapters []*models.Chapter
	if err := pgxscan.Select(ctx, r.db, &chapters, listChaptersByBooksQuery, bookIDs); err != nil {
		r.logger.Error("Failed to list chapters of books", zap.Int64s("bookIDs", bookIDs), zap.Error(err))
		return nil, fmt.Errorf("failed to list chapters of books: %w", err)
	}
	for _, ch := range chapters {
		byBook[ch.BookID] = append(byBook[ch.BookID], ch)
	}
	return byBook, nil
}

func (r *pgChapterRepository) LastNumber(ctx context.Context, bookID int64) (int, bool, error) {
	var last *int
	if err := r.db.QueryRow(ctx, lastChapterNumberQuery, bookID).Scan(&last); err != nil {
		r.logger.Error("Failed to get last chapter number", zap.Int64("bookID", bookID), zap.Error(err))
		return 0, false, fmt.Errorf("failed to get last chapter number: %w", err)
	}
	if last == nil {
		return 0, false, nil
	}
	return *last, true, nil
}

func (r *pgChapterRepository) DeleteByNumber(ctx context.Context, bookID int64, chapterNum int) error {
	r.logger.Debug("Executing query", zap.String("query", deleteChapterQuery), zap.Int64("bookID", bookID), zap.Int("chapterNum", chapterNum))
	cmdTag, err := r.db.Exec(ctx, deleteChapterQuery, bookID, chapterNum)
	if err != nil {
		r.logger.Error("Failed to delete chapter", zap.Int64("bookID", bookID), zap.Error(err))
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrChapterNotFound
	}
	return nil
}

func (r *pgChapterRepository) SetImage(ctx context.Context, id int64, image string) error {
	cmdTag, err := r.db.Exec(ctx, setChapterImageQuery, image, id)
	if err != nil {
		r.logger.Error("Failed to set chapter image", zap.Int64("chapterID", id), zap.Error(err))
		return fmt.Errorf("failed to set chapter image: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrChapterNotFound
	}
	return nil
}
