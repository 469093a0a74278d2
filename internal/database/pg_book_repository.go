package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"novel-stella/internal/interfaces"
	"novel-stella/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// bookSelect возвращает книгу вместе с вычисляемыми полями:
// средней оценкой (1 знак), никнеймом автора, числом лайков и тегами.
const bookSelect = `
SELECT b.id, b.user_id, b.title, b.genre, b.theme, b.tone, b.setting, b.characters,
       b.image, b.full_text, b.created_at, b.updated_at,
       (SELECT ROUND(AVG(r.rating)::numeric, 1)::float8 FROM ratings r WHERE r.book_id = b.id) AS average_rating,
       u.nickname AS user_nickname,
       (SELECT COUNT(*) FROM book_likes bl WHERE bl.book_id = b.id) AS total_likes,
       COALESCE((SELECT array_agg(t.name ORDER BY t.name)
                 FROM book_tags bt JOIN tags t ON t.id = bt.tag_id
                 WHERE bt.book_id = b.id), '{}') AS tags
FROM books b
JOIN users u ON u.id = b.user_id`

const (
	createBookQuery = `
        INSERT INTO books (user_id, title, genre, theme, tone, setting, characters)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`
	getBookByIDQuery     = bookSelect + ` WHERE b.id = $1`
	listBooksQuery       = bookSelect + ` ORDER BY b.created_at DESC, b.id DESC LIMIT $1 OFFSET $2`
	countBooksQuery      = `SELECT COUNT(*) FROM books`
	listUserBooksQuery   = bookSelect + ` WHERE b.user_id = $1 ORDER BY b.created_at DESC, b.id DESC`
	listLikedBooksQuery  = bookSelect + ` JOIN book_likes ul ON ul.book_id = b.id WHERE ul.user_id = $1 ORDER BY ul.created_at DESC`
	searchBooksByTag     = bookSelect + ` WHERE EXISTS (SELECT 1 FROM book_tags bt JOIN tags t ON t.id = bt.tag_id WHERE bt.book_id = b.id AND t.name ILIKE '%' || $1 || '%') ORDER BY b.created_at DESC, b.id DESC`
	listPopularBooks     = bookSelect + ` WHERE b.created_at >= $1 ORDER BY total_likes DESC, b.created_at DESC LIMIT $2`
	deleteBookQuery      = `DELETE FROM books WHERE id = $1`
	refreshFullTextQuery = `
        UPDATE books SET full_text = (
            SELECT string_agg(c.content, E'\n\n' ORDER BY c.chapter_num)
            FROM chapters c WHERE c.book_id = $1
        ), updated_at = NOW()
        WHERE id = $1`
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var _ interfaces.BookRepository = (*pgBookRepository)(nil)

type pgBookRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgBookRepository creates a new PostgreSQL-backed BookRepository.
func NewPgBookRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.BookRepository {
	return &pgBookRepository{
		db:     db,
		logger: logger.Named("PgBookRepo"),
	}
}

// Create вставляет книгу и ее теги в одной транзакции.
func (r *pgBookRepository) Create(ctx context.Context, book *models.Book, tags []string) error {
	logFields := []zap.Field{zap.Int64("userID", book.UserID), zap.String("title", book.Title)}
	r.logger.Debug("Creating book", logFields...)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin transaction for book create", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Откат по умолчанию

	err = tx.QueryRow(ctx, createBookQuery,
		book.UserID, book.Title, book.Genre, book.Theme, book.Tone, book.Setting, book.Characters,
	).Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.ErrUserNotFound
		}
		r.logger.Error("Failed to insert book", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to insert book: %w", err)
	}

	if err := setBookTags(ctx, tx, book.ID, tags); err != nil {
		r.logger.Error("Failed to set book tags", append(logFields, zap.Error(err))...)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit book create", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to commit book create: %w", err)
	}
	book.Tags = normalizeTags(tags)
	r.logger.Info("Book created", append(logFields, zap.Int64("bookID", book.ID))...)
	return nil
}

func (r *pgBookRepository) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	r.logger.Debug("Executing query", zap.String("query", "getBookByID"), zap.Int64("bookID", id))
	var book models.Book
	if err := pgxscan.Get(ctx, r.db, &book, getBookByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrBookNotFound
		}
		r.logger.Error("Failed to get book", zap.Int64("bookID", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get book %d: %w", id, err)
	}
	return &book, nil
}

func (r *pgBookRepository) List(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	return r.selectBooks(ctx, "list books", listBooksQuery, limit, offset)
}

func (r *pgBookRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, countBooksQuery).Scan(&count); err != nil {
		r.logger.Error("Failed to count books", zap.Error(err))
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

func (r *pgBookRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Book, error) {
	return r.selectBooks(ctx, "list user books", listUserBooksQuery, userID)
}

func (r *pgBookRepository) ListLikedByUser(ctx context.Context, userID int64) ([]*models.Book, error) {
	return r.selectBooks(ctx, "list liked books", listLikedBooksQuery, userID)
}

func (r *pgBookRepository) SearchByTag(ctx context.Context, query string) ([]*models.Book, error) {
	return r.selectBooks(ctx, "search books by tag", searchBooksByTag, likeEscaper.Replace(query))
}

func (r *pgBookRepository) ListPopular(ctx context.Context, since time.Time, limit int) ([]*models.Book, error) {
	return r.selectBooks(ctx, "list popular books", listPopularBooks, since, limit)
}

func (r *pgBookRepository) selectBooks(ctx context.Context, action, query string, args ...any) ([]*models.Book, error) {
	r.logger.Debug("Executing query", zap.String("action", action), zap.Any("args", args))
	books := make([]*models.Book, 0)
	if err := pgxscan.Select(ctx, r.db, &books, query, args...); err != nil {
		r.logger.Error("Failed to "+action, zap.Error(err))
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}
	return books, nil
}

// Update обновляет только переданные (не nil) поля.
func (r *pgBookRepository) Update(ctx context.Context, id int64, upd models.BookUpdate) error {
	logFields := []zap.Field{zap.Int64("bookID", id)}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	queryBase := "UPDATE books SET updated_at = NOW()"
	args := []any{}
	argID := 1
	for _, f := range []struct {
		column string
		value  *string
	}{
		{"title", upd.Title},
		{"genre", upd.Genre},
		{"theme", upd.Theme},
		{"tone", upd.Tone},
		{"setting", upd.Setting},
		{"characters", upd.Characters},
	} {
		if f.value == nil {
			continue
		}
		queryBase += fmt.Sprintf(", %s = $%d", f.column, argID)
		args = append(args, *f.value)
		argID++
	}
	query := queryBase + fmt.Sprintf(" WHERE id = $%d", argID)
	args = append(args, id)

	r.logger.Debug("Executing query", append(logFields, zap.String("query", query))...)
	cmdTag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update book", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to update book: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrBookNotFound
	}

	if upd.SetTags {
		if err := setBookTags(ctx, tx, id, upd.Tags); err != nil {
			r.logger.Error("Failed to replace book tags", append(logFields, zap.Error(err))...)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit book update: %w", err)
	}
	r.logger.Info("Book updated", logFields...)
	return nil
}

func (r *pgBookRepository) Delete(ctx context.Context, id int64) error {
	r.logger.Debug("Executing query", zap.String("query", deleteBookQuery), zap.Int64("bookID", id))
	cmdTag, err := r.db.Exec(ctx, deleteBookQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete book", zap.Int64("bookID", id), zap.Error(err))
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrBookNotFound
	}
	r.logger.Info("Book deleted", zap.Int64("bookID", id))
	return nil
}

func (r *pgBookRepository) RefreshFullText(ctx context.Context, bookID int64) error {
	if _, err := r.db.Exec(ctx, refreshFullTextQuery, bookID); err != nil {
		r.logger.Error("Failed to refresh full text", zap.Int64("bookID", bookID), zap.Error(err))
		return fmt.Errorf("failed to refresh full text: %w", err)
	}
	return nil
}
