package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"novel-stella/internal/interfaces"
	"novel-stella/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	deleteBookTagsQuery = `DELETE FROM book_tags WHERE book_id = $1`
	insertTagsQuery     = `INSERT INTO tags (name) SELECT unnest($1::text[]) ON CONFLICT (name) DO NOTHING`
	linkBookTagsQuery   = `
        INSERT INTO book_tags (book_id, tag_id)
        SELECT $1, t.id FROM tags t WHERE t.name = ANY($2::text[])
        ON CONFLICT DO NOTHING`
	popularTagsQuery = `
        SELECT t.id, t.name
        FROM tags t
        JOIN book_tags bt ON bt.tag_id = t.id
        GROUP BY t.id, t.name
        ORDER BY COUNT(bt.book_id) DESC, t.name
        LIMIT $1`
)

var _ interfaces.TagRepository = (*pgTagRepository)(nil)

type pgTagRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgTagRepository creates a new PostgreSQL-backed TagRepository.
func NewPgTagRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.TagRepository {
	return &pgTagRepository{db: db, logger: logger.Named("PgTagRepo")}
}

func (r *pgTagRepository) Popular(ctx context.Context, limit int) ([]models.Tag, error) {
	r.logger.Debug("Executing query", zap.String("query", popularTagsQuery), zap.Int("limit", limit))
	tags := make([]models.Tag, 0, limit)
	if err := pgxscan.Select(ctx, r.db, &tags, popularTagsQuery, limit); err != nil {
		r.logger.Error("Failed to list popular tags", zap.Error(err))
		return nil, fmt.Errorf("failed to list popular tags: %w", err)
	}
	return tags, nil
}

// setBookTags заменяет теги книги, создавая недостающие. Вызывается внутри транзакции.
func setBookTags(ctx context.Context, q interfaces.DBTX, bookID int64, names []string) error {
	if _, err := q.Exec(ctx, deleteBookTagsQuery, bookID); err != nil {
		return fmt.Errorf("failed to clear book tags: %w", err)
	}
	names = normalizeTags(names)
	if len(names) == 0 {
		return nil
	}
	if _, err := q.Exec(ctx, insertTagsQuery, names); err != nil {
		return fmt.Errorf("failed to create tags: %w", err)
	}
	if _, err := q.Exec(ctx, linkBookTagsQuery, bookID, names); err != nil {
		return fmt.Errorf("failed to link tags: %w", err)
	}
	return nil
}

// normalizeTags убирает пробелы, пустые значения и дубликаты; результат отсортирован.
func normalizeTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func isUniqueViolation(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr, true
	}
	return nil, false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}
