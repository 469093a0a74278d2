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
	getRatingQuery    = `SELECT id, book_id, user_id, rating FROM ratings WHERE book_id = $1 AND user_id = $2`
	createRatingQuery = `INSERT INTO ratings (book_id, user_id, rating) VALUES ($1, $2, $3) RETURNING id`

	commentSelect = `
SELECT c.id, c.book_id, c.user_id, c.content, c.created_at, c.updated_at, u.nickname AS user_nickname
FROM comments c
JOIN users u ON u.id = c.user_id`
	listCommentsQuery   = commentSelect + ` WHERE c.book_id = $1 ORDER BY c.created_at, c.id`
	getCommentQuery     = commentSelect + ` WHERE c.id = $1`
	createCommentQuery  = `INSERT INTO comments (book_id, user_id, content) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	updateCommentQuery  = `UPDATE comments SET content = $1, updated_at = NOW() WHERE id = $2`
	deleteCommentQuery  = `DELETE FROM comments WHERE id = $1`
	insertLikeQuery     = `INSERT INTO book_likes (book_id, user_id) VALUES ($1, $2) ON CONFLICT (book_id, user_id) DO NOTHING`
	deleteLikeQuery     = `DELETE FROM book_likes WHERE book_id = $1 AND user_id = $2`
	existsLikeQuery     = `SELECT EXISTS(SELECT 1 FROM book_likes WHERE book_id = $1 AND user_id = $2)`
	countLikesQuery     = `SELECT COUNT(*) FROM book_likes WHERE book_id = $1`
	insertRecentQuery   = `INSERT INTO recent_searches (user_id, book_id) VALUES ($1, $2)`
	listRecentBookQuery = `
        WITH recent AS (
            SELECT book_id, MAX(searched_at) AS last_seen
            FROM recent_searches
            WHERE user_id = $1
            GROUP BY book_id
        )
        SELECT rb.* FROM (` + bookSelect + `) rb
        JOIN recent ON recent.book_id = rb.id
        ORDER BY recent.last_seen DESC
        LIMIT $2`
)

// --- Ratings ---

var _ interfaces.RatingRepository = (*pgRatingRepository)(nil)

type pgRatingRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgRatingRepository creates a new PostgreSQL-backed RatingRepository.
func NewPgRatingRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.RatingRepository {
	return &pgRatingRepository{db: db, logger: logger.Named("PgRatingRepo")}
}

func (r *pgRatingRepository) Get(ctx context.Context, bookID, userID int64) (*models.Rating, error) {
	var rating models.Rating
	if err := pgxscan.Get(ctx, r.db, &rating, getRatingQuery, bookID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRatingNotFound
		}
		r.logger.Error("Failed to get rating", zap.Int64("bookID", bookID), zap.Int64("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return &rating, nil
}

// Create полагается на ограничение UNIQUE(book_id, user_id).
func (r *pgRatingRepository) Create(ctx context.Context, rating *models.Rating) error {
	logFields := []zap.Field{zap.Int64("bookID", rating.BookID), zap.Int64("userID", rating.UserID), zap.Int("rating", rating.Rating)}
	r.logger.Debug("Executing query", append(logFields, zap.String("query", createRatingQuery))...)
	err := r.db.QueryRow(ctx, createRatingQuery, rating.BookID, rating.UserID, rating.Rating).Scan(&rating.ID)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			r.logger.Warn("Duplicate rating", logFields...)
			return models.ErrAlreadyRated
		}
		if isForeignKeyViolation(err) {
			return models.ErrBookNotFound
		}
		r.logger.Error("Failed to create rating", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}

// --- Comments ---

var _ interfaces.CommentRepository = (*pgCommentRepository)(nil)

type pgCommentRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgCommentRepository creates a new PostgreSQL-backed CommentRepository.
func NewPgCommentRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.CommentRepository {
	return &pgCommentRepository{db: db, logger: logger.Named("PgCommentRepo")}
}

func (r *pgCommentRepository) ListByBook(ctx context.Context, bookID int64) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	if err := pgxscan.Select(ctx, r.db, &comments, listCommentsQuery, bookID); err != nil {
		r.logger.Error("Failed to list comments", zap.Int64("bookID", bookID), zap.Error(err))
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (r *pgCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	var comment models.Comment
	if err := pgxscan.Get(ctx, r.db, &comment, getCommentQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrCommentNotFound
		}
		r.logger.Error("Failed to get comment", zap.Int64("commentID", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

func (r *pgCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.QueryRow(ctx, createCommentQuery, comment.BookID, comment.UserID, comment.Content).
		Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.ErrBookNotFound
		}
		r.logger.Error("Failed to create comment", zap.Int64("bookID", comment.BookID), zap.Error(err))
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *pgCommentRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	cmdTag, err := r.db.Exec(ctx, updateCommentQuery, content, id)
	if err != nil {
		r.logger.Error("Failed to update comment", zap.Int64("commentID", id), zap.Error(err))
		return fmt.Errorf("failed to update comment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrCommentNotFound
	}
	return nil
}

func (r *pgCommentRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, deleteCommentQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete comment", zap.Int64("commentID", id), zap.Error(err))
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrCommentNotFound
	}
	return nil
}

// --- Likes ---

var _ interfaces.LikeRepository = (*pgLikeRepository)(nil)

type pgLikeRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgLikeRepository creates a new PostgreSQL-backed LikeRepository.
func NewPgLikeRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.LikeRepository {
	return &pgLikeRepository{db: db, logger: logger.Named("PgLikeRepo")}
}

// Toggle: вставка с ON CONFLICT DO NOTHING; если ничего не вставлено, лайк уже был и удаляется.
func (r *pgLikeRepository) Toggle(ctx context.Context, bookID, userID int64) (bool, error) {
	logFields := []zap.Field{zap.Int64("bookID", bookID), zap.Int64("userID", userID)}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin transaction for like toggle", append(logFields, zap.Error(err))...)
		return false, fmt.Errorf("failed to begin transaction for like: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, insertLikeQuery, bookID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, models.ErrBookNotFound
		}
		r.logger.Error("Failed to insert like", append(logFields, zap.Error(err))...)
		return false, fmt.Errorf("failed to insert like: %w", err)
	}
	liked := result.RowsAffected() > 0
	if !liked {
		if _, err := tx.Exec(ctx, deleteLikeQuery, bookID, userID); err != nil {
			r.logger.Error("Failed to delete like", append(logFields, zap.Error(err))...)
			return false, fmt.Errorf("failed to delete like: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit like toggle", append(logFields, zap.Error(err))...)
		return false, fmt.Errorf("failed to commit like toggle: %w", err)
	}
	r.logger.Debug("Like toggled", append(logFields, zap.Bool("liked", liked))...)
	return liked, nil
}

func (r *pgLikeRepository) Exists(ctx context.Context, bookID, userID int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, existsLikeQuery, bookID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return exists, nil
}

func (r *pgLikeRepository) Count(ctx context.Context, bookID int64) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, countLikesQuery, bookID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// --- Recent searches ---

var _ interfaces.RecentSearchRepository = (*pgRecentSearchRepository)(nil)

type pgRecentSearchRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgRecentSearchRepository creates a new PostgreSQL-backed RecentSearchRepository.
func NewPgRecentSearchRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.RecentSearchRepository {
	return &pgRecentSearchRepository{db: db, logger: logger.Named("PgRecentSearchRepo")}
}

func (r *pgRecentSearchRepository) Record(ctx context.Context, userID, bookID int64) error {
	if _, err := r.db.Exec(ctx, insertRecentQuery, userID, bookID); err != nil {
		if isForeignKeyViolation(err) {
			return models.ErrBookNotFound
		}
		r.logger.Error("Failed to record recent search", zap.Int64("userID", userID), zap.Int64("bookID", bookID), zap.Error(err))
		return fmt.Errorf("failed to record recent search: %w", err)
	}
	return nil
}

func (r *pgRecentSearchRepository) ListBooks(ctx context.Context, userID int64, limit int) ([]*models.Book, error) {
	books := make([]*models.Book, 0, limit)
	if err := pgxscan.Select(ctx, r.db, &books, listRecentBookQuery, userID, limit); err != nil {
		r.logger.Error("Failed to list recent searches", zap.Int64("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list recent searches: %w", err)
	}
	return books, nil
}
