package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"novel-stella/internal/interfaces"
	"novel-stella/internal/models"
	"novel-stella/internal/storage"

	"go.uber.org/zap"
)

var _ SocialService = (*socialServiceImpl)(nil)

type socialServiceImpl struct {
	books    interfaces.BookRepository
	ratings  interfaces.RatingRepository
	comments interfaces.CommentRepository
	likes    interfaces.LikeRepository
	media    storage.Storage
	logger   *zap.Logger
}

// SocialDeps - зависимости SocialService.
type SocialDeps struct {
	Books    interfaces.BookRepository
	Ratings  interfaces.RatingRepository
	Comments interfaces.CommentRepository
	Likes    interfaces.LikeRepository
	Storage  storage.Storage
}

// NewSocialService creates a new SocialService.
func NewSocialService(deps SocialDeps, logger *zap.Logger) SocialService {
	return &socialServiceImpl{
		books:    deps.Books,
		ratings:  deps.Ratings,
		comments: deps.Comments,
		likes:    deps.Likes,
		media:    deps.Storage,
		logger:   logger.Named("SocialService"),
	}
}

func (s *socialServiceImpl) ensureBook(ctx context.Context, bookID int64) error {
	_, err := s.books.GetByID(ctx, bookID)
	return err
}

func (s *socialServiceImpl) GetRating(ctx context.Context, bookID, userID int64) (*models.Rating, error) {
	if err := s.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.ratings.Get(ctx, bookID, userID)
}

func (s *socialServiceImpl) Rate(ctx context.Context, bookID, userID int64, rating int) (*models.Rating, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, models.ErrInvalidRating
	}
	if err := s.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}
	_, err := s.ratings.Get(ctx, bookID, userID)
	switch {
	case err == nil:
		return nil, models.ErrAlreadyRated
	case !errors.Is(err, models.ErrRatingNotFound):
		return nil, fmt.Errorf("failed to check rating: %w", err)
	}

	r := &models.Rating{BookID: bookID, UserID: userID, Rating: rating}
	// уникальный индекс ловит параллельную вторую оценку
	if err := s.ratings.Create(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info("Book rated", zap.Int64("bookID", bookID), zap.Int64("userID", userID), zap.Int("rating", rating))
	return r, nil
}

func (s *socialServiceImpl) ListComments(ctx context.Context, bookID int64) ([]*models.Comment, error) {
	if err := s.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.comments.ListByBook(ctx, bookID)
}

func validateComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewValidationError("content", "This field may not be blank.")
	}
	return content, nil
}

func (s *socialServiceImpl) CreateComment(ctx context.Context, bookID, userID int64, content string) (*models.Comment, error) {
	content, err := validateComment(content)
	if err != nil {
		return nil, err
	}
	if err := s.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}
	c := &models.Comment{BookID: bookID, UserID: userID, Content: content}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	s.logger.Info("Comment created", zap.Int64("commentID", c.ID), zap.Int64("bookID", bookID))
	return s.comments.GetByID(ctx, c.ID)
}

// ownedComment проверяет принадлежность комментария книге и пользователю.
func (s *socialServiceImpl) ownedComment(ctx context.Context, bookID, commentID, userID int64) (*models.Comment, error) {
	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.BookID != bookID {
		return nil, models.ErrCommentNotFound
	}
	if c.UserID != userID {
		return nil, models.ErrForbidden
	}
	return c, nil
}

func (s *socialServiceImpl) UpdateComment(ctx context.Context, bookID, commentID, userID int64, content string) (*models.Comment, error) {
	if _, err := s.ownedComment(ctx, bookID, commentID, userID); err != nil {
		return nil, err
	}
	content, err := validateComment(content)
	if err != nil {
		return nil, err
	}
	if err := s.comments.UpdateContent(ctx, commentID, content); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, commentID)
}

func (s *socialServiceImpl) DeleteComment(ctx context.Context, bookID, commentID, userID int64) error {
	if _, err := s.ownedComment(ctx, bookID, commentID, userID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	s.logger.Info("Comment deleted", zap.Int64("commentID", commentID), zap.Int64("userID", userID))
	return nil
}

func (s *socialServiceImpl) LikeStatus(ctx context.Context, bookID, userID int64) (*models.LikeStatus, error) {
	liked, err := s.likes.Exists(ctx, bookID, userID)
	if err != nil {
		return nil, err
	}
	return s.likeStatus(ctx, bookID, liked)
}

func (s *socialServiceImpl) ToggleLike(ctx context.Context, bookID, userID int64) (*models.LikeStatus, error) {
	if err := s.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}
	liked, err := s.likes.Toggle(ctx, bookID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}
	s.logger.Debug("Like toggled", zap.Int64("bookID", bookID), zap.Int64("userID", userID), zap.Bool("liked", liked))
	return s.likeStatus(ctx, bookID, liked)
}

func (s *socialServiceImpl) likeStatus(ctx context.Context, bookID int64, liked bool) (*models.LikeStatus, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	total, err := s.likes.Count(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return &models.LikeStatus{
		TotalLikes: total,
		Book:       &models.LikedBook{Book: withMedia(s.media, book), TotalLikes: total},
		LikeBool:   liked,
	}, nil
}
