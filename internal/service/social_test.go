package service_test

import (
	"context"
	"testing"

	"novel-stella/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	ctx := context.Background()
	book := sampleBook()

	t.Run("out of range", func(t *testing.T) {
		f := newBookFixture(t)
		_, err := f.socialSvc.Rate(ctx, book.ID, 5, 6)
		assert.ErrorIs(t, err, models.ErrInvalidRating)
		_, err = f.socialSvc.Rate(ctx, book.ID, 5, 0)
		assert.ErrorIs(t, err, models.ErrInvalidRating)
	})

	t.Run("first rating", func(t *testing.T) {
		f := newBookFixture(t)
		f.books.On("GetByID", ctx, book.ID).Return(book, nil)
		f.ratings.On("Get", ctx, book.ID, int64(5)).Return(nil, models.ErrRatingNotFound)
		f.ratings.On("Create", ctx, mock.MatchedBy(func(r *models.Rating) bool { return r.Rating == 4 })).Return(nil)

		r, err := f.socialSvc.Rate(ctx, book.ID, 5, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, r.Rating)
	})

	t.Run("second rating", func(t *testing.T) {
		f := newBookFixture(t)
		f.books.On("GetByID", ctx, book.ID).Return(book, nil)
		f.ratings.On("Get", ctx, book.ID, int64(5)).Return(&models.Rating{Rating: 3}, nil)

		_, err := f.socialSvc.Rate(ctx, book.ID, 5, 4)
		assert.ErrorIs(t, err, models.ErrAlreadyRated)
	})

	t.Run("unknown book", func(t *testing.T) {
		f := newBookFixture(t)
		f.books.On("GetByID", ctx, int64(404)).Return(nil, models.ErrBookNotFound)
		_, err := f.socialSvc.Rate(ctx, 404, 5, 4)
		assert.ErrorIs(t, err, models.ErrBookNotFound)
	})
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	book := sampleBook()
	comment := &models.Comment{ID: 31, BookID: book.ID, UserID: 5, Content: "nice", UserNickname: "reader"}

	t.Run("create requires content", func(t *testing.T) {
		f := newBookFixture(t)
		_, err := f.socialSvc.CreateComment(ctx, book.ID, 5, " ")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("create", func(t *testing.T) {
		f := newBookFixture(t)
		f.books.On("GetByID", ctx, book.ID).Return(book, nil)
		f.comments.On("Create", ctx, mock.AnythingOfType("*models.Comment")).
			Run(func(args mock.Arguments) { args.Get(1).(*models.Comment).ID = 31 }).Return(nil)
		f.comments.On("GetByID", ctx, int64(31)).Return(comment, nil)

		got, err := f.socialSvc.CreateComment(ctx, book.ID, 5, "nice")
		require.NoError(t, err)
		assert.Equal(t, "reader", got.UserNickname)
	})

	t.Run("update by another user", func(t *testing.T) {
		f := newBookFixture(t)
		f.comments.On("GetByID", ctx, int64(31)).Return(comment, nil)
		_, err := f.socialSvc.UpdateComment(ctx, book.ID, 31, 6, "edited")
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("comment of another book", func(t *testing.T) {
		f := newBookFixture(t)
		f.comments.On("GetByID", ctx, int64(31)).Return(comment, nil)
		err := f.socialSvc.DeleteComment(ctx, 99, 31, 5)
		assert.ErrorIs(t, err, models.ErrCommentNotFound)
	})

	t.Run("delete by owner", func(t *testing.T) {
		f := newBookFixture(t)
		f.comments.On("GetByID", ctx, int64(31)).Return(comment, nil)
		f.comments.On("Delete", ctx, int64(31)).Return(nil)
		assert.NoError(t, f.socialSvc.DeleteComment(ctx, book.ID, 31, 5))
	})
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	f := newBookFixture(t)
	book := sampleBook()
	f.books.On("GetByID", ctx, book.ID).Return(book, nil)
	f.likes.On("Toggle", ctx, book.ID, int64(5)).Return(true, nil).Once()
	f.likes.On("Count", ctx, book.ID).Return(int64(1), nil).Once()

	status, err := f.socialSvc.ToggleLike(ctx, book.ID, 5)
	require.NoError(t, err)
	assert.True(t, status.LikeBool)
	assert.Equal(t, int64(1), status.TotalLikes)
	assert.Equal(t, int64(1), status.Book.TotalLikes)

	f.likes.On("Toggle", ctx, book.ID, int64(5)).Return(false, nil).Once()
	f.likes.On("Count", ctx, book.ID).Return(int64(0), nil).Once()
	status, err = f.socialSvc.ToggleLike(ctx, book.ID, 5)
	require.NoError(t, err)
	assert.False(t, status.LikeBool)
	assert.Equal(t, int64(0), status.TotalLikes)
}
