package mocks

import (
	"context"
	"time"

	"novel-stella/internal/interfaces"
	"novel-stella/internal/models"

	"github.com/stretchr/testify/mock"
)

// --- UserRepository ---

type MockUserRepository struct {
	mock.Mock
}

var _ interfaces.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByNickname(ctx context.Context, nickname string, excludeID int64) (bool, error) {
	args := m.Called(ctx, nickname, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UpdateNickname(ctx context.Context, id int64, nickname string) error {
	args := m.Called(ctx, id, nickname)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- TokenRepository ---

type MockTokenRepository struct {
	mock.Mock
}

var _ interfaces.TokenRepository = (*MockTokenRepository)(nil)

func (m *MockTokenRepository) SetToken(ctx context.Context, userID int64, td *models.TokenDetails) error {
	args := m.Called(ctx, userID, td)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteTokens(ctx context.Context, userID int64, accessUUID, refreshUUID string) (int64, error) {
	args := m.Called(ctx, userID, accessUUID, refreshUUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (int64, error) {
	args := m.Called(ctx, accessUUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (int64, error) {
	args := m.Called(ctx, refreshUUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepository) ConsumeRefreshUUID(ctx context.Context, refreshUUID string) (int64, error) {
	args := m.Called(ctx, refreshUUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepository) DeleteTokensByUserID(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// --- VerificationRepository ---

type MockVerificationRepository struct {
	mock.Mock
}

var _ interfaces.VerificationRepository = (*MockVerificationRepository)(nil)

func (m *MockVerificationRepository) SaveConfirmationKey(ctx context.Context, key string, userID int64, ttl time.Duration) error {
	args := m.Called(ctx, key, userID, ttl)
	return args.Error(0)
}

func (m *MockVerificationRepository) ConsumeConfirmationKey(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVerificationRepository) SaveResetToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	args := m.Called(ctx, token, userID, ttl)
	return args.Error(0)
}

func (m *MockVerificationRepository) ConsumeResetToken(ctx context.Context, token string, userID int64) error {
	args := m.Called(ctx, token, userID)
	return args.Error(0)
}

// --- BookRepository ---

type MockBookRepository struct {
	mock.Mock
}

var _ interfaces.BookRepository = (*MockBookRepository)(nil)

func (m *MockBookRepository) Create(ctx context.Context, book *models.Book, tags []string) error {
	args := m.Called(ctx, book, tags)
	return args.Error(0)
}

func (m *MockBookRepository) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	args := m.Called(ctx, id)
	book, _ := args.Get(0).(*models.Book)
	return book, args.Error(1)
}

func (m *MockBookRepository) List(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	args := m.Called(ctx, limit, offset)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockBookRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Book, error) {
	args := m.Called(ctx, userID)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockBookRepository) ListLikedByUser(ctx context.Context, userID int64) ([]*models.Book, error) {
	args := m.Called(ctx, userID)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockBookRepository) SearchByTag(ctx context.Context, query string) ([]*models.Book, error) {
	args := m.Called(ctx, query)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockBookRepository) ListPopular(ctx context.Context, since time.Time, limit int) ([]*models.Book, error) {
	args := m.Called(ctx, since, limit)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockBookRepository) Update(ctx context.Context, id int64, upd models.BookUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}

func (m *MockBookRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookRepository) RefreshFullText(ctx context.Context, bookID int64) error {
	args := m.Called(ctx, bookID)
	return args.Error(0)
}

// --- ChapterRepository ---

type MockChapterRepository struct {
	mock.Mock
}

var _ interfaces.ChapterRepository = (*MockChapterRepository)(nil)

func (m *MockChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	args := m.Called(ctx, chapter)
	return args.Error(0)
}

func (m *MockChapterRepository) GetByID(ctx context.Context, id int64) (*models.Chapter, error) {
	args := m.Called(ctx, id)
	ch, _ := args.Get(0).(*models.Chapter)
	return ch, args.Error(1)
}

func (m *MockChapterRepository) GetByNumber(ctx context.Context, bookID int64, chapterNum int) (*models.Chapter, error) {
	args := m.Called(ctx, bookID, chapterNum)
	ch, _ := args.Get(0).(*models.Chapter)
	return ch, args.Error(1)
}

func (m *MockChapterRepository) ListByBook(ctx context.Context, bookID int64) ([]*models.Chapter, error) {
	args := m.Called(ctx, bookID)
	chapters, _ := args.Get(0).([]*models.Chapter)
	return chapters, args.Error(1)
}

func (m *MockChapterRepository) ListByBooks(ctx context.Context, bookIDs []int64) (map[int64][]*models.Chapter, error) {
	args := m.Called(ctx, bookIDs)
	byBook, _ := args.Get(0).(map[int64][]*models.Chapter)
	return byBook, args.Error(1)
}

func (m *MockChapterRepository) LastNumber(ctx context.Context, bookID int64) (int, bool, error) {
	args := m.Called(ctx, bookID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockChapterRepository) DeleteByNumber(ctx context.Context, bookID int64, chapterNum int) error {
	args := m.Called(ctx, bookID, chapterNum)
	return args.Error(0)
}

func (m *MockChapterRepository) SetImage(ctx context.Context, id int64, image string) error {
	args := m.Called(ctx, id, image)
	return args.Error(0)
}

// --- TagRepository ---

type MockTagRepository struct {
	mock.Mock
}

var _ interfaces.TagRepository = (*MockTagRepository)(nil)

func (m *MockTagRepository) Popular(ctx context.Context, limit int) ([]models.Tag, error) {
	args := m.Called(ctx, limit)
	tags, _ := args.Get(0).([]models.Tag)
	return tags, args.Error(1)
}

// --- RatingRepository ---

type MockRatingRepository struct {
	mock.Mock
}

var _ interfaces.RatingRepository = (*MockRatingRepository)(nil)

func (m *MockRatingRepository) Get(ctx context.Context, bookID, userID int64) (*models.Rating, error) {
	args := m.Called(ctx, bookID, userID)
	r, _ := args.Get(0).(*models.Rating)
	return r, args.Error(1)
}

func (m *MockRatingRepository) Create(ctx context.Context, rating *models.Rating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

// --- CommentRepository ---

type MockCommentRepository struct {
	mock.Mock
}

var _ interfaces.CommentRepository = (*MockCommentRepository)(nil)

func (m *MockCommentRepository) ListByBook(ctx context.Context, bookID int64) ([]*models.Comment, error) {
	args := m.Called(ctx, bookID)
	comments, _ := args.Get(0).([]*models.Comment)
	return comments, args.Error(1)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	args := m.Called(ctx, id, content)
	return args.Error(0)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- LikeRepository ---

type MockLikeRepository struct {
	mock.Mock
}

var _ interfaces.LikeRepository = (*MockLikeRepository)(nil)

func (m *MockLikeRepository) Toggle(ctx context.Context, bookID, userID int64) (bool, error) {
	args := m.Called(ctx, bookID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeRepository) Exists(ctx context.Context, bookID, userID int64) (bool, error) {
	args := m.Called(ctx, bookID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeRepository) Count(ctx context.Context, bookID int64) (int64, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).(int64), args.Error(1)
}

// --- RecentSearchRepository ---

type MockRecentSearchRepository struct {
	mock.Mock
}

var _ interfaces.RecentSearchRepository = (*MockRecentSearchRepository)(nil)

func (m *MockRecentSearchRepository) Record(ctx context.Context, userID, bookID int64) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}

func (m *MockRecentSearchRepository) ListBooks(ctx context.Context, userID int64, limit int) ([]*models.Book, error) {
	args := m.Called(ctx, userID, limit)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}
