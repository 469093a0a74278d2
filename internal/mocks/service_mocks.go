package mocks

import (
	"context"

	"novel-stella/internal/models"
	"novel-stella/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockAccountService is a mock type for the AccountService type
type MockAccountService struct {
	mock.Mock
}

var _ service.AccountService = (*MockAccountService)(nil)

func (m *MockAccountService) Register(ctx context.Context, in models.RegistrationInput) (*models.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*models.LoginResult)
	return res, args.Error(1)
}

func (m *MockAccountService) Logout(ctx context.Context, claims *models.Claims, refreshToken string) error {
	args := m.Called(ctx, claims, refreshToken)
	return args.Error(0)
}

func (m *MockAccountService) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	args := m.Called(ctx, refreshToken)
	td, _ := args.Get(0).(*models.TokenDetails)
	return td, args.Error(1)
}

func (m *MockAccountService) VerifyToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAccountService) Authenticate(ctx context.Context, accessToken string) (*models.Claims, error) {
	args := m.Called(ctx, accessToken)
	c, _ := args.Get(0).(*models.Claims)
	return c, args.Error(1)
}

func (m *MockAccountService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockAccountService) UpdateNickname(ctx context.Context, userID int64, nickname string) (*models.User, error) {
	args := m.Called(ctx, userID, nickname)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockAccountService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword1, newPassword2 string) error {
	args := m.Called(ctx, userID, oldPassword, newPassword1, newPassword2)
	return args.Error(0)
}

func (m *MockAccountService) RequestPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAccountService) ConfirmPasswordReset(ctx context.Context, uid, token, newPassword1, newPassword2 string) error {
	args := m.Called(ctx, uid, token, newPassword1, newPassword2)
	return args.Error(0)
}

func (m *MockAccountService) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, userID int64, nickname string) (*models.Profile, error) {
	args := m.Called(ctx, userID, nickname)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, userID int64, password, refreshToken string) error {
	args := m.Called(ctx, userID, password, refreshToken)
	return args.Error(0)
}

func (m *MockAccountService) ConfirmEmail(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAccountService) ResendConfirmation(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockBookService is a mock type for the BookService type
type MockBookService struct {
	mock.Mock
}

var _ service.BookService = (*MockBookService)(nil)

func (m *MockBookService) List(ctx context.Context, page int) ([]*models.Book, int64, error) {
	args := m.Called(ctx, page)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Get(1).(int64), args.Error(2)
}

func (m *MockBookService) Create(ctx context.Context, userID int64, prompt, language string, tags []string) (*models.CreatedBook, error) {
	args := m.Called(ctx, userID, prompt, language, tags)
	b, _ := args.Get(0).(*models.CreatedBook)
	return b, args.Error(1)
}

func (m *MockBookService) Get(ctx context.Context, bookID, viewerID int64) (*models.Book, error) {
	args := m.Called(ctx, bookID, viewerID)
	b, _ := args.Get(0).(*models.Book)
	return b, args.Error(1)
}

func (m *MockBookService) Update(ctx context.Context, userID, bookID int64, upd models.BookUpdate) (*models.Book, error) {
	args := m.Called(ctx, userID, bookID, upd)
	b, _ := args.Get(0).(*models.Book)
	return b, args.Error(1)
}

func (m *MockBookService) Delete(ctx context.Context, userID, bookID int64) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}

func (m *MockBookService) DeletePrologue(ctx context.Context, userID, bookID int64) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}

func (m *MockBookService) UserBooks(ctx context.Context, userID int64) ([]*models.Book, error) {
	args := m.Called(ctx, userID)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockBookService) LikedBooks(ctx context.Context, userID int64) ([]*models.Book, error) {
	args := m.Called(ctx, userID)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockBookService) SearchByTag(ctx context.Context, tag string) ([]*models.Book, error) {
	args := m.Called(ctx, tag)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockBookService) PopularTags(ctx context.Context) ([]models.Tag, error) {
	args := m.Called(ctx)
	tags, _ := args.Get(0).([]models.Tag)
	return tags, args.Error(1)
}

func (m *MockBookService) PopularBooks(ctx context.Context) ([]*models.Book, error) {
	args := m.Called(ctx)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *MockBookService) RecentSearches(ctx context.Context, userID int64) ([]*models.Book, error) {
	args := m.Called(ctx, userID)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

// MockChapterService is a mock type for the ChapterService type
type MockChapterService struct {
	mock.Mock
}

var _ service.ChapterService = (*MockChapterService)(nil)

func (m *MockChapterService) GenerateChapter(ctx context.Context, userID, bookID int64, req models.ChapterRequest) (*models.GeneratedChapter, error) {
	args := m.Called(ctx, userID, bookID, req)
	ch, _ := args.Get(0).(*models.GeneratedChapter)
	return ch, args.Error(1)
}

func (m *MockChapterService) GenerateChapterImage(ctx context.Context, chapterID int64, req models.ChapterImageRequest) (string, error) {
	args := m.Called(ctx, chapterID, req)
	return args.String(0), args.Error(1)
}

// MockSocialService is a mock type for the SocialService type
type MockSocialService struct {
	mock.Mock
}

var _ service.SocialService = (*MockSocialService)(nil)

func (m *MockSocialService) GetRating(ctx context.Context, bookID, userID int64) (*models.Rating, error) {
	args := m.Called(ctx, bookID, userID)
	r, _ := args.Get(0).(*models.Rating)
	return r, args.Error(1)
}

func (m *MockSocialService) Rate(ctx context.Context, bookID, userID int64, rating int) (*models.Rating, error) {
	args := m.Called(ctx, bookID, userID, rating)
	r, _ := args.Get(0).(*models.Rating)
	return r, args.Error(1)
}

func (m *MockSocialService) ListComments(ctx context.Context, bookID int64) ([]*models.Comment, error) {
	args := m.Called(ctx, bookID)
	c, _ := args.Get(0).([]*models.Comment)
	return c, args.Error(1)
}

func (m *MockSocialService) CreateComment(ctx context.Context, bookID, userID int64, content string) (*models.Comment, error) {
	args := m.Called(ctx, bookID, userID, content)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *MockSocialService) UpdateComment(ctx context.Context, bookID, commentID, userID int64, content string) (*models.Comment, error) {
	args := m.Called(ctx, bookID, commentID, userID, content)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *MockSocialService) DeleteComment(ctx context.Context, bookID, commentID, userID int64) error {
	args := m.Called(ctx, bookID, commentID, userID)
	return args.Error(0)
}

func (m *MockSocialService) LikeStatus(ctx context.Context, bookID, userID int64) (*models.LikeStatus, error) {
	args := m.Called(ctx, bookID, userID)
	s, _ := args.Get(0).(*models.LikeStatus)
	return s, args.Error(1)
}

func (m *MockSocialService) ToggleLike(ctx context.Context, bookID, userID int64) (*models.LikeStatus, error) {
	args := m.Called(ctx, bookID, userID)
	s, _ := args.Get(0).(*models.LikeStatus)
	return s, args.Error(1)
}
