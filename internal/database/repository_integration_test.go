//go:build integration

package database_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"novel-stella/internal/database"
	"novel-stella/internal/interfaces"
	"novel-stella/internal/models"

	"github.com/docker/docker/client"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// RepositorySuite поднимает PostgreSQL и Redis один раз на весь набор.
type RepositorySuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pgPool      *pgxpool.Pool
	redisClient *redis.Client

	users    interfaces.UserRepository
	books    interfaces.BookRepository
	chapters interfaces.ChapterRepository
	tags     interfaces.TagRepository
	ratings  interfaces.RatingRepository
	comments interfaces.CommentRepository
	likes    interfaces.LikeRepository
	recent   interfaces.RecentSearchRepository
	tokens   interfaces.TokenRepository
	verify   interfaces.VerificationRepository
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Skipf("Docker client init error: %v", err)
	}
	defer cli.Close()
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not running or accessible: %v", err)
	}
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("novel_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	s.Require().NoError(err, "Failed to start postgres container")

	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)
	s.Require().NoError(database.ApplyMigrations(dsn), "Failed to run migrations")

	s.pgPool, err = pgxpool.New(s.ctx, dsn)
	s.Require().NoError(err)

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").WithStartupTimeout(time.Minute),
		),
	)
	s.Require().NoError(err, "Failed to start redis container")
	host, err := s.rdContainer.Host(s.ctx)
	s.Require().NoError(err)
	port, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	s.Require().NoError(err)
	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	s.Require().NoError(s.redisClient.Ping(s.ctx).Err())

	logger := zap.NewNop()
	s.users = database.NewPgUserRepository(s.pgPool, logger)
	s.books = database.NewPgBookRepository(s.pgPool, logger)
	s.chapters = database.NewPgChapterRepository(s.pgPool, logger)
	s.tags = database.NewPgTagRepository(s.pgPool, logger)
	s.ratings = database.NewPgRatingRepository(s.pgPool, logger)
	s.comments = database.NewPgCommentRepository(s.pgPool, logger)
	s.likes = database.NewPgLikeRepository(s.pgPool, logger)
	s.recent = database.NewPgRecentSearchRepository(s.pgPool, logger)
	s.tokens = database.NewRedisTokenRepository(s.redisClient, logger)
	s.verify = database.NewRedisVerificationRepository(s.redisClient, logger)
}

func (s *RepositorySuite) TearDownSuite() {
	if s.pgPool != nil {
		s.pgPool.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
	if s.rdContainer != nil {
		_ = s.rdContainer.Terminate(s.ctx)
	}
}

// Перед каждым тестом - пустые таблицы и Redis.
func (s *RepositorySuite) SetupTest() {
	s.Require().NoError(s.redisClient.FlushDB(s.ctx).Err())
	_, err := s.pgPool.Exec(s.ctx, "TRUNCATE TABLE users, books, tags RESTART IDENTITY CASCADE")
	s.Require().NoError(err)
}

func (s *RepositorySuite) createUser(email, nickname string) *models.User {
	u := &models.User{Email: email, Nickname: nickname, PasswordHash: "hash", IsActive: true}
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func (s *RepositorySuite) createBook(userID int64, title string, tags ...string) *models.Book {
	b := &models.Book{UserID: userID, Title: title, Genre: "fantasy"}
	s.Require().NoError(s.books.Create(s.ctx, b, tags))
	return b
}

func (s *RepositorySuite) TestUsers_DuplicatesAndLookup() {
	u := s.createUser("Reader@Example.com", "reader")
	s.NotZero(u.ID)

	err := s.users.Create(s.ctx, &models.User{Email: "reader@example.com", Nickname: "other", PasswordHash: "x"})
	s.ErrorIs(err, models.ErrEmailAlreadyExists)
	err = s.users.Create(s.ctx, &models.User{Email: "new@example.com", Nickname: "reader", PasswordHash: "x"})
	s.ErrorIs(err, models.ErrNicknameAlreadyExists)

	got, err := s.users.GetByEmail(s.ctx, "READER@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)
	s.False(got.IsVerified)

	s.Require().NoError(s.users.MarkVerified(s.ctx, u.ID))
	got, err = s.users.GetByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.True(got.IsVerified)

	taken, err := s.users.ExistsByNickname(s.ctx, "reader", u.ID)
	s.Require().NoError(err)
	s.False(taken, "own nickname is not a conflict")

	_, err = s.users.GetByID(s.ctx, 999)
	s.ErrorIs(err, models.ErrUserNotFound)
}

func (s *RepositorySuite) TestBooks_TagsSearchAndUpdate() {
	u := s.createUser("a@example.com", "author")
	b := s.createBook(u.ID, "Hearts of Stone", "epic", " dragons", "epic", "")
	s.Equal([]string{"dragons", "epic"}, b.Tags)

	got, err := s.books.GetByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal("author", got.UserNickname)
	s.Equal([]string{"dragons", "epic"}, got.Tags)
	s.Nil(got.AverageRating)

	found, err := s.books.SearchByTag(s.ctx, "DRAG")
	s.Require().NoError(err)
	s.Len(found, 1)
	found, err = s.books.SearchByTag(s.ctx, "%")
	s.Require().NoError(err)
	s.Empty(found, "wildcards are matched literally")

	title := "Hearts of Iron"
	s.Require().NoError(s.books.Update(s.ctx, b.ID, models.BookUpdate{Title: &title, Tags: []string{"steel"}, SetTags: true}))
	got, err = s.books.GetByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal("Hearts of Iron", got.Title)
	s.Equal("fantasy", got.Genre)
	s.Equal([]string{"steel"}, got.Tags)

	s.ErrorIs(s.books.Update(s.ctx, 999, models.BookUpdate{Title: &title}), models.ErrBookNotFound)
}

func (s *RepositorySuite) TestBooks_ListAndCount() {
	u := s.createUser("a@example.com", "author")
	for i := 0; i < 3; i++ {
		s.createBook(u.ID, fmt.Sprintf("Book %d", i))
	}
	total, err := s.books.Count(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(3, total)

	page, err := s.books.List(s.ctx, 2, 0)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal("Book 2", page[0].Title, "newest first")

	page, err = s.books.List(s.ctx, 2, 2)
	s.Require().NoError(err)
	s.Len(page, 1)

	mine, err := s.books.ListByUser(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Len(mine, 3)
}

func (s *RepositorySuite) TestChapters_NumberingAndFullText() {
	u := s.createUser("a@example.com", "author")
	b := s.createBook(u.ID, "Saga")

	_, ok, err := s.chapters.LastNumber(s.ctx, b.ID)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.chapters.Create(s.ctx, &models.Chapter{BookID: b.ID, ChapterNum: 0, Content: "prologue"}))
	ch1 := &models.Chapter{BookID: b.ID, ChapterNum: 1, Content: "first"}
	s.Require().NoError(s.chapters.Create(s.ctx, ch1))
	s.ErrorIs(s.chapters.Create(s.ctx, &models.Chapter{BookID: b.ID, ChapterNum: 1, Content: "dup"}), models.ErrChapterExists)

	last, ok, err := s.chapters.LastNumber(s.ctx, b.ID)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(1, last)

	s.Require().NoError(s.books.RefreshFullText(s.ctx, b.ID))
	got, err := s.books.GetByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.FullText)
	s.Equal("prologue\n\nfirst", *got.FullText)

	s.Require().NoError(s.chapters.SetImage(s.ctx, ch1.ID, "chapters/Saga_chapter_1.png"))
	stored, err := s.chapters.GetByNumber(s.ctx, b.ID, 1)
	s.Require().NoError(err)
	s.Require().NotNil(stored.Image)
	s.Equal("chapters/Saga_chapter_1.png", *stored.Image)

	s.Require().NoError(s.chapters.DeleteByNumber(s.ctx, b.ID, 0))
	s.ErrorIs(s.chapters.DeleteByNumber(s.ctx, b.ID, 0), models.ErrChapterNotFound)
	list, err := s.chapters.ListByBook(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *RepositorySuite) TestSocial_RatingsCommentsLikes() {
	author := s.createUser("a@example.com", "author")
	reader := s.createUser("r@example.com", "reader")
	b := s.createBook(author.ID, "Saga")

	s.Require().NoError(s.ratings.Create(s.ctx, &models.Rating{BookID: b.ID, UserID: reader.ID, Rating: 4}))
	s.Require().NoError(s.ratings.Create(s.ctx, &models.Rating{BookID: b.ID, UserID: author.ID, Rating: 5}))
	s.ErrorIs(s.ratings.Create(s.ctx, &models.Rating{BookID: b.ID, UserID: reader.ID, Rating: 1}), models.ErrAlreadyRated)
	_, err := s.ratings.Get(s.ctx, b.ID, 999)
	s.ErrorIs(err, models.ErrRatingNotFound)

	got, err := s.books.GetByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.AverageRating)
	s.InDelta(4.5, *got.AverageRating, 0.001)

	c := &models.Comment{BookID: b.ID, UserID: reader.ID, Content: "nice"}
	s.Require().NoError(s.comments.Create(s.ctx, c))
	s.Require().NoError(s.comments.UpdateContent(s.ctx, c.ID, "great"))
	stored, err := s.comments.GetByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("great", stored.Content)
	s.Equal("reader", stored.UserNickname)

	liked, err := s.likes.Toggle(s.ctx, b.ID, reader.ID)
	s.Require().NoError(err)
	s.True(liked)
	count, err := s.likes.Count(s.ctx, b.ID)
	s.Require().NoError(err)
	s.EqualValues(1, count)

	likedBooks, err := s.books.ListLikedByUser(s.ctx, reader.ID)
	s.Require().NoError(err)
	s.Len(likedBooks, 1)

	liked, err = s.likes.Toggle(s.ctx, b.ID, reader.ID)
	s.Require().NoError(err)
	s.False(liked)
	exists, err := s.likes.Exists(s.ctx, b.ID, reader.ID)
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.likes.Toggle(s.ctx, 999, reader.ID)
	s.ErrorIs(err, models.ErrBookNotFound)

	s.Require().NoError(s.comments.Delete(s.ctx, c.ID))
	_, err = s.comments.GetByID(s.ctx, c.ID)
	s.ErrorIs(err, models.ErrCommentNotFound)
}

func (s *RepositorySuite) TestPopularAndRecent() {
	author := s.createUser("a@example.com", "author")
	reader := s.createUser("r@example.com", "reader")
	quiet := s.createBook(author.ID, "Quiet", "mystery")
	loud := s.createBook(author.ID, "Loud", "mystery", "epic")

	_, err := s.likes.Toggle(s.ctx, loud.ID, reader.ID)
	s.Require().NoError(err)
	_, err = s.likes.Toggle(s.ctx, loud.ID, author.ID)
	s.Require().NoError(err)

	popular, err := s.books.ListPopular(s.ctx, time.Now().Add(-7*24*time.Hour), 10)
	s.Require().NoError(err)
	s.Require().Len(popular, 2)
	s.Equal(loud.ID, popular[0].ID)
	s.EqualValues(2, popular[0].TotalLikes)

	popular, err = s.books.ListPopular(s.ctx, time.Now().Add(time.Hour), 10)
	s.Require().NoError(err)
	s.Empty(popular)

	tags, err := s.tags.Popular(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(tags, 2)
	s.Equal("mystery", tags[0].Name)

	s.Require().NoError(s.recent.Record(s.ctx, reader.ID, quiet.ID))
	s.Require().NoError(s.recent.Record(s.ctx, reader.ID, loud.ID))
	s.Require().NoError(s.recent.Record(s.ctx, reader.ID, quiet.ID))
	recent, err := s.recent.ListBooks(s.ctx, reader.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 2, "repeated views are collapsed")
	s.Equal(quiet.ID, recent[0].ID)

	s.ErrorIs(s.recent.Record(s.ctx, reader.ID, 999), models.ErrBookNotFound)

	s.Require().NoError(s.books.Delete(s.ctx, quiet.ID))
	recent, err = s.recent.ListBooks(s.ctx, reader.ID, 10)
	s.Require().NoError(err)
	s.Len(recent, 1)
}

func (s *RepositorySuite) countRows(table string, bookID int64) int {
	var n int
	s.Require().NoError(s.pgPool.QueryRow(s.ctx, "SELECT COUNT(*) FROM "+table+" WHERE book_id = $1", bookID).Scan(&n))
	return n
}

func (s *RepositorySuite) TestBooks_DeleteCascades() {
	author := s.createUser("a@example.com", "author")
	reader := s.createUser("r@example.com", "reader")
	b := s.createBook(author.ID, "Doomed", "tragedy")
	kept := s.createBook(author.ID, "Kept", "tragedy")

	for _, id := range []int64{b.ID, kept.ID} {
		s.Require().NoError(s.chapters.Create(s.ctx, &models.Chapter{BookID: id, ChapterNum: 0, Content: "prologue"}))
		s.Require().NoError(s.ratings.Create(s.ctx, &models.Rating{BookID: id, UserID: reader.ID, Rating: 3}))
		s.Require().NoError(s.comments.Create(s.ctx, &models.Comment{BookID: id, UserID: reader.ID, Content: "hm"}))
		_, err := s.likes.Toggle(s.ctx, id, reader.ID)
		s.Require().NoError(err)
		s.Require().NoError(s.recent.Record(s.ctx, reader.ID, id))
	}

	s.Require().NoError(s.books.Delete(s.ctx, b.ID))
	_, err := s.books.GetByID(s.ctx, b.ID)
	s.ErrorIs(err, models.ErrBookNotFound)

	for _, table := range []string{"chapters", "ratings", "comments", "book_likes", "book_tags", "recent_searches"} {
		s.Zero(s.countRows(table, b.ID), table)
		s.Equal(1, s.countRows(table, kept.ID), table)
	}
	tags, err := s.tags.Popular(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(tags, 1, "tag itself survives")
}

func (s *RepositorySuite) TestChapters_ListByBooks() {
	u := s.createUser("a@example.com", "author")
	first := s.createBook(u.ID, "First")
	second := s.createBook(u.ID, "Second")
	empty := s.createBook(u.ID, "Empty")

	s.Require().NoError(s.chapters.Create(s.ctx, &models.Chapter{BookID: first.ID, ChapterNum: 1, Content: "f1"}))
	s.Require().NoError(s.chapters.Create(s.ctx, &models.Chapter{BookID: first.ID, ChapterNum: 0, Content: "f0"}))
	s.Require().NoError(s.chapters.Create(s.ctx, &models.Chapter{BookID: second.ID, ChapterNum: 0, Content: "s0"}))

	byBook, err := s.chapters.ListByBooks(s.ctx, []int64{first.ID, second.ID, empty.ID})
	s.Require().NoError(err)
	s.Require().Len(byBook[first.ID], 2)
	s.Equal("f0", byBook[first.ID][0].Content)
	s.Equal("f1", byBook[first.ID][1].Content)
	s.Len(byBook[second.ID], 1)
	s.Empty(byBook[empty.ID])

	byBook, err = s.chapters.ListByBooks(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(byBook)
}

func (s *RepositorySuite) TestTokens_ConsumeRefreshOnce() {
	td := &models.TokenDetails{
		AccessUUID:  uuid.NewString(),
		RefreshUUID: uuid.NewString(),
		AtExpires:   time.Now().Add(time.Hour).Unix(),
		RtExpires:   time.Now().Add(24 * time.Hour).Unix(),
	}
	s.Require().NoError(s.tokens.SetToken(s.ctx, 9, td))

	var wg sync.WaitGroup
	var won, notFound atomic.Int32
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.tokens.ConsumeRefreshUUID(s.ctx, td.RefreshUUID)
			switch {
			case err == nil && id == 9:
				won.Add(1)
			case errors.Is(err, models.ErrTokenNotFound):
				notFound.Add(1)
			}
		}()
	}
	wg.Wait()
	s.EqualValues(1, won.Load())
	s.EqualValues(7, notFound.Load())
}

func (s *RepositorySuite) TestTokens_SetLookupRevoke() {
	td := &models.TokenDetails{
		AccessUUID:  uuid.NewString(),
		RefreshUUID: uuid.NewString(),
		AtExpires:   time.Now().Add(time.Hour).Unix(),
		RtExpires:   time.Now().Add(24 * time.Hour).Unix(),
	}
	s.Require().NoError(s.tokens.SetToken(s.ctx, 7, td))

	id, err := s.tokens.GetUserIDByAccessUUID(s.ctx, td.AccessUUID)
	s.Require().NoError(err)
	s.EqualValues(7, id)
	id, err = s.tokens.GetUserIDByRefreshUUID(s.ctx, td.RefreshUUID)
	s.Require().NoError(err)
	s.EqualValues(7, id)

	id, err = s.tokens.ConsumeRefreshUUID(s.ctx, td.RefreshUUID)
	s.Require().NoError(err)
	s.EqualValues(7, id)
	_, err = s.tokens.ConsumeRefreshUUID(s.ctx, td.RefreshUUID)
	s.ErrorIs(err, models.ErrTokenNotFound)
	_, err = s.tokens.GetUserIDByRefreshUUID(s.ctx, td.RefreshUUID)
	s.ErrorIs(err, models.ErrTokenNotFound)
	members, err := s.redisClient.SMembers(s.ctx, "user_tokens:7").Result()
	s.Require().NoError(err)
	s.Equal([]string{"access:" + td.AccessUUID}, members)

	deleted, err := s.tokens.DeleteTokensByUserID(s.ctx, 7)
	s.Require().NoError(err)
	s.EqualValues(1, deleted)
	_, err = s.tokens.GetUserIDByAccessUUID(s.ctx, td.AccessUUID)
	s.ErrorIs(err, models.ErrTokenNotFound)
}

func (s *RepositorySuite) TestVerification_KeysAreSingleUse() {
	s.Require().NoError(s.verify.SaveConfirmationKey(s.ctx, "confirm-key", 3, time.Hour))
	id, err := s.verify.ConsumeConfirmationKey(s.ctx, "confirm-key")
	s.Require().NoError(err)
	s.EqualValues(3, id)
	_, err = s.verify.ConsumeConfirmationKey(s.ctx, "confirm-key")
	s.ErrorIs(err, models.ErrInvalidConfirmationKey)

	s.Require().NoError(s.verify.SaveResetToken(s.ctx, "reset-token", 4, time.Hour))
	_, err = s.verify.ConsumeConfirmationKey(s.ctx, "reset-token")
	s.ErrorIs(err, models.ErrInvalidConfirmationKey, "namespaces do not overlap")
	// чужой пользователь не сжигает токен
	s.ErrorIs(s.verify.ConsumeResetToken(s.ctx, "reset-token", 5), models.ErrInvalidPasswordResetLink)
	s.Require().NoError(s.verify.ConsumeResetToken(s.ctx, "reset-token", 4))
	s.ErrorIs(s.verify.ConsumeResetToken(s.ctx, "reset-token", 4), models.ErrInvalidPasswordResetLink)
}
