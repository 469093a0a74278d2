package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"novel-stella/internal/config"
	"novel-stella/internal/mailer"
	"novel-stella/internal/mocks"
	"novel-stella/internal/models"
	"novel-stella/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPepper = "unit-test-pepper"

func newTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:            "unit-test-secret",
		PasswordPepper:       testPepper,
		AccessTokenTTL:       time.Hour,
		RefreshTokenTTL:      24 * time.Hour,
		JWTIssuer:            "novel-stella-test",
		FrontendURL:          "https://front.test",
		EmailConfirmationTTL: 24 * time.Hour,
		PasswordResetTTL:     24 * time.Hour,
		EmailSubjectPrefix:   "[Test] ",
	}
}

type accountFixture struct {
	users    *mocks.MockUserRepository
	tokens   *mocks.MockTokenRepository
	verif    *mocks.MockVerificationRepository
	books    *mocks.MockBookRepository
	chapters *mocks.MockChapterRepository
	media    *mocks.MockStorage
	mail     *mocks.MockPublisher
	svc      service.AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	f := &accountFixture{
		users:    new(mocks.MockUserRepository),
		tokens:   new(mocks.MockTokenRepository),
		verif:    new(mocks.MockVerificationRepository),
		books:    new(mocks.MockBookRepository),
		chapters: new(mocks.MockChapterRepository),
		media:    new(mocks.MockStorage),
		mail:     new(mocks.MockPublisher),
	}
	f.svc = service.NewAccountService(service.AccountDeps{
		Users:         f.users,
		Tokens:        f.tokens,
		Verifications: f.verif,
		Books:         f.books,
		Chapters:      f.chapters,
		Storage:       f.media,
		Mail:          f.mail,
	}, newTestConfig(), zap.NewNop())
	t.Cleanup(func() {
		f.users.AssertExpectations(t)
		f.tokens.AssertExpectations(t)
		f.verif.AssertExpectations(t)
		f.mail.AssertExpectations(t)
		f.books.AssertExpectations(t)
		f.chapters.AssertExpectations(t)
	})
	return f
}

func testUser(t *testing.T, password string) *models.User {
	hash, err := service.HashPassword(password, testPepper)
	require.NoError(t, err)
	return &models.User{
		ID:           7,
		Email:        "reader@example.com",
		Nickname:     "reader",
		PasswordHash: hash,
		IsVerified:   true,
		IsActive:     true,
	}
}

func TestRegister_Success(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	f.users.On("ExistsByEmail", ctx, "new@example.com").Return(false, nil)
	f.users.On("ExistsByNickname", ctx, "writer", int64(0)).Return(false, nil)
	f.users.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "new@example.com" && !u.IsVerified && u.IsActive && u.PasswordHash != "Passw0rd!"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 11
	}).Return(nil)
	f.verif.On("SaveConfirmationKey", ctx, mock.AnythingOfType("string"), int64(11), 24*time.Hour).Return(nil)
	f.mail.On("Publish", ctx, mock.MatchedBy(func(m mailer.Message) bool {
		return m.Kind == mailer.KindEmailConfirmation && m.To == "new@example.com" &&
			strings.Contains(m.Text, "https://front.test/confirm-email/")
	})).Return(nil)

	user, err := f.svc.Register(ctx, models.RegistrationInput{
		Email:     "  New@Example.com ",
		Nickname:  "writer",
		Password1: "Passw0rd!",
		Password2: "Passw0rd!",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), user.ID)
}

func TestRegister_CollectsFieldErrors(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.Register(context.Background(), models.RegistrationInput{
		Email:     "not-an-email",
		Nickname:  "x",
		Password1: "short",
		Password2: "other",
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Len(t, verr.Fields, 4)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "nickname")
	assert.Contains(t, verr.Fields, "password1")
	assert.Contains(t, verr.Fields, "password2")
}

func TestRegister_DuplicateEmailAndNickname(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.users.On("ExistsByEmail", ctx, "dup@example.com").Return(true, nil)
	f.users.On("ExistsByNickname", ctx, "taken", int64(0)).Return(true, nil)

	_, err := f.svc.Register(ctx, models.RegistrationInput{
		Email: "dup@example.com", Nickname: "taken", Password1: "Passw0rd!", Password2: "Passw0rd!",
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "A user is already registered with this e-mail address.", verr.Fields["email"])
	assert.Equal(t, "This nickname is already in use.", verr.Fields["nickname"])
}

func TestRegister_MailFailureIsNotFatal(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.users.On("ExistsByEmail", ctx, "new@example.com").Return(false, nil)
	f.users.On("ExistsByNickname", ctx, "writer", int64(0)).Return(false, nil)
	f.users.On("Create", ctx, mock.Anything).Return(nil)
	f.verif.On("SaveConfirmationKey", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.mail.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))

	_, err := f.svc.Register(ctx, models.RegistrationInput{
		Email: "new@example.com", Nickname: "writer", Password1: "Passw0rd!", Password2: "Passw0rd!",
	})
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAccountFixture(t)
		user := testUser(t, "Passw0rd!")
		f.users.On("GetByEmail", ctx, user.Email).Return(user, nil)
		f.tokens.On("SetToken", ctx, user.ID, mock.AnythingOfType("*models.TokenDetails")).Return(nil)

		res, err := f.svc.Login(ctx, "Reader@Example.com", "Passw0rd!")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Access)
		assert.NotEmpty(t, res.Refresh)
		assert.Equal(t, user.Details(), res.User)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newAccountFixture(t)
		_, err := f.svc.Login(ctx, "", "x")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAccountFixture(t)
		f.users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, models.ErrUserNotFound)
		_, err := f.svc.Login(ctx, "ghost@example.com", "Passw0rd!")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAccountFixture(t)
		user := testUser(t, "Passw0rd!")
		f.users.On("GetByEmail", ctx, user.Email).Return(user, nil)
		_, err := f.svc.Login(ctx, user.Email, "wrong")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("not verified", func(t *testing.T) {
		f := newAccountFixture(t)
		user := testUser(t, "Passw0rd!")
		user.IsVerified = false
		f.users.On("GetByEmail", ctx, user.Email).Return(user, nil)
		_, err := f.svc.Login(ctx, user.Email, "Passw0rd!")
		assert.ErrorIs(t, err, models.ErrEmailNotVerified)
	})

	t.Run("inactive", func(t *testing.T) {
		f := newAccountFixture(t)
		user := testUser(t, "Passw0rd!")
		user.IsActive = false
		f.users.On("GetByEmail", ctx, user.Email).Return(user, nil)
		_, err := f.svc.Login(ctx, user.Email, "Passw0rd!")
		assert.ErrorIs(t, err, models.ErrAccountInactive)
	})
}

// login выдает пару токенов для user через мок репозиториев.
func login(t *testing.T, f *accountFixture, user *models.User, password string) *models.TokenDetails {
	ctx := context.Background()
	f.users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	var issued *models.TokenDetails
	f.tokens.On("SetToken", ctx, user.ID, mock.AnythingOfType("*models.TokenDetails")).
		Run(func(args mock.Arguments) { issued = args.Get(2).(*models.TokenDetails) }).
		Return(nil).Once()
	_, err := f.svc.Login(ctx, user.Email, password)
	require.NoError(t, err)
	require.NotNil(t, issued)
	return issued
}

func TestRefresh_RotatesTokens(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	user := testUser(t, "Passw0rd!")
	td := login(t, f, user, "Passw0rd!")

	f.tokens.On("ConsumeRefreshUUID", ctx, td.RefreshUUID).Return(user.ID, nil).Once()
	f.tokens.On("ConsumeRefreshUUID", ctx, td.RefreshUUID).Return(int64(0), models.ErrTokenNotFound)
	f.users.On("GetByID", ctx, user.ID).Return(user, nil)
	f.tokens.On("SetToken", ctx, user.ID, mock.AnythingOfType("*models.TokenDetails")).Return(nil).Once()

	fresh, err := f.svc.Refresh(ctx, td.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, td.RefreshUUID, fresh.RefreshUUID)
	assert.NotEqual(t, td.RefreshToken, fresh.RefreshToken)

	// повторное использование того же refresh-токена отклоняется
	_, err = f.svc.Refresh(ctx, td.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
	f.tokens.AssertNotCalled(t, "DeleteTokens", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_RevokedToken(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	user := testUser(t, "Passw0rd!")
	td := login(t, f, user, "Passw0rd!")

	f.tokens.On("ConsumeRefreshUUID", ctx, td.RefreshUUID).Return(int64(0), models.ErrTokenNotFound)

	_, err := f.svc.Refresh(ctx, td.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	f := newAccountFixture(t)
	user := testUser(t, "Passw0rd!")
	td := login(t, f, user, "Passw0rd!")

	_, err := f.svc.Refresh(context.Background(), td.AccessToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		f := newAccountFixture(t)
		user := testUser(t, "Passw0rd!")
		td := login(t, f, user, "Passw0rd!")
		f.tokens.On("GetUserIDByAccessUUID", ctx, td.AccessUUID).Return(user.ID, nil)
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)

		claims, err := f.svc.Authenticate(ctx, td.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	})

	t.Run("revoked", func(t *testing.T) {
		f := newAccountFixture(t)
		user := testUser(t, "Passw0rd!")
		td := login(t, f, user, "Passw0rd!")
		f.tokens.On("GetUserIDByAccessUUID", ctx, td.AccessUUID).Return(int64(0), models.ErrTokenNotFound)

		_, err := f.svc.Authenticate(ctx, td.AccessToken)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})
}

func TestLogout_RevokesBothTokens(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	user := testUser(t, "Passw0rd!")
	td := login(t, f, user, "Passw0rd!")

	f.tokens.On("DeleteTokens", ctx, user.ID, td.AccessUUID, td.RefreshUUID).Return(int64(2), nil)

	claims := &models.Claims{UserID: user.ID}
	claims.ID = td.AccessUUID
	require.NoError(t, f.svc.Logout(ctx, claims, td.RefreshToken))
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email is silent", func(t *testing.T) {
		f := newAccountFixture(t)
		f.users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, models.ErrUserNotFound)
		assert.NoError(t, f.svc.RequestPasswordReset(ctx, "ghost@example.com"))
	})

	t.Run("mails a reset link", func(t *testing.T) {
		f := newAccountFixture(t)
		user := testUser(t, "Passw0rd!")
		f.users.On("GetByEmail", ctx, user.Email).Return(user, nil)
		f.verif.On("SaveResetToken", ctx, mock.AnythingOfType("string"), user.ID, 24*time.Hour).Return(nil)
		f.mail.On("Publish", ctx, mock.MatchedBy(func(m mailer.Message) bool {
			return m.Kind == mailer.KindPasswordReset &&
				strings.Contains(m.Text, "https://front.test/password-reset/confirm/7/")
		})).Return(nil)

		assert.NoError(t, f.svc.RequestPasswordReset(ctx, user.Email))
	})

	t.Run("confirm", func(t *testing.T) {
		f := newAccountFixture(t)
		f.verif.On("ConsumeResetToken", ctx, "tok", int64(7)).Return(nil)
		f.users.On("UpdatePasswordHash", ctx, int64(7), mock.AnythingOfType("string")).Return(nil)
		f.tokens.On("DeleteTokensByUserID", ctx, int64(7)).Return(int64(2), nil)

		assert.NoError(t, f.svc.ConfirmPasswordReset(ctx, "7", "tok", "N3wPassword", "N3wPassword"))
	})

	t.Run("token of another user", func(t *testing.T) {
		f := newAccountFixture(t)
		f.verif.On("ConsumeResetToken", ctx, "tok", int64(7)).Return(models.ErrInvalidPasswordResetLink)

		err := f.svc.ConfirmPasswordReset(ctx, "7", "tok", "N3wPassword", "N3wPassword")
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "token")
		f.users.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed uid keeps token", func(t *testing.T) {
		f := newAccountFixture(t)
		err := f.svc.ConfirmPasswordReset(ctx, "not-a-uid", "tok", "N3wPassword", "N3wPassword")
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "uid")
		f.verif.AssertNotCalled(t, "ConsumeResetToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("weak new password", func(t *testing.T) {
		f := newAccountFixture(t)
		err := f.svc.ConfirmPasswordReset(ctx, "7", "tok", "weak", "weak")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestConfirmEmail(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	f.verif.On("ConsumeConfirmationKey", ctx, "key1").Return(int64(7), nil)
	f.users.On("MarkVerified", ctx, int64(7)).Return(nil)
	require.NoError(t, f.svc.ConfirmEmail(ctx, "key1"))

	f.verif.On("ConsumeConfirmationKey", ctx, "gone").Return(int64(0), models.ErrInvalidConfirmationKey)
	assert.ErrorIs(t, f.svc.ConfirmEmail(ctx, "gone"), models.ErrInvalidConfirmationKey)
}

func TestResendConfirmation(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown", func(t *testing.T) {
		f := newAccountFixture(t)
		f.users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, models.ErrUserNotFound)
		assert.ErrorIs(t, f.svc.ResendConfirmation(ctx, "ghost@example.com"), models.ErrUserNotFound)
	})

	t.Run("already verified", func(t *testing.T) {
		f := newAccountFixture(t)
		user := testUser(t, "Passw0rd!")
		f.users.On("GetByEmail", ctx, user.Email).Return(user, nil)
		assert.ErrorIs(t, f.svc.ResendConfirmation(ctx, user.Email), models.ErrAlreadyVerified)
	})

	t.Run("missing email", func(t *testing.T) {
		f := newAccountFixture(t)
		assert.ErrorIs(t, f.svc.ResendConfirmation(ctx, " "), models.ErrInvalidInput)
	})
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		f := newAccountFixture(t)
		user := testUser(t, "Passw0rd!")
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)
		err := f.svc.DeleteAccount(ctx, user.ID, "nope", "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("success", func(t *testing.T) {
		f := newAccountFixture(t)
		user := testUser(t, "Passw0rd!")
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)
		f.tokens.On("DeleteTokensByUserID", ctx, user.ID).Return(int64(2), nil)
		f.users.On("Delete", ctx, user.ID).Return(nil)
		assert.NoError(t, f.svc.DeleteAccount(ctx, user.ID, "Passw0rd!", ""))
	})
}

func TestUpdateNickname(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	user := testUser(t, "Passw0rd!")

	f.users.On("ExistsByNickname", ctx, "busy", user.ID).Return(true, nil)
	_, err := f.svc.UpdateNickname(ctx, user.ID, "busy")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.svc.UpdateNickname(ctx, user.ID, strings.Repeat("n", 31))
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	f.users.On("ExistsByNickname", ctx, "fresh", user.ID).Return(false, nil)
	f.users.On("UpdateNickname", ctx, user.ID, "fresh").Return(nil)
	updated := *user
	updated.Nickname = "fresh"
	f.users.On("GetByID", ctx, user.ID).Return(&updated, nil)
	got, err := f.svc.UpdateNickname(ctx, user.ID, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Nickname)
}

func TestGetProfile_BooksWithChaptersAndImages(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	avatar := "profile_images/ann.png"
	f.users.On("GetByID", ctx, int64(7)).Return(&models.User{ID: 7, Email: "ann@example.com", Nickname: "ann", ProfileImage: &avatar}, nil)
	cover := "books/cover.png"
	f.books.On("ListByUser", ctx, int64(7)).Return([]*models.Book{{ID: 3, UserID: 7, Title: "T", Image: &cover}}, nil)
	f.chapters.On("ListByBooks", ctx, []int64{3}).Return(map[int64][]*models.Chapter{
		3: {{ID: 10, BookID: 3, ChapterNum: 0, Content: "prologue"}},
	}, nil)

	profile, err := f.svc.GetProfile(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "/media/profile_images/ann.png", *profile.ProfileImage)
	require.Len(t, profile.Books, 1)
	require.NotNil(t, profile.Books[0].ImageURL)
	assert.Equal(t, "/media/books/cover.png", *profile.Books[0].ImageURL)
	assert.Len(t, profile.Books[0].Chapters, 1)
}
