package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"novel-stella/internal/config"
	"novel-stella/internal/interfaces"
	"novel-stella/internal/mailer"
	"novel-stella/internal/models"
	"novel-stella/internal/storage"

	"go.uber.org/zap"
)

// Ограничения никнейма.
const (
	NicknameMinLength = 2
	NicknameMaxLength = 30
)

// Compile-time check to ensure accountServiceImpl implements AccountService
var _ AccountService = (*accountServiceImpl)(nil)

type accountServiceImpl struct {
	userRepo  interfaces.UserRepository
	tokenRepo interfaces.TokenRepository
	verifRepo interfaces.VerificationRepository
	bookRepo  interfaces.BookRepository
	chapters  interfaces.ChapterRepository
	media     storage.Storage
	mail      mailer.Publisher
	templates mailer.Templates
	tokens    *tokenIssuer
	cfg       *config.Config
	logger    *zap.Logger
}

// AccountDeps - зависимости AccountService.
type AccountDeps struct {
	Users         interfaces.UserRepository
	Tokens        interfaces.TokenRepository
	Verifications interfaces.VerificationRepository
	Books         interfaces.BookRepository
	Chapters      interfaces.ChapterRepository
	Storage       storage.Storage
	Mail          mailer.Publisher
}

// NewAccountService creates a new AccountService.
func NewAccountService(deps AccountDeps, cfg *config.Config, logger *zap.Logger) AccountService {
	return &accountServiceImpl{
		userRepo:  deps.Users,
		tokenRepo: deps.Tokens,
		verifRepo: deps.Verifications,
		bookRepo:  deps.Books,
		chapters:  deps.Chapters,
		media:     deps.Storage,
		mail:      deps.Mail,
		templates: mailer.Templates{SubjectPrefix: cfg.EmailSubjectPrefix, FrontendURL: cfg.FrontendURL},
		tokens: &tokenIssuer{
			secret:     []byte(cfg.JWTSecret),
			issuer:     cfg.JWTIssuer,
			accessTTL:  cfg.AccessTokenTTL,
			refreshTTL: cfg.RefreshTokenTTL,
			now:        time.Now,
		},
		cfg:    cfg,
		logger: logger.Named("AccountService"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// validateNickname проверяет формат и занятость никнейма.
func (s *accountServiceImpl) validateNickname(ctx context.Context, nickname string, excludeID int64) (string, error) {
	n := utf8.RuneCountInString(nickname)
	switch {
	case nickname == "":
		return "Nickname is required.", nil
	case n < NicknameMinLength:
		return "Nickname must be at least 2 characters.", nil
	case n > NicknameMaxLength:
		return "Nickname must be at most 30 characters.", nil
	}
	taken, err := s.userRepo.ExistsByNickname(ctx, nickname, excludeID)
	if err != nil {
		return "", fmt.Errorf("error checking nickname: %w", err)
	}
	if taken {
		return "This nickname is already in use.", nil
	}
	return "", nil
}

func (s *accountServiceImpl) Register(ctx context.Context, in models.RegistrationInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	nickname := strings.TrimSpace(in.Nickname)
	log := s.logger.With(zap.String("email", email), zap.String("nickname", nickname))
	log.Info("Registering new user")

	verr := &models.ValidationError{}
	switch {
	case email == "":
		verr.Add("email", "This field is required.")
	case !validEmail(email):
		verr.Add("email", "Enter a valid email address.")
	default:
		exists, err := s.userRepo.ExistsByEmail(ctx, email)
		if err != nil {
			log.Error("Error checking existing email during registration", zap.Error(err))
			return nil, fmt.Errorf("error checking existing email: %w", err)
		}
		if exists {
			verr.Add("email", "A user is already registered with this e-mail address.")
		}
	}

	msg, err := s.validateNickname(ctx, nickname, 0)
	if err != nil {
		log.Error("Error checking existing nickname during registration", zap.Error(err))
		return nil, err
	}
	if msg != "" {
		verr.Add("nickname", msg)
	}
	if msg := ValidatePassword(in.Password1); msg != "" {
		verr.Add("password1", msg)
	}
	if in.Password1 != in.Password2 {
		verr.Add("password2", "The two password fields didn't match.")
	}
	if verr.HasErrors() {
		log.Warn("Registration validation failed", zap.Any("fields", verr.Fields))
		accountEventsTotal.WithLabelValues("register", "invalid").Inc()
		return nil, verr
	}

	hashedPassword, err := hashPassword(in.Password1, s.cfg.PasswordPepper)
	if err != nil {
		log.Error("Failed to hash password during registration", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: hashedPassword,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// гонка между проверкой и вставкой
		if errors.Is(err, models.ErrEmailAlreadyExists) {
			return nil, models.NewValidationError("email", "A user is already registered with this e-mail address.")
		}
		if errors.Is(err, models.ErrNicknameAlreadyExists) {
			return nil, models.NewValidationError("nickname", "This nickname is already in use.")
		}
		log.Error("Failed to create user via repository", zap.Error(err))
		return nil, err
	}

	if err := s.sendConfirmation(ctx, user); err != nil {
		// пользователь может запросить письмо повторно через resend-email
		log.Error("Failed to send confirmation mail", zap.Int64("userID", user.ID), zap.Error(err))
	}

	accountEventsTotal.WithLabelValues("register", "success").Inc()
	log.Info("User registered successfully", zap.Int64("userID", user.ID))
	return user, nil
}

func (s *accountServiceImpl) sendConfirmation(ctx context.Context, user *models.User) error {
	key := newOneTimeKey()
	if err := s.verifRepo.SaveConfirmationKey(ctx, key, user.ID, s.cfg.EmailConfirmationTTL); err != nil {
		return fmt.Errorf("failed to save confirmation key: %w", err)
	}
	msg, err := s.templates.EmailConfirmation(user.Email, user.Nickname, key, s.cfg.EmailConfirmationTTL)
	if err != nil {
		return err
	}
	return s.mail.Publish(ctx, msg)
}

func (s *accountServiceImpl) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("detail", "Please enter both email and password.")
	}
	log := s.logger.With(zap.String("email", email))
	log.Info("Login attempt")

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Warn("Login failed: user not found")
			accountEventsTotal.WithLabelValues("login", "invalid").Inc()
			return nil, models.ErrInvalidCredentials
		}
		log.Error("Login failed: error getting user from repository", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !checkPasswordHash(password, user.PasswordHash, s.cfg.PasswordPepper) {
		log.Warn("Login failed: invalid password", zap.Int64("userID", user.ID))
		accountEventsTotal.WithLabelValues("login", "invalid").Inc()
		return nil, models.ErrInvalidCredentials
	}
	if !user.IsVerified {
		log.Warn("Login failed: email not verified", zap.Int64("userID", user.ID))
		return nil, models.ErrEmailNotVerified
	}
	if !user.IsActive {
		log.Warn("Login failed: account inactive", zap.Int64("userID", user.ID))
		return nil, models.ErrAccountInactive
	}

	td, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	accountEventsTotal.WithLabelValues("login", "success").Inc()
	log.Info("User logged in successfully", zap.Int64("userID", user.ID))
	return &models.LoginResult{
		Access:  td.AccessToken,
		Refresh: td.RefreshToken,
		User:    user.Details(),
		Tokens:  td,
	}, nil
}

func (s *accountServiceImpl) issueTokens(ctx context.Context, userID int64) (*models.TokenDetails, error) {
	td, err := s.tokens.issue(userID)
	if err != nil {
		s.logger.Error("Failed to create tokens", zap.Int64("userID", userID), zap.Error(err))
		return nil, err
	}
	if err := s.tokenRepo.SetToken(ctx, userID, td); err != nil {
		s.logger.Error("Failed to save token details via repository", zap.Int64("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to save token details: %w", err)
	}
	return td, nil
}

func (s *accountServiceImpl) Logout(ctx context.Context, claims *models.Claims, refreshToken string) error {
	log := s.logger.With(zap.Int64("userID", claims.UserID), zap.String("accessUUID", claims.ID))
	refreshUUID := ""
	if refreshToken != "" {
		if rc, err := s.tokens.parse(refreshToken, models.TokenTypeRefresh); err == nil && rc.UserID == claims.UserID {
			refreshUUID = rc.ID
		} else {
			log.Debug("Refresh token ignored during logout", zap.Error(err))
		}
	}

	deleted, err := s.tokenRepo.DeleteTokens(ctx, claims.UserID, claims.ID, refreshUUID)
	if err != nil {
		// токены могли уже истечь, клиенту ошибку не отдаем
		log.Error("Failed to delete tokens during logout", zap.Error(err))
		return nil
	}
	log.Info("User logged out", zap.Int64("deletedCount", deleted))
	return nil
}

func (s *accountServiceImpl) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, models.NewValidationError("refresh", "This field is required.")
	}
	claims, err := s.tokens.parse(refreshToken, models.TokenTypeRefresh)
	if err != nil {
		s.logger.Warn("Refresh attempt with invalid token", zap.Error(err))
		return nil, err
	}

	// токен одноразовый: GETDEL гарантирует, что второй параллельный запрос его не найдет
	userID, err := s.tokenRepo.ConsumeRefreshUUID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Warn("Refresh attempt with revoked token", zap.String("refreshUUID", claims.ID))
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("error consuming refresh token: %w", err)
	}
	if userID != claims.UserID {
		s.logger.Error("Refresh token user ID mismatch",
			zap.Int64("tokenUserID", claims.UserID), zap.Int64("repoUserID", userID))
		return nil, models.ErrTokenInvalid
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, models.ErrAccountInactive
	}

	td, err := s.issueTokens(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Token refreshed successfully", zap.Int64("userID", userID))
	return td, nil
}

func (s *accountServiceImpl) VerifyToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return models.NewValidationError("token", "This field is required.")
	}
	claims, err := s.tokens.parse(token, "")
	if err != nil {
		return err
	}
	lookup := s.tokenRepo.GetUserIDByAccessUUID
	if claims.TokenType == models.TokenTypeRefresh {
		lookup = s.tokenRepo.GetUserIDByRefreshUUID
	}
	if _, err := lookup(ctx, claims.ID); err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			return models.ErrTokenInvalid
		}
		return err
	}
	return nil
}

func (s *accountServiceImpl) Authenticate(ctx context.Context, accessToken string) (*models.Claims, error) {
	claims, err := s.tokens.parse(accessToken, models.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if _, err := s.tokenRepo.GetUserIDByAccessUUID(ctx, claims.ID); err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			return nil, models.ErrTokenInvalid
		}
		s.logger.Error("Error checking access token existence", zap.Error(err))
		return nil, fmt.Errorf("error checking access token existence: %w", err)
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, models.ErrAccountInactive
	}
	return claims, nil
}

func (s *accountServiceImpl) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *accountServiceImpl) UpdateNickname(ctx context.Context, userID int64, nickname string) (*models.User, error) {
	nickname = strings.TrimSpace(nickname)
	msg, err := s.validateNickname(ctx, nickname, userID)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return nil, models.NewValidationError("nickname", msg)
	}
	if err := s.userRepo.UpdateNickname(ctx, userID, nickname); err != nil {
		if errors.Is(err, models.ErrNicknameAlreadyExists) {
			return nil, models.NewValidationError("nickname", "This nickname is already in use.")
		}
		return nil, err
	}
	s.logger.Info("Nickname updated", zap.Int64("userID", userID))
	return s.userRepo.GetByID(ctx, userID)
}

func (s *accountServiceImpl) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword1, newPassword2 string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	verr := &models.ValidationError{}
	if !checkPasswordHash(oldPassword, user.PasswordHash, s.cfg.PasswordPepper) {
		verr.Add("old_password", "Your old password was entered incorrectly. Please enter it again.")
	}
	s.validateNewPassword(verr, newPassword1, newPassword2)
	if verr.HasErrors() {
		return verr
	}
	if err := s.setPassword(ctx, userID, newPassword1); err != nil {
		return err
	}
	s.logger.Info("Password changed", zap.Int64("userID", userID))
	return nil
}

func (s *accountServiceImpl) validateNewPassword(verr *models.ValidationError, p1, p2 string) {
	if msg := ValidatePassword(p1); msg != "" {
		verr.Add("new_password1", msg)
	}
	if p1 != p2 {
		verr.Add("new_password2", "The two password fields didn't match.")
	}
}

func (s *accountServiceImpl) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := hashPassword(password, s.cfg.PasswordPepper)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePasswordHash(ctx, userID, hash)
}

func (s *accountServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return models.NewValidationError("email", "This field is required.")
	}
	if !validEmail(email) {
		return models.NewValidationError("email", "Enter a valid email address.")
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Info("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token := newOneTimeKey()
	if err := s.verifRepo.SaveResetToken(ctx, token, user.ID, s.cfg.PasswordResetTTL); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}
	msg, err := s.templates.PasswordReset(user.Email, user.Nickname, encodeUID(user.ID), token, s.cfg.PasswordResetTTL)
	if err != nil {
		return err
	}
	if err := s.mail.Publish(ctx, msg); err != nil {
		s.logger.Error("Failed to publish password reset mail", zap.Int64("userID", user.ID), zap.Error(err))
		return err
	}
	s.logger.Info("Password reset mail queued", zap.Int64("userID", user.ID))
	return nil
}

func (s *accountServiceImpl) ConfirmPasswordReset(ctx context.Context, uid, token, newPassword1, newPassword2 string) error {
	verr := &models.ValidationError{}
	s.validateNewPassword(verr, newPassword1, newPassword2)
	if verr.HasErrors() {
		return verr
	}
	userID, err := decodeUID(uid)
	if err != nil {
		return models.NewValidationError("uid", "Invalid value")
	}
	// токен чужого пользователя не сгорает: удаление только при совпадении владельца
	if err := s.verifRepo.ConsumeResetToken(ctx, token, userID); err != nil {
		if errors.Is(err, models.ErrInvalidPasswordResetLink) {
			return models.NewValidationError("token", "Invalid value")
		}
		return err
	}
	if err := s.setPassword(ctx, userID, newPassword1); err != nil {
		return err
	}
	// после сброса старые сессии недействительны
	if _, err := s.tokenRepo.DeleteTokensByUserID(ctx, userID); err != nil {
		s.logger.Error("Failed to revoke tokens after password reset", zap.Int64("userID", userID), zap.Error(err))
	}
	s.logger.Info("Password reset completed", zap.Int64("userID", userID))
	return nil
}

func (s *accountServiceImpl) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	books, err := s.bookRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user books: %w", err)
	}
	books, err = loadChapters(ctx, s.chapters, s.media, books)
	if err != nil {
		return nil, err
	}
	profileImage := user.ProfileImage
	if profileImage != nil && *profileImage != "" && s.media != nil {
		u := s.media.URL(*profileImage)
		profileImage = &u
	}
	return &models.Profile{
		ID:           user.ID,
		Email:        user.Email,
		Nickname:     user.Nickname,
		ProfileImage: profileImage,
		Books:        books,
	}, nil
}

func (s *accountServiceImpl) UpdateProfile(ctx context.Context, userID int64, nickname string) (*models.Profile, error) {
	if _, err := s.UpdateNickname(ctx, userID, nickname); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

func (s *accountServiceImpl) DeleteAccount(ctx context.Context, userID int64, password, refreshToken string) error {
	if password == "" {
		return models.NewValidationError("password", "Password is required.")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPasswordHash(password, user.PasswordHash, s.cfg.PasswordPepper) {
		return models.NewValidationError("password", "Incorrect password.")
	}

	if refreshToken != "" {
		if rc, err := s.tokens.parse(refreshToken, models.TokenTypeRefresh); err == nil {
			_, _ = s.tokenRepo.DeleteTokens(ctx, userID, "", rc.ID)
		}
	}
	if _, err := s.tokenRepo.DeleteTokensByUserID(ctx, userID); err != nil {
		s.logger.Error("Failed to revoke tokens on account deletion", zap.Int64("userID", userID), zap.Error(err))
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	accountEventsTotal.WithLabelValues("delete", "success").Inc()
	s.logger.Info("Account deleted", zap.Int64("userID", userID))
	return nil
}

func (s *accountServiceImpl) ConfirmEmail(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.ErrInvalidConfirmationKey
	}
	userID, err := s.verifRepo.ConsumeConfirmationKey(ctx, key)
	if err != nil {
		return err
	}
	if err := s.userRepo.MarkVerified(ctx, userID); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.ErrInvalidConfirmationKey
		}
		return err
	}
	accountEventsTotal.WithLabelValues("verify_email", "success").Inc()
	s.logger.Info("Email confirmed", zap.Int64("userID", userID))
	return nil
}

func (s *accountServiceImpl) ResendConfirmation(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return models.NewValidationError("email", "Email is required.")
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return models.ErrAlreadyVerified
	}
	if err := s.sendConfirmation(ctx, user); err != nil {
		s.logger.Error("Failed to resend confirmation mail", zap.Int64("userID", user.ID), zap.Error(err))
		return err
	}
	return nil
}
