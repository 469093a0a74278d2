package service

import (
	"context"

	"novel-stella/internal/models"
)

// AccountService defines registration, authentication and profile logic.
type AccountService interface {
	Register(ctx context.Context, in models.RegistrationInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	// Logout отзывает access-токен (по jti) и, если передан, refresh-токен.
	Logout(ctx context.Context, claims *models.Claims, refreshToken string) error
	// Refresh ротирует пару: старый refresh-токен отзывается.
	Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error)
	// VerifyToken проверяет токен любого типа, включая отзыв.
	VerifyToken(ctx context.Context, token string) error
	// Authenticate проверяет access-токен и статус пользователя (для middleware).
	Authenticate(ctx context.Context, accessToken string) (*models.Claims, error)

	GetUser(ctx context.Context, userID int64) (*models.User, error)
	UpdateNickname(ctx context.Context, userID int64, nickname string) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword1, newPassword2 string) error
	// RequestPasswordReset не сообщает, существует ли email.
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, uid, token, newPassword1, newPassword2 string) error

	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, nickname string) (*models.Profile, error)
	DeleteAccount(ctx context.Context, userID int64, password, refreshToken string) error

	ConfirmEmail(ctx context.Context, key string) error
	ResendConfirmation(ctx context.Context, email string) error
}
