package models

import "github.com/golang-jwt/jwt/v5"

// Token types stored in the "token_type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenDetails holds a freshly issued token pair.
type TokenDetails struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
	AccessUUID   string `json:"-"`
	RefreshUUID  string `json:"-"`
	AtExpires    int64  `json:"-"`
	RtExpires    int64  `json:"-"`
}

// Claims - поля JWT. ID (jti) хранится в Redis, удаление ключа = отзыв токена.
type Claims struct {
	UserID    int64  `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}
