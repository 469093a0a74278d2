package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"novel-stella/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// applyPepper applies HMAC-SHA256 using the pepper as the key.
func applyPepper(password, pepper string) []byte {
	h := hmac.New(sha256.New, []byte(pepper))
	h.Write([]byte(password))
	return h.Sum(nil)
}

// hashPassword - bcrypt от пароля с перцем (bcrypt добавит свою соль).
func hashPassword(password, pepper string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(applyPepper(password, pepper), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash, pepper string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), applyPepper(password, pepper)) == nil
}

// newOneTimeKey - ключ подтверждения email / сброса пароля.
func newOneTimeKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// encodeUID / decodeUID - идентификатор пользователя в ссылке сброса пароля.
func encodeUID(id int64) string {
	return strconv.FormatInt(id, 36)
}

func decodeUID(uid string) (int64, error) {
	return strconv.ParseInt(uid, 36, 64)
}

// tokenIssuer подписывает и разбирает пары JWT.
type tokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func (t *tokenIssuer) issue(userID int64) (*models.TokenDetails, error) {
	now := t.now()
	td := &models.TokenDetails{
		AccessUUID:  uuid.NewString(),
		RefreshUUID: uuid.NewString(),
		AtExpires:   now.Add(t.accessTTL).Unix(),
		RtExpires:   now.Add(t.refreshTTL).Unix(),
	}

	var err error
	td.AccessToken, err = t.sign(userID, models.TokenTypeAccess, td.AccessUUID, now, td.AtExpires)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	td.RefreshToken, err = t.sign(userID, models.TokenTypeRefresh, td.RefreshUUID, now, td.RtExpires)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return td, nil
}

func (t *tokenIssuer) sign(userID int64, tokenType, id string, now time.Time, expires int64) (string, error) {
	claims := &models.Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			ExpiresAt: jwt.NewNumericDate(time.Unix(expires, 0)),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// parse проверяет подпись и срок действия. expectedType "" - любой тип.
func (t *tokenIssuer) parse(tokenString, expectedType string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, models.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, models.ErrTokenMalformed
		default:
			return nil, models.ErrTokenInvalid
		}
	}
	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, models.ErrTokenInvalid
	}
	if expectedType != "" && claims.TokenType != expectedType {
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}
