package service

import (
	"testing"
	"time"

	"novel-stella/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Тесты для hashPassword и checkPasswordHash

func TestHashAndCheckPassword(t *testing.T) {
	password := "mysecretpassword"
	pepper := "test-pepper-for-unit-tests"

	hashedPassword, err := hashPassword(password, pepper)
	require.NoError(t, err, "hashPassword should not return an error")
	require.NotEmpty(t, hashedPassword)
	assert.NotEqual(t, password, hashedPassword, "Hashed password should not be equal to the original password")

	assert.True(t, checkPasswordHash(password, hashedPassword, pepper), "correct password and pepper")
	assert.False(t, checkPasswordHash("wrongpassword", hashedPassword, pepper), "incorrect password")
	// перец входит в HMAC до bcrypt, поэтому другой перец не подходит
	assert.False(t, checkPasswordHash(password, hashedPassword, "another-pepper"), "incorrect pepper")
	assert.False(t, checkPasswordHash(password, "not-a-bcrypt-hash", pepper), "invalid hash format")
}

func TestUIDRoundTrip(t *testing.T) {
	for _, id := range []int64{1, 35, 36, 123456789} {
		uid := encodeUID(id)
		got, err := decodeUID(uid)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	assert.Equal(t, "z", encodeUID(35))

	_, err := decodeUID("!!")
	assert.Error(t, err)
}

func TestOneTimeKey(t *testing.T) {
	a, b := newOneTimeKey(), newOneTimeKey()
	assert.Len(t, a, 32)
	assert.NotContains(t, a, "-")
	assert.NotEqual(t, a, b)
}

func newTestIssuer(now time.Time) *tokenIssuer {
	return &tokenIssuer{
		secret:     []byte("test-secret"),
		issuer:     "novel-stella-test",
		accessTTL:  time.Hour,
		refreshTTL: 24 * time.Hour,
		now:        func() time.Time { return now },
	}
}

func TestTokenIssuer(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(now)

	td, err := issuer.issue(42)
	require.NoError(t, err)
	assert.NotEqual(t, td.AccessUUID, td.RefreshUUID)
	assert.Equal(t, now.Add(time.Hour).Unix(), td.AtExpires)

	t.Run("access parses as access", func(t *testing.T) {
		claims, err := issuer.parse(td.AccessToken, models.TokenTypeAccess)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, td.AccessUUID, claims.ID)
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := issuer.parse(td.RefreshToken, models.TokenTypeAccess)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("any type", func(t *testing.T) {
		claims, err := issuer.parse(td.RefreshToken, "")
		require.NoError(t, err)
		assert.Equal(t, models.TokenTypeRefresh, claims.TokenType)
	})

	t.Run("expired", func(t *testing.T) {
		later := newTestIssuer(now.Add(2 * time.Hour))
		_, err := later.parse(td.AccessToken, models.TokenTypeAccess)
		assert.ErrorIs(t, err, models.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := newTestIssuer(now)
		other.secret = []byte("other")
		_, err := other.parse(td.AccessToken, models.TokenTypeAccess)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := issuer.parse("not.a.jwt", "")
		assert.ErrorIs(t, err, models.ErrTokenMalformed)
	})
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name  string
		pw    string
		valid bool
	}{
		{"too short", "Ab1!", false},
		{"length only", "abcdefgh", false},
		{"lower and digit", "password1", false},
		{"lower and special", "abcdefgh!", false},
		{"upper and digit", "ABCDEFG1", false},
		{"lower and upper", "abcdEFGH", false},
		{"digits only", "12345678", false},
		{"digits and special", "1234567!", false},
		{"lower upper digit", "abcdEFG1", true},
		{"lower digit special", "abcdefg1!", true},
		{"upper digit special", "ABCDEFG1!", true},
		{"all four classes", "Abcdef1!", true},
		{"short with all classes", "Ab1!x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ValidatePassword(tt.pw)
			if tt.valid {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}
