package handler

import (
	"strconv"
	"strings"

	"novel-stella/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Ключи gin.Context.
const (
	ctxUserID = "user_id"
	ctxClaims = "claims"
)

// bearerToken достает токен из "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (token string, present bool, ok bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false, false
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		zap.L().Warn("Invalid Authorization header format")
		return "", true, false
	}
	return parts[1], true, true
}

func (h *Handler) authenticate(c *gin.Context, tokenString string) bool {
	claims, err := h.accounts.Authenticate(c.Request.Context(), tokenString)
	if err != nil {
		zap.L().Warn("Access token verification failed", zap.Error(err))
		tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
		handleServiceError(c, err)
		return false
	}
	tokenVerificationsTotal.WithLabelValues("access", "success").Inc()
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxClaims, claims)
	zap.L().Debug("Access token verified successfully",
		zap.String("userID", strconv.FormatInt(claims.UserID, 10)), zap.String("accessUUID", claims.ID))
	return true
}

// AuthMiddleware требует валидный access-токен.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, ok := bearerToken(c)
		if !present {
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, models.ErrUnauthorized)
			return
		}
		if !ok {
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}
		if h.authenticate(c, token) {
			c.Next()
		}
	}
}

// OptionalAuthMiddleware пропускает анонимов, но отклоняет неверный токен.
func (h *Handler) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, ok := bearerToken(c)
		if !present {
			c.Next()
			return
		}
		if !ok {
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}
		if h.authenticate(c, token) {
			c.Next()
		}
	}
}

// currentUserID возвращает 0 для анонимного запроса.
func currentUserID(c *gin.Context) int64 {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

func currentClaims(c *gin.Context) *models.Claims {
	if v, ok := c.Get(ctxClaims); ok {
		if claims, ok := v.(*models.Claims); ok {
			return claims
		}
	}
	return nil
}
