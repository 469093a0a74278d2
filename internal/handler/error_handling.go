package handler

import (
	"errors"
	"net/http"
	"strconv"

	"novel-stella/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorMapping - статус и текст для известной ошибки.
type errorMapping struct {
	err    error
	status int
	detail string
}

// Порядок важен: первое совпадение по errors.Is.
var errorMappings = []errorMapping{
	{models.ErrInvalidCredentials, http.StatusBadRequest, "Unable to log in with provided credentials."},
	{models.ErrEmailNotVerified, http.StatusBadRequest, "E-mail is not verified."},
	{models.ErrAccountInactive, http.StatusBadRequest, "User account is disabled."},
	{models.ErrAlreadyVerified, http.StatusBadRequest, "Email is already verified."},
	{models.ErrUserNotFound, http.StatusNotFound, "User with this email does not exist."},
	{models.ErrInvalidConfirmationKey, http.StatusNotFound, "Invalid or expired confirmation key."},
	{models.ErrInvalidPasswordResetLink, http.StatusBadRequest, "Invalid password reset link."},

	{models.ErrUnauthorized, http.StatusUnauthorized, "Authentication credentials were not provided."},
	{models.ErrTokenExpired, http.StatusUnauthorized, "Token is invalid or expired"},
	{models.ErrTokenInvalid, http.StatusUnauthorized, "Token is invalid or expired"},
	{models.ErrTokenMalformed, http.StatusUnauthorized, "Token is invalid or expired"},
	{models.ErrTokenNotFound, http.StatusUnauthorized, "Token is invalid or expired"},
	{models.ErrForbidden, http.StatusUnauthorized, "You don't have permission."},

	{models.ErrMissingPrompt, http.StatusBadRequest, "Prompt is required."},
	{models.ErrMissingSummary, http.StatusBadRequest, "Summary or selected recommendation is required."},
	{models.ErrMissingTag, http.StatusBadRequest, "Tag not provided"},
	{models.ErrMissingImageArgs, http.StatusBadRequest, "Missing parameters"},
	{models.ErrInvalidRating, http.StatusBadRequest, "Rating must be between 1 and 5"},
	{models.ErrAlreadyRated, http.StatusBadRequest, "You have already rated this book."},
	{models.ErrRatingNotFound, http.StatusNotFound, "User has not rated this book yet."},
	{models.ErrChapterExists, http.StatusConflict, "Chapter already exists."},

	{models.ErrBookNotFound, http.StatusNotFound, "Not found."},
	{models.ErrChapterNotFound, http.StatusNotFound, "Not found."},
	{models.ErrCommentNotFound, http.StatusNotFound, "Not found."},
	{models.ErrNotFound, http.StatusNotFound, "Not found."},

	{models.ErrGenerationFailed, http.StatusInternalServerError, "Failed to create synopsis."},
	{models.ErrImageGenerationFailed, http.StatusInternalServerError, "Failed to generate image."},

	{models.ErrBadRequest, http.StatusBadRequest, "Bad request."},
	{models.ErrInvalidInput, http.StatusBadRequest, "Invalid input."},
}

// handleServiceError пишет ошибку в едином формате и прерывает цепочку.
func handleServiceError(c *gin.Context, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) && verr.HasErrors() {
		abortWithFields(c, http.StatusBadRequest, verr.Fields)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			abortWithDetail(c, m.status, m.detail)
			return
		}
	}

	zap.L().Error("Unhandled internal error in handleServiceError",
		zap.Error(err), zap.String("path", c.Request.URL.Path))
	abortWithDetail(c, http.StatusInternalServerError, "An unexpected internal error occurred")
}

func abortWithDetail(c *gin.Context, status int, detail string) {
	errorResponsesTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	c.AbortWithStatusJSON(status, models.NewErrorResponse(status, detail))
}

func abortWithFields(c *gin.Context, status int, fields map[string]string) {
	errorResponsesTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	c.AbortWithStatusJSON(status, models.NewFieldErrorResponse(status, fields))
}
