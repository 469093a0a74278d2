package models

import (
	"errors"
	"sort"
	"strings"
)

// Application-wide standard errors
var (
	// Common
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
	ErrInternalServer = errors.New("internal server error")

	// Users & accounts
	ErrUserNotFound             = errors.New("user not found")
	ErrEmailAlreadyExists       = errors.New("user with this email already exists")
	ErrNicknameAlreadyExists    = errors.New("user with this nickname already exists")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrEmailNotVerified         = errors.New("email address is not verified")
	ErrAccountInactive          = errors.New("account is inactive")
	ErrAlreadyVerified          = errors.New("email address is already verified")
	ErrInvalidConfirmationKey   = errors.New("invalid or expired confirmation key")
	ErrInvalidPasswordResetLink = errors.New("invalid or expired password reset link")
	ErrUnauthorized             = errors.New("authentication credentials were not provided")
	ErrForbidden                = errors.New("you don't have permission")

	// Tokens
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotFound  = errors.New("token not found in storage")

	// Books & social
	ErrBookNotFound     = errors.New("book not found")
	ErrChapterNotFound  = errors.New("chapter not found")
	ErrChapterExists    = errors.New("chapter with this number already exists")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrRatingNotFound   = errors.New("user has not rated this book yet")
	ErrAlreadyRated     = errors.New("you have already rated this book")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrMissingPrompt    = errors.New("missing prompt")
	ErrMissingSummary   = errors.New("missing summary prompt")
	ErrMissingTag       = errors.New("tag not provided")
	ErrMissingImageArgs = errors.New("missing parameters")

	// External generation
	ErrGenerationFailed      = errors.New("story generation failed")
	ErrImageGenerationFailed = errors.New("image generation failed")
)

// ValidationError собирает ошибки по полям запроса.
// errors.Is(err, ErrInvalidInput) == true.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError создает ошибку с одним полем.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add запоминает только первое сообщение для поля.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether at least one field failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns nil for an empty ValidationError so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
