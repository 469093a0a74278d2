// Package handler - HTTP API на gin: /api/accounts и /api/books.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"novel-stella/internal/config"
	"novel-stella/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler обслуживает все маршруты API.
type Handler struct {
	accounts service.AccountService
	books    service.BookService
	chapters service.ChapterService
	social   service.SocialService
	cfg      *config.Config
	logger   *zap.Logger
}

// Services - сервисы, которые вызывают обработчики.
type Services struct {
	Accounts service.AccountService
	Books    service.BookService
	Chapters service.ChapterService
	Social   service.SocialService
}

// Limiters - необязательные rate-limit middleware (nil = без ограничения).
type Limiters struct {
	Accounts   gin.HandlerFunc
	Generation gin.HandlerFunc
}

func NewHandler(svc Services, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		accounts: svc.Accounts,
		books:    svc.Books,
		chapters: svc.Chapters,
		social:   svc.Social,
		cfg:      cfg,
		logger:   logger.Named("Handler"),
	}
}

func orPass(mw gin.HandlerFunc) gin.HandlerFunc {
	if mw == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return mw
}

// withoutWriteDeadline снимает WriteTimeout сервера: генерация главы
// делает несколько последовательных запросов к модели.
func withoutWriteDeadline(c *gin.Context) {
	rc := http.NewResponseController(c.Writer)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		zap.L().Warn("Failed to clear write deadline", zap.Error(err), zap.String("path", c.Request.URL.Path))
	}
	c.Next()
}

func routeNotFound(c *gin.Context) {
	abortWithDetail(c, http.StatusNotFound, "Not found.")
}

func methodNotAllowed(c *gin.Context) {
	abortWithDetail(c, http.StatusMethodNotAllowed, fmt.Sprintf("Method \"%s\" not allowed.", c.Request.Method))
}

func (h *Handler) RegisterRoutes(router *gin.Engine, limits Limiters) {
	registerValidators()

	router.HandleMethodNotAllowed = true
	router.NoRoute(routeNotFound)
	router.NoMethod(methodNotAllowed)

	authLimit := orPass(limits.Accounts)
	genLimit := orPass(limits.Generation)
	slow := withoutWriteDeadline
	auth := h.AuthMiddleware()
	optionalAuth := h.OptionalAuthMiddleware()

	accounts := router.Group("/api/accounts")
	{
		accounts.POST("/registration/", authLimit, h.register)
		accounts.POST("/login/", authLimit, h.login)
		accounts.POST("/logout/", auth, h.logout)
		accounts.POST("/token/refresh/", authLimit, h.refresh)
		accounts.POST("/token/verify/", h.verifyToken)

		accounts.GET("/user/", auth, h.getUser)
		accounts.PUT("/user/", auth, h.updateUser)
		accounts.PATCH("/user/", auth, h.updateUser)

		accounts.POST("/password/change/", auth, h.changePassword)
		accounts.POST("/password/reset/", authLimit, h.resetPassword)
		accounts.POST("/password/reset/confirm/", authLimit, h.confirmPasswordReset)

		accounts.GET("/profile/", auth, h.getProfile)
		accounts.PUT("/profile/", auth, h.updateProfile)
		accounts.DELETE("/profile/", auth, h.deleteProfile)

		accounts.POST("/verify-email/", h.verifyEmail)
		accounts.POST("/registration/verify-email/", h.verifyEmail)
		accounts.GET("/confirm-email/:key/", h.confirmEmailRedirect)
		accounts.GET("/account-confirm-email/:key/", h.confirmEmailRedirect)
		accounts.POST("/resend-email/", authLimit, h.resendEmail)
		accounts.POST("/registration/resend-email/", authLimit, h.resendEmail)
	}

	books := router.Group("/api/books")
	{
		books.GET("/", h.listBooks)
		books.POST("/", auth, genLimit, slow, h.createBook)

		books.GET("/userbooks/", auth, h.userBooks)
		books.GET("/userlikedbooks/", auth, h.likedBooks)
		books.GET("/search_by_tags/", h.searchByTag)
		books.GET("/popular_tags/", h.popularTags)
		books.GET("/popular_books/", h.popularBooks)
		books.GET("/recent_searches/", auth, h.recentSearches)

		books.POST("/chapters/:cid/generate-image/", auth, genLimit, slow, h.generateChapterImage)

		books.GET("/:id/", optionalAuth, h.getBook)
		books.POST("/:id/", auth, genLimit, slow, h.generateChapter)
		books.PUT("/:id/", auth, h.updateBook)
		books.PATCH("/:id/", auth, h.updateBook)
		books.DELETE("/:id/", auth, h.deleteBook)
		books.DELETE("/:id/del_prol/", auth, h.deletePrologue)

		books.GET("/:id/rating/", auth, h.getRating)
		books.POST("/:id/rating/", auth, h.rateBook)

		books.GET("/:id/comments/", h.listComments)
		books.POST("/:id/comments/", auth, h.createComment)
		books.PUT("/:id/comments/:cid/", auth, h.updateComment)
		books.PATCH("/:id/comments/:cid/", auth, h.updateComment)
		books.DELETE("/:id/comments/:cid/", auth, h.deleteComment)

		books.GET("/:id/like/", optionalAuth, h.getLike)
		books.POST("/:id/like/", auth, h.toggleLike)
	}
}
