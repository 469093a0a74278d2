package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"novel-stella/internal/ai"
	"novel-stella/internal/config"
	"novel-stella/internal/database"
	"novel-stella/internal/generator"
	"novel-stella/internal/handler"
	"novel-stella/internal/mailer"
	"novel-stella/internal/middleware"
	"novel-stella/internal/models"
	"novel-stella/internal/service"
	"novel-stella/internal/storage"
	"novel-stella/pkg/logger"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	zap.ReplaceGlobals(zapLogger)
	zap.L().Info("Logger initialized", zap.String("logLevel", cfg.LogLevel), zap.String("env", cfg.Env))

	// --- External Connections ---
	pgPool, err := setupPostgres(cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	if err := database.ApplyMigrations(cfg.GetDSN()); err != nil {
		zap.L().Fatal("Failed to apply database migrations", zap.Error(err))
	}
	zap.L().Info("Database migrations applied")

	redisClient, err := setupRedis(cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	mqConn, err := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConn.Close()

	mailPublisher, err := mailer.NewAMQPPublisher(mqConn, cfg.MailQueueName, zapLogger)
	if err != nil {
		zap.L().Fatal("Failed to create mail publisher", zap.Error(err))
	}
	defer mailPublisher.Close()

	// --- AI and media ---
	textClient, err := ai.NewTextClient(cfg, zapLogger)
	if err != nil {
		zap.L().Fatal("Failed to create AI text client", zap.Error(err))
	}
	storyGen := generator.New(textClient, ai.NewTokenCounter(cfg.AIModel), generator.Options{
		Retry:       generator.RetryPolicy{Attempts: cfg.AIMaxAttempts, Delay: cfg.AIRetryDelay},
		MemoryLimit: cfg.AIMemoryLimit,
	}, zapLogger)
	imageClient := ai.NewImageClient(cfg, zapLogger)

	media, err := storage.New(cfg, zapLogger)
	if err != nil {
		zap.L().Fatal("Failed to initialize media storage", zap.Error(err))
	}

	// --- Dependency Injection ---
	userRepo := database.NewPgUserRepository(pgPool, zapLogger)
	bookRepo := database.NewPgBookRepository(pgPool, zapLogger)
	chapterRepo := database.NewPgChapterRepository(pgPool, zapLogger)
	tagRepo := database.NewPgTagRepository(pgPool, zapLogger)
	ratingRepo := database.NewPgRatingRepository(pgPool, zapLogger)
	commentRepo := database.NewPgCommentRepository(pgPool, zapLogger)
	likeRepo := database.NewPgLikeRepository(pgPool, zapLogger)
	recentRepo := database.NewPgRecentSearchRepository(pgPool, zapLogger)
	tokenRepo := database.NewRedisTokenRepository(redisClient, zapLogger)
	verificationRepo := database.NewRedisVerificationRepository(redisClient, zapLogger)

	accountSvc := service.NewAccountService(service.AccountDeps{
		Users:         userRepo,
		Tokens:        tokenRepo,
		Verifications: verificationRepo,
		Books:         bookRepo,
		Chapters:      chapterRepo,
		Storage:       media,
		Mail:          mailPublisher,
	}, cfg, zapLogger)
	bookSvc := service.NewBookService(service.BookDeps{
		Books:          bookRepo,
		Chapters:       chapterRepo,
		Tags:           tagRepo,
		RecentSearches: recentRepo,
		Generator:      storyGen,
		Storage:        media,
	}, zapLogger)
	chapterSvc := service.NewChapterService(service.ChapterDeps{
		Books:     bookRepo,
		Chapters:  chapterRepo,
		Generator: storyGen,
		Images:    imageClient,
		Storage:   media,
	}, zapLogger)
	socialSvc := service.NewSocialService(service.SocialDeps{
		Books:    bookRepo,
		Ratings:  ratingRepo,
		Comments: commentRepo,
		Likes:    likeRepo,
		Storage:  media,
	}, zapLogger)

	apiHandler := handler.NewHandler(handler.Services{
		Accounts: accountSvc,
		Books:    bookSvc,
		Chapters: chapterSvc,
		Social:   socialSvc,
	}, cfg, zapLogger)

	// --- Rate limits (Redis, per client IP) ---
	limits := handler.Limiters{
		Accounts:   newRateLimiter(redisClient, cfg.RateLimitPerMinute),
		Generation: newRateLimiter(redisClient, cfg.GenerationRatePerMinute),
	}

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.GinZapLogger(zapLogger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	if allowedOrigins := cfg.GetAllowedOrigins(); len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		zap.L().Info("CORSAllowedOrigins not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	// Локальные медиафайлы отдаем сами, S3 - по публичному URL.
	if strings.EqualFold(cfg.StorageType, "local") || cfg.StorageType == "" {
		router.Static(strings.TrimSuffix(cfg.MediaURL, "/"), cfg.MediaRoot)
	}

	apiHandler.RegisterRoutes(router, limits)

	p.Use(router)

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	zap.L().Info("Server exiting")
}

// newRateLimiter - limit запросов в минуту с одного IP; 0 отключает ограничение.
func newRateLimiter(client *redis.Client, perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return nil
	}
	store := rateli.RedisStore(&rateli.RedisOptions{
		RedisClient: client,
		Rate:        time.Minute,
		Limit:       uint(perMinute),
	})
	return rateli.RateLimiter(store, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			zap.L().Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			wait := int(math.Ceil(time.Until(info.ResetTime).Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.NewErrorResponse(http.StatusTooManyRequests,
				fmt.Sprintf("Request was throttled. Expected available in %d seconds.", wait)))
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}

// setupPostgres initializes the PostgreSQL connection pool with retry logic.
func setupPostgres(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	maxRetries := 50
	retryDelay := 3 * time.Second
	zap.L().Info("Attempting to connect to PostgreSQL", zap.Int("max_retries", maxRetries), zap.Duration("retry_delay", retryDelay))

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		connectCtx, connectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
		connectCancel()
		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			err = pool.Ping(pingCtx)
			pingCancel()
			if err == nil {
				zap.L().Info("Connected to PostgreSQL", zap.Int("attempt", attempt))
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		zap.L().Warn("Postgres connection failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < maxRetries {
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxRetries, lastErr)
}

// setupRedis initializes the Redis client with retry logic.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	maxRetries := 50
	retryDelay := 3 * time.Second
	zap.L().Info("Attempting to connect to Redis", zap.String("address", redisOpts.Addr), zap.Int("db", redisOpts.DB))

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		client := redis.NewClient(redisOpts)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := client.Ping(pingCtx).Result()
		pingCancel()
		if err == nil {
			zap.L().Info("Connected to Redis", zap.Int("attempt", attempt))
			return client, nil
		}
		_ = client.Close()
		lastErr = err
		zap.L().Warn("Redis ping failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < maxRetries {
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками.
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 50
	retryDelay := 5 * time.Second
	logger.Info("Attempting to connect to RabbitMQ", zap.Int("max_retries", maxRetries), zap.Duration("retry_delay", retryDelay))

	for attempt := 1; attempt <= maxRetries; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			logger.Info("Connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))
				if closeErr := <-notifyClose; closeErr != nil {
					logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		logger.Warn("RabbitMQ connection failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}
