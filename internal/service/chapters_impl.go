package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"novel-stella/internal/ai"
	"novel-stella/internal/generator"
	"novel-stella/internal/interfaces"
	"novel-stella/internal/models"
	"novel-stella/internal/storage"

	"go.uber.org/zap"
)

var _ ChapterService = (*chapterServiceImpl)(nil)

type chapterServiceImpl struct {
	books    interfaces.BookRepository
	chapters interfaces.ChapterRepository
	gen      generator.Generator
	images   ai.ImageClient
	media    storage.Storage
	logger   *zap.Logger
}

// ChapterDeps - зависимости ChapterService.
type ChapterDeps struct {
	Books     interfaces.BookRepository
	Chapters  interfaces.ChapterRepository
	Generator generator.Generator
	Images    ai.ImageClient
	Storage   storage.Storage
}

// NewChapterService creates a new ChapterService.
func NewChapterService(deps ChapterDeps, logger *zap.Logger) ChapterService {
	return &chapterServiceImpl{
		books:    deps.Books,
		chapters: deps.Chapters,
		gen:      deps.Generator,
		images:   deps.Images,
		media:    deps.Storage,
		logger:   logger.Named("ChapterService"),
	}
}

// summaryPrompt: выбранная рекомендация важнее свободного текста.
func summaryPrompt(req models.ChapterRequest) (string, error) {
	if rec := req.SelectedRecommendation; rec != nil && (rec.Title != "" || rec.Description != "") {
		return fmt.Sprintf("%s: %s", rec.Title, rec.Description), nil
	}
	if s := strings.TrimSpace(req.Summary); s != "" {
		return s, nil
	}
	return "", models.ErrMissingSummary
}

func (s *chapterServiceImpl) GenerateChapter(ctx context.Context, userID, bookID int64, req models.ChapterRequest) (*models.GeneratedChapter, error) {
	book, err := loadOwnedBook(ctx, s.books, bookID, userID)
	if err != nil {
		return nil, err
	}
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = generator.DefaultLanguage
	}

	last, hasChapters, err := s.chapters.LastNumber(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to get last chapter number: %w", err)
	}
	if !hasChapters {
		return s.generatePrologue(ctx, userID, book, language)
	}
	prompt, err := summaryPrompt(req)
	if err != nil {
		return nil, err
	}
	return s.generateNext(ctx, userID, book, last+1, prompt, language)
}

func (s *chapterServiceImpl) generatePrologue(ctx context.Context, userID int64, book *models.Book, language string) (*models.GeneratedChapter, error) {
	log := s.logger.With(zap.Int64("bookID", book.ID), zap.Int64("userID", userID))
	log.Info("Generating prologue")
	start := time.Now()

	prologue, err := s.gen.GeneratePrologue(ctx, userID, book.Elements())
	if err != nil {
		chaptersGeneratedTotal.WithLabelValues("prologue", "error").Inc()
		log.Error("Failed to generate prologue", zap.Error(err))
		return nil, err
	}
	translated := s.gen.Translate(ctx, userID, prologue, language)

	if err := s.store(ctx, book.ID, 0, translated); err != nil {
		chaptersGeneratedTotal.WithLabelValues("prologue", "error").Inc()
		return nil, err
	}
	chaptersGeneratedTotal.WithLabelValues("prologue", "success").Inc()
	chapterGenerationDuration.WithLabelValues("prologue").Observe(time.Since(start).Seconds())
	log.Info("Prologue generated")
	return &models.GeneratedChapter{
		BookID:            book.ID,
		TranslatedContent: translated,
		ChapterNum:        0,
		Recommendations:   []models.Recommendation{},
	}, nil
}

func (s *chapterServiceImpl) generateNext(ctx context.Context, userID int64, book *models.Book, chapterNum int, prompt, language string) (*models.GeneratedChapter, error) {
	log := s.logger.With(zap.Int64("bookID", book.ID), zap.Int64("userID", userID), zap.Int("chapterNum", chapterNum))
	log.Info("Generating chapter summary")
	start := time.Now()

	existing, err := s.chapters.ListByBook(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	var prologue string
	history := make([]string, 0, len(existing))
	for _, ch := range existing {
		if ch.ChapterNum == 0 {
			prologue = ch.Content
			continue
		}
		history = append(history, ch.Content)
	}

	result, err := s.gen.GenerateSummary(ctx, userID, generator.SummaryInput{
		ChapterNum: chapterNum,
		Prompt:     prompt,
		Elements:   book.Elements(),
		Prologue:   prologue,
		History:    history,
		Language:   language,
	})
	if err != nil {
		chaptersGeneratedTotal.WithLabelValues("summary", "error").Inc()
		log.Error("Failed to generate summary", zap.Error(err))
		return nil, err
	}

	if err := s.store(ctx, book.ID, chapterNum, result.Summary); err != nil {
		chaptersGeneratedTotal.WithLabelValues("summary", "error").Inc()
		return nil, err
	}
	chaptersGeneratedTotal.WithLabelValues("summary", "success").Inc()
	chapterGenerationDuration.WithLabelValues("summary").Observe(time.Since(start).Seconds())
	log.Info("Chapter generated", zap.Int("recommendations", len(result.Recommendations)))
	return &models.GeneratedChapter{
		BookID:            book.ID,
		TranslatedContent: result.Summary,
		ChapterNum:        chapterNum,
		Recommendations:   result.Recommendations,
	}, nil
}

// store сохраняет главу и пересобирает full_text книги.
func (s *chapterServiceImpl) store(ctx context.Context, bookID int64, chapterNum int, content string) error {
	chapter := &models.Chapter{BookID: bookID, ChapterNum: chapterNum, Content: content}
	if err := s.chapters.Create(ctx, chapter); err != nil {
		s.logger.Error("Failed to save chapter", zap.Int64("bookID", bookID), zap.Int("chapterNum", chapterNum), zap.Error(err))
		return err
	}
	if err := s.books.RefreshFullText(ctx, bookID); err != nil {
		return fmt.Errorf("failed to refresh full text: %w", err)
	}
	return nil
}

func pick(override *string, fallback string) string {
	if override != nil {
		return strings.TrimSpace(*override)
	}
	return fallback
}

func (s *chapterServiceImpl) GenerateChapterImage(ctx context.Context, chapterID int64, req models.ChapterImageRequest) (string, error) {
	chapter, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return "", err
	}
	book, err := s.books.GetByID(ctx, chapter.BookID)
	if err != nil {
		return "", err
	}

	title := pick(req.Title, book.Title)
	tone := pick(req.Tone, book.Tone)
	setting := pick(req.Setting, book.Setting)
	if title == "" || tone == "" || setting == "" {
		return "", models.ErrMissingImageArgs
	}

	log := s.logger.With(zap.Int64("chapterID", chapterID), zap.Int64("bookID", book.ID))
	prompt := fmt.Sprintf("%s, %s, %s", title, tone, setting)
	data, err := s.images.GenerateImage(ctx, prompt)
	if err != nil {
		chapterImagesTotal.WithLabelValues("error").Inc()
		log.Error("Image generation failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", models.ErrImageGenerationFailed, err)
	}

	key, err := s.media.Save(ctx, storage.ChapterImageKey(title, chapter.ChapterNum), data, "image/png")
	if err != nil {
		chapterImagesTotal.WithLabelValues("error").Inc()
		log.Error("Failed to store chapter image", zap.Error(err))
		return "", fmt.Errorf("%w: %v", models.ErrImageGenerationFailed, err)
	}
	if err := s.chapters.SetImage(ctx, chapter.ID, key); err != nil {
		return "", fmt.Errorf("failed to set chapter image: %w", err)
	}

	chapterImagesTotal.WithLabelValues("success").Inc()
	log.Info("Chapter image generated", zap.String("key", key))
	return s.media.URL(key), nil
}
