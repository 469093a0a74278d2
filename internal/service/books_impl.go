package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"novel-stella/internal/generator"
	"novel-stella/internal/interfaces"
	"novel-stella/internal/models"
	"novel-stella/internal/storage"

	"go.uber.org/zap"
)

// MaxSettingLength - ограничение поля setting.
const MaxSettingLength = 1000

// MaxTagLength соответствует tags.name VARCHAR(50).
const MaxTagLength = 50

var _ BookService = (*bookServiceImpl)(nil)

type bookServiceImpl struct {
	books    interfaces.BookRepository
	chapters interfaces.ChapterRepository
	tags     interfaces.TagRepository
	recent   interfaces.RecentSearchRepository
	gen      generator.Generator
	media    storage.Storage
	now      func() time.Time
	logger   *zap.Logger
}

// BookDeps - зависимости BookService.
type BookDeps struct {
	Books          interfaces.BookRepository
	Chapters       interfaces.ChapterRepository
	Tags           interfaces.TagRepository
	RecentSearches interfaces.RecentSearchRepository
	Generator      generator.Generator
	Storage        storage.Storage
}

// NewBookService creates a new BookService.
func NewBookService(deps BookDeps, logger *zap.Logger) BookService {
	return &bookServiceImpl{
		books:    deps.Books,
		chapters: deps.Chapters,
		tags:     deps.Tags,
		recent:   deps.RecentSearches,
		gen:      deps.Generator,
		media:    deps.Storage,
		now:      time.Now,
		logger:   logger.Named("BookService"),
	}
}

// withMedia проставляет публичные URL картинок книги и ее глав.
func withMedia(media storage.Storage, book *models.Book) *models.Book {
	if book == nil || media == nil {
		return book
	}
	if book.Image != nil && *book.Image != "" {
		u := media.URL(*book.Image)
		book.ImageURL = &u
	}
	for _, ch := range book.Chapters {
		chapterWithMedia(media, ch)
	}
	return book
}

func chapterWithMedia(media storage.Storage, ch *models.Chapter) {
	if ch.Image != nil && *ch.Image != "" && media != nil {
		u := media.URL(*ch.Image)
		ch.Image = &u
	}
}

func booksWithMedia(media storage.Storage, books []*models.Book) []*models.Book {
	for _, b := range books {
		withMedia(media, b)
	}
	return books
}

// loadChapters подгружает главы списка книг одним запросом и проставляет URL картинок.
func loadChapters(ctx context.Context, repo interfaces.ChapterRepository, media storage.Storage, books []*models.Book) ([]*models.Book, error) {
	if len(books) > 0 {
		ids := make([]int64, len(books))
		for i, b := range books {
			ids[i] = b.ID
		}
		byBook, err := repo.ListByBooks(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to list chapters: %w", err)
		}
		for _, b := range books {
			b.Chapters = byBook[b.ID]
		}
	}
	return booksWithMedia(media, books), nil
}

// loadOwnedBook возвращает книгу, только если ее владелец userID.
func loadOwnedBook(ctx context.Context, repo interfaces.BookRepository, bookID, userID int64) (*models.Book, error) {
	book, err := repo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.UserID != userID {
		return nil, models.ErrForbidden
	}
	return book, nil
}

// normalizeTags убирает пустые и повторяющиеся теги, сохраняя порядок.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func validateTags(verr *models.ValidationError, tags []string) {
	for _, t := range tags {
		if utf8.RuneCountInString(strings.TrimSpace(t)) > MaxTagLength {
			verr.Add("tags", "Ensure this field has no more than 50 characters.")
			return
		}
	}
}

func (s *bookServiceImpl) List(ctx context.Context, page int) ([]*models.Book, int64, error) {
	if page < 1 {
		return nil, 0, models.ErrNotFound
	}
	total, err := s.books.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}
	offset := (page - 1) * models.DefaultPageSize
	if page > 1 && int64(offset) >= total {
		return nil, total, models.ErrNotFound
	}
	books, err := s.books.List(ctx, models.DefaultPageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	books, err = loadChapters(ctx, s.chapters, s.media, books)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (s *bookServiceImpl) Create(ctx context.Context, userID int64, prompt, language string, tags []string) (*models.CreatedBook, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, models.ErrMissingPrompt
	}
	verr := &models.ValidationError{}
	validateTags(verr, tags)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(language) == "" {
		language = generator.DefaultLanguage
	}
	log := s.logger.With(zap.Int64("userID", userID), zap.String("language", language))
	log.Info("Creating book from prompt")

	elements, err := s.gen.GenerateElements(ctx, userID, prompt, language)
	if err != nil {
		booksCreatedTotal.WithLabelValues("error").Inc()
		log.Error("Failed to generate elements", zap.Error(err))
		return nil, err
	}
	translated := s.gen.TranslateElements(ctx, userID, elements, language)

	book := &models.Book{
		UserID:     userID,
		Title:      elements.Title,
		Genre:      elements.Genre,
		Theme:      elements.Theme,
		Tone:       elements.Tone,
		Setting:    truncateRunes(elements.Setting, MaxSettingLength),
		Characters: elements.Characters,
	}
	if err := s.books.Create(ctx, book, normalizeTags(tags)); err != nil {
		booksCreatedTotal.WithLabelValues("error").Inc()
		log.Error("Failed to save book", zap.Error(err))
		return nil, fmt.Errorf("failed to save book: %w", err)
	}

	booksCreatedTotal.WithLabelValues("success").Inc()
	log.Info("Book created", zap.Int64("bookID", book.ID))
	return &models.CreatedBook{BookID: book.ID, Content: translated}, nil
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func (s *bookServiceImpl) Get(ctx context.Context, bookID, viewerID int64) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	chapters, err := s.chapters.ListByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	book.Chapters = chapters

	if viewerID > 0 {
		if err := s.recent.Record(ctx, viewerID, bookID); err != nil {
			s.logger.Warn("Failed to record recent search",
				zap.Int64("userID", viewerID), zap.Int64("bookID", bookID), zap.Error(err))
		}
	}
	return withMedia(s.media, book), nil
}

func validateBookUpdate(upd models.BookUpdate) error {
	verr := &models.ValidationError{}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		verr.Add("title", "This field may not be blank.")
	}
	if upd.Setting != nil && utf8.RuneCountInString(*upd.Setting) > MaxSettingLength {
		verr.Add("setting", "Ensure this field has no more than 1000 characters.")
	}
	if upd.SetTags {
		validateTags(verr, upd.Tags)
	}
	return verr.OrNil()
}

func (s *bookServiceImpl) Update(ctx context.Context, userID, bookID int64, upd models.BookUpdate) (*models.Book, error) {
	if _, err := loadOwnedBook(ctx, s.books, bookID, userID); err != nil {
		return nil, err
	}
	if err := validateBookUpdate(upd); err != nil {
		return nil, err
	}
	if upd.SetTags {
		upd.Tags = normalizeTags(upd.Tags)
	}
	if !upd.IsEmpty() || upd.SetTags {
		if err := s.books.Update(ctx, bookID, upd); err != nil {
			return nil, fmt.Errorf("failed to update book: %w", err)
		}
	}
	s.logger.Info("Book updated", zap.Int64("bookID", bookID), zap.Int64("userID", userID))
	return s.Get(ctx, bookID, 0)
}

func (s *bookServiceImpl) Delete(ctx context.Context, userID, bookID int64) error {
	if _, err := loadOwnedBook(ctx, s.books, bookID, userID); err != nil {
		return err
	}
	if err := s.books.Delete(ctx, bookID); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	s.logger.Info("Book deleted", zap.Int64("bookID", bookID), zap.Int64("userID", userID))
	return nil
}

func (s *bookServiceImpl) DeletePrologue(ctx context.Context, userID, bookID int64) error {
	if _, err := loadOwnedBook(ctx, s.books, bookID, userID); err != nil {
		return err
	}
	if err := s.chapters.DeleteByNumber(ctx, bookID, 0); err != nil {
		return err
	}
	if err := s.books.RefreshFullText(ctx, bookID); err != nil {
		return fmt.Errorf("failed to refresh full text: %w", err)
	}
	s.logger.Info("Prologue deleted", zap.Int64("bookID", bookID))
	return nil
}

func (s *bookServiceImpl) UserBooks(ctx context.Context, userID int64) ([]*models.Book, error) {
	books, err := s.books.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return loadChapters(ctx, s.chapters, s.media, books)
}

func (s *bookServiceImpl) LikedBooks(ctx context.Context, userID int64) ([]*models.Book, error) {
	books, err := s.books.ListLikedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return loadChapters(ctx, s.chapters, s.media, books)
}

func (s *bookServiceImpl) SearchByTag(ctx context.Context, tag string) ([]*models.Book, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, models.ErrMissingTag
	}
	books, err := s.books.SearchByTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	return loadChapters(ctx, s.chapters, s.media, books)
}

func (s *bookServiceImpl) PopularTags(ctx context.Context) ([]models.Tag, error) {
	return s.tags.Popular(ctx, PopularTagsLimit)
}

func (s *bookServiceImpl) PopularBooks(ctx context.Context) ([]*models.Book, error) {
	since := s.now().AddDate(0, 0, -PopularBooksWindowDays)
	books, err := s.books.ListPopular(ctx, since, PopularBooksLimit)
	if err != nil {
		return nil, err
	}
	return loadChapters(ctx, s.chapters, s.media, books)
}

func (s *bookServiceImpl) RecentSearches(ctx context.Context, userID int64) ([]*models.Book, error) {
	books, err := s.recent.ListBooks(ctx, userID, RecentSearchesLimit)
	if err != nil {
		return nil, err
	}
	return loadChapters(ctx, s.chapters, s.media, books)
}
