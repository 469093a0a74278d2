package models

import "time"

// DefaultPageSize - размер страницы списка книг.
const DefaultPageSize = 8

// Elements - настройки романа, из которых строятся промпты.
type Elements struct {
	Title      string `json:"title"`
	Genre      string `json:"genre"`
	Theme      string `json:"theme"`
	Tone       string `json:"tone"`
	Setting    string `json:"setting"`
	Characters string `json:"characters"`
}

// Book - книга пользователя вместе с вычисляемыми полями.
// Поля с db:"-" заполняются сервисом.
type Book struct {
	ID            int64      `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	Title         string     `db:"title" json:"title"`
	Genre         string     `db:"genre" json:"genre"`
	Theme         string     `db:"theme" json:"theme"`
	Tone          string     `db:"tone" json:"tone"`
	Setting       string     `db:"setting" json:"setting"`
	Characters    string     `db:"characters" json:"characters"`
	Image         *string    `db:"image" json:"image"`
	FullText      *string    `db:"full_text" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	AverageRating *float64   `db:"average_rating" json:"average_rating"`
	UserNickname  string     `db:"user_nickname" json:"user_nickname"`
	TotalLikes    int64      `db:"total_likes" json:"-"`
	Tags          []string   `db:"tags" json:"tags"`
	Chapters      []*Chapter `db:"-" json:"chapters"`
	ImageURL      *string    `db:"-" json:"image_url"`
}

// Elements extracts the generation settings of the book.
func (b *Book) Elements() Elements {
	return Elements{
		Title:      b.Title,
		Genre:      b.Genre,
		Theme:      b.Theme,
		Tone:       b.Tone,
		Setting:    b.Setting,
		Characters: b.Characters,
	}
}

// BookUpdate - частичное обновление книги; nil = поле не меняется.
type BookUpdate struct {
	Title      *string
	Genre      *string
	Theme      *string
	Tone       *string
	Setting    *string
	Characters *string
	Tags       []string
	SetTags    bool
}

// IsEmpty reports whether no element field is set.
func (u BookUpdate) IsEmpty() bool {
	return u.Title == nil && u.Genre == nil && u.Theme == nil && u.Tone == nil &&
		u.Setting == nil && u.Characters == nil
}

// Chapter - одна сгенерированная часть книги. ChapterNum 0 - пролог.
type Chapter struct {
	ID         int64     `db:"id" json:"id"`
	BookID     int64     `db:"book_id" json:"book_id"`
	ChapterNum int       `db:"chapter_num" json:"chapter_num"`
	Content    string    `db:"content" json:"content"`
	Image      *string   `db:"image" json:"image"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Tag is a free-form label attached to books.
type Tag struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Rating - оценка книги пользователем (1..5), одна на пару книга/пользователь.
type Rating struct {
	ID     int64 `db:"id" json:"id"`
	BookID int64 `db:"book_id" json:"book"`
	UserID int64 `db:"user_id" json:"user_id"`
	Rating int   `db:"rating" json:"rating"`
}

// MinRating and MaxRating bound Rating.Rating.
const (
	MinRating = 1
	MaxRating = 5
)

// Comment - комментарий к книге.
type Comment struct {
	ID           int64     `db:"id" json:"id"`
	BookID       int64     `db:"book_id" json:"book"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Content      string    `db:"content" json:"content"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
	UserNickname string    `db:"user_nickname" json:"user_nickname"`
}

// Recommendation - вариант продолжения, предложенный моделью.
type Recommendation struct {
	Title       string `json:"Title"`
	Description string `json:"Description"`
}

// CreatedBook is the answer to book creation.
type CreatedBook struct {
	BookID  int64    `json:"book_id"`
	Content Elements `json:"content"`
}

// ChapterRequest - параметры генерации следующей главы.
type ChapterRequest struct {
	Language               string
	Summary                string
	SelectedRecommendation *Recommendation
}

// GeneratedChapter is the answer to chapter generation.
type GeneratedChapter struct {
	BookID            int64            `json:"book_id"`
	TranslatedContent string           `json:"translated_content"`
	ChapterNum        int              `json:"chapter_num"`
	Recommendations   []Recommendation `json:"recommendations"`
}

// LikeStatus - состояние лайка книги для текущего пользователя.
type LikeStatus struct {
	TotalLikes int64      `json:"total_likes"`
	Book       *LikedBook `json:"book"`
	LikeBool   bool       `json:"like_bool"`
}

// LikedBook is a Book with its like counter exposed.
type LikedBook struct {
	*Book
	TotalLikes int64 `json:"total_likes"`
}

// ChapterImageRequest overrides the prompt parts taken from the book.
type ChapterImageRequest struct {
	Title   *string
	Tone    *string
	Setting *string
}
