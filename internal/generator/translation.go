package generator

import (
	"context"
	"fmt"
	"strings"

	"novel-stella/internal/ai"
	"novel-stella/internal/models"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguage используется, когда клиент не передал язык.
const DefaultLanguage = "EN-US"

const koreanLanguage = "korean"

// isKorean: модель и так пишет по-корейски, перевод не нужен.
func isKorean(lang string) bool {
	lang = strings.TrimSpace(lang)
	if strings.EqualFold(lang, koreanLanguage) {
		return true
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	base, conf := tag.Base()
	return conf == language.Exact && base.String() == "ko"
}

// LanguageName превращает код вида "EN-US" в "American English".
// Нераспознанные значения возвращаются как есть.
func LanguageName(lang string) string {
	lang = strings.TrimSpace(lang)
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return lang
}

func (g *storyGenerator) Translate(ctx context.Context, userID int64, text, lang string) string {
	if strings.TrimSpace(text) == "" || isKorean(lang) {
		return text
	}
	if lang == "" {
		lang = DefaultLanguage
	}
	msgs := []ai.Message{{Role: ai.RoleUser, Content: fmt.Sprintf(translatePromptTemplate, LanguageName(lang), text)}}

	var translated string
	err := g.opts.Retry.Do(ctx, func(ctx context.Context) error {
		out, err := g.chatOnce(ctx, userID, msgs, ai.GenerationParams{Temperature: ai.Float64(0.7)})
		if err != nil {
			return err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return errEmptyResponse
		}
		translated = out
		return nil
	})
	if err != nil {
		g.logger.Warn("Translation failed, returning original text",
			zap.Int64("userID", userID), zap.String("language", lang), zap.Error(err))
		return text
	}
	return translated
}

func (g *storyGenerator) TranslateElements(ctx context.Context, userID int64, e models.Elements, lang string) models.Elements {
	return models.Elements{
		Title:      g.Translate(ctx, userID, e.Title, lang),
		Genre:      g.Translate(ctx, userID, e.Genre, lang),
		Theme:      g.Translate(ctx, userID, e.Theme, lang),
		Tone:       g.Translate(ctx, userID, e.Tone, lang),
		Setting:    g.Translate(ctx, userID, e.Setting, lang),
		Characters: g.Translate(ctx, userID, e.Characters, lang),
	}
}
