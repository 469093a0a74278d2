package generator

import (
	"context"
	"fmt"
	"strings"

	"novel-stella/internal/ai"
	"novel-stella/internal/models"

	"go.uber.org/zap"
)

const maxRecommendations = 3

// ParseRecommendations собирает пары "Title: ..." / "Description: ...", не больше трех.
// Новая строка Title сбрасывает незавершенную пару.
func ParseRecommendations(text string) []models.Recommendation {
	var (
		recs               []models.Recommendation
		title, description string
	)
	for _, line := range strings.Split(text, "\n") {
		if v, ok := strings.CutPrefix(line, "Title:"); ok {
			title, description = strings.TrimSpace(v), ""
		} else if v, ok := strings.CutPrefix(line, "Description:"); ok {
			description = strings.TrimSpace(v)
			if title != "" && description != "" {
				recs = append(recs, models.Recommendation{Title: title, Description: description})
				title, description = "", ""
			}
		}
		if len(recs) == maxRecommendations {
			break
		}
	}
	return recs
}

// recommend возвращает nil, если ни одна попытка не дала разбираемого ответа.
func (g *storyGenerator) recommend(ctx context.Context, userID int64, history []string, story, nextStage, lang string) []models.Recommendation {
	msgs := withExamples(fmt.Sprintf(recommendSystemPromptTemplate, nextStage), summaryExamples)
	msgs = appendHistory(msgs, history)
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: story})

	var recs []models.Recommendation
	err := g.opts.Retry.Do(ctx, func(ctx context.Context) error {
		text, err := g.chatOnce(ctx, userID, msgs, ai.GenerationParams{Temperature: ai.Float64(1.2)})
		if err != nil {
			return err
		}
		recs = ParseRecommendations(text)
		if len(recs) == 0 {
			return errEmptyResponse
		}
		return nil
	})
	if err != nil {
		g.logger.Warn("Recommendation generation failed", zap.Int64("userID", userID), zap.Error(err))
		return nil
	}

	// одинаковые строки переводим один раз
	cache := make(map[string]string, 2*len(recs))
	translate := func(s string) string {
		if t, ok := cache[s]; ok {
			return t
		}
		t := g.Translate(ctx, userID, s, lang)
		cache[s] = t
		return t
	}
	out := make([]models.Recommendation, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.Recommendation{Title: translate(r.Title), Description: translate(r.Description)})
	}
	return out
}
