package generator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"novel-stella/internal/ai"
	"novel-stella/internal/models"

	"go.uber.org/zap"
)

// MaxRecommendedChapter - после этой главы рекомендации не генерируются.
const MaxRecommendedChapter = 29

var errEmptyResponse = errors.New("empty model response")

var recommendedPathsRe = regexp.MustCompile(`(?s)Recommended summary paths:.*$`)

// SummaryInput - данные для генерации главы ChapterNum (>= 1).
// History - тексты предыдущих глав 1..ChapterNum-1 по порядку.
type SummaryInput struct {
	ChapterNum int
	Prompt     string
	Elements   models.Elements
	Prologue   string
	History    []string
	Language   string
}

// SummaryResult содержит переведенный текст главы.
// Recommendations == nil, если их нет (поздние главы или все попытки неудачны).
type SummaryResult struct {
	Summary         string
	Recommendations []models.Recommendation
}

// Stages returns the plot stage for chapter n and the stage the next chapter falls into.
// Каждые 6 глав - новая стадия; после пятой стадия не меняется.
func Stages(n int) (current, next string) {
	i := 0
	if n > 0 {
		i = (n - 1) / 6
	}
	if i > len(stages)-1 {
		i = len(stages) - 1
	}
	current, next = stages[i], stages[i]
	if n > 0 && n%6 == 0 && i+1 < len(stages) {
		next = stages[i+1]
	}
	return current, next
}

// StripRecommendedPaths убирает хвост "Recommended summary paths: ...", который модель иногда дописывает.
func StripRecommendedPaths(text string) string {
	return strings.TrimSpace(recommendedPathsRe.ReplaceAllString(text, ""))
}

func (g *storyGenerator) GenerateSummary(ctx context.Context, userID int64, in SummaryInput) (*SummaryResult, error) {
	current, next := Stages(in.ChapterNum)
	history := MemoryWindow(in.History, g.counter, g.opts.MemoryLimit)
	previous := ""
	if len(history) > 0 {
		previous = history[len(history)-1]
	}

	msgs := withExamples(fmt.Sprintf(summarySystemPromptTemplate, current), summaryExamples)
	msgs = appendHistory(msgs, history)
	msgs = append(msgs, ai.Message{
		Role:    ai.RoleUser,
		Content: fmt.Sprintf(summaryUserPromptTemplate, FormatElements(in.Elements), in.Prologue, in.Prompt, previous),
	})

	raw, err := g.chat(ctx, userID, "summary", msgs, ai.GenerationParams{Temperature: ai.Float64(1.2)})
	if err != nil {
		return nil, fmt.Errorf("%w: summary: %v", models.ErrGenerationFailed, err)
	}

	result := &SummaryResult{
		Summary: g.Translate(ctx, userID, StripRecommendedPaths(raw), in.Language),
	}
	if in.ChapterNum <= MaxRecommendedChapter {
		result.Recommendations = g.recommend(ctx, userID, history, raw, next, in.Language)
	}
	g.logger.Info("Summary generated",
		zap.Int64("userID", userID),
		zap.Int("chapterNum", in.ChapterNum),
		zap.Int("historyChapters", len(history)),
		zap.Int("recommendations", len(result.Recommendations)),
	)
	return result, nil
}

func appendHistory(msgs []ai.Message, history []string) []ai.Message {
	for _, h := range history {
		msgs = append(msgs, ai.Message{Role: ai.RoleAssistant, Content: h})
	}
	return msgs
}
