// Package generator строит промпты и разбирает ответы LLM:
// настройки романа, пролог, краткое содержание глав, рекомендации и перевод.
package generator

import (
	"context"
	"strconv"

	"novel-stella/internal/ai"
	"novel-stella/internal/models"

	"go.uber.org/zap"
)

// Generator is the story-generation API used by the book services.
//
//go:generate mockery --name Generator --output ../mocks --outpkg mocks --case=underscore
type Generator interface {
	// GenerateElements создает настройки романа по свободному запросу.
	GenerateElements(ctx context.Context, userID int64, prompt, language string) (models.Elements, error)
	// GeneratePrologue пишет пролог по настройкам.
	GeneratePrologue(ctx context.Context, userID int64, elements models.Elements) (string, error)
	// GenerateSummary пишет содержание следующей главы и рекомендации к ней.
	GenerateSummary(ctx context.Context, userID int64, input SummaryInput) (*SummaryResult, error)
	// Translate никогда не падает: при ошибке возвращается исходный текст.
	Translate(ctx context.Context, userID int64, text, language string) string
	// TranslateElements переводит каждое поле настроек.
	TranslateElements(ctx context.Context, userID int64, elements models.Elements, language string) models.Elements
}

// Options настраивают генератор.
type Options struct {
	Retry       RetryPolicy
	MemoryLimit int
}

type storyGenerator struct {
	client  ai.TextClient
	counter *ai.TokenCounter
	opts    Options
	logger  *zap.Logger
}

var _ Generator = (*storyGenerator)(nil)

// New creates a Generator on top of an LLM client.
func New(client ai.TextClient, counter *ai.TokenCounter, opts Options, logger *zap.Logger) Generator {
	if opts.Retry.Attempts < 1 {
		opts.Retry = DefaultRetryPolicy
	}
	return &storyGenerator{
		client:  client,
		counter: counter,
		opts:    opts,
		logger:  logger.Named("StoryGenerator"),
	}
}

// chat вызывает модель с повторами; пустой ответ тоже считается ошибкой.
func (g *storyGenerator) chat(ctx context.Context, userID int64, op string, messages []ai.Message, params ai.GenerationParams) (string, error) {
	var out string
	attempt := 0
	err := g.opts.Retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		text, err := g.chatOnce(ctx, userID, messages, params)
		if err != nil {
			g.logger.Warn("LLM call failed", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		g.logger.Error("LLM call failed after retries", zap.String("op", op), zap.Int64("userID", userID), zap.Error(err))
		return "", err
	}
	return out, nil
}

// chatOnce - один вызов без повторов, повторы делает вызывающий.
func (g *storyGenerator) chatOnce(ctx context.Context, userID int64, messages []ai.Message, params ai.GenerationParams) (string, error) {
	text, _, err := g.client.Chat(ctx, strconv.FormatInt(userID, 10), messages, params)
	return text, err
}

func withExamples(system string, examples []fewShot) []ai.Message {
	msgs := make([]ai.Message, 0, 1+2*len(examples))
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: system})
	for _, ex := range examples {
		msgs = append(msgs,
			ai.Message{Role: ai.RoleUser, Content: ex.Input},
			ai.Message{Role: ai.RoleAssistant, Content: ex.Answer},
		)
	}
	return msgs
}
