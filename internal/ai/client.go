package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"novel-stella/internal/config"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrAIGenerationFailed - ошибка при генерации текста AI.
var ErrAIGenerationFailed = errors.New("ai text generation failed")

// Роли сообщений чата.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message - одно сообщение диалога с моделью.
type Message struct {
	Role    string
	Content string
}

// GenerationParams - параметры генерации.
// Используем указатели, чтобы отличить 0/0.0 от отсутствия.
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// UsageInfo содержит информацию об использовании токенов.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// TextClient интерфейс для взаимодействия с LLM.
//
//go:generate mockery --name TextClient --output ../mocks --outpkg mocks --case=underscore
type TextClient interface {
	// GenerateText отправляет системный промпт и ввод пользователя.
	GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params GenerationParams) (string, UsageInfo, error)
	// Chat отправляет произвольную историю сообщений (few-shot примеры, память).
	Chat(ctx context.Context, userID string, messages []Message, params GenerationParams) (string, UsageInfo, error)
	// Model returns the configured model name.
	Model() string
}

// NewTextClient создает клиента по cfg.AIClientType ("openai" или "ollama").
func NewTextClient(cfg *config.Config, logger *zap.Logger) (TextClient, error) {
	switch strings.ToLower(cfg.AIClientType) {
	case "openai":
		client := newOpenAIClient(cfg)
		logger.Info("OpenAI client created",
			zap.String("baseURL", cfg.AIBaseURL),
			zap.String("model", cfg.AIModel),
			zap.Duration("timeout", cfg.AITimeout),
		)
		return &openAIClient{client: client, model: cfg.AIModel, logger: logger.Named("OpenAIClient")}, nil
	case "ollama":
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI client type: '%s'", cfg.AIClientType)
	}
}

func newOpenAIClient(cfg *config.Config) *openaigo.Client {
	openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
	if cfg.AIBaseURL != "" {
		openaiConfig.BaseURL = cfg.AIBaseURL
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}
	return openaigo.NewClientWithConfig(openaiConfig)
}

// --- OpenAI Client Implementation ---

type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func (c *openAIClient) Model() string { return c.model }

func (c *openAIClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params GenerationParams) (string, UsageInfo, error) {
	return c.Chat(ctx, userID, systemAndUser(systemPrompt, userInput), params)
}

func (c *openAIClient) Chat(ctx context.Context, userID string, messages []Message, params GenerationParams) (string, UsageInfo, error) {
	usageInfo := UsageInfo{}
	if len(messages) == 0 {
		aiRequestsTotal.WithLabelValues(c.model, "error", userID).Inc()
		return "", usageInfo, fmt.Errorf("%w: no messages", ErrAIGenerationFailed)
	}

	chatMessages := make([]openaigo.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openaigo.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	startTime := time.Now()
	c.logger.Debug("Sending request to AI",
		zap.String("model", c.model),
		zap.Int("messages", len(messages)),
		zap.String("userID", userID),
	)

	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: float32Val(params.Temperature),
		MaxTokens:   intVal(params.MaxTokens),
		TopP:        float32Val(params.TopP),
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Warn("AI API error", zap.Duration("duration", duration), zap.String("userID", userID), zap.Error(err))
		aiRequestsTotal.WithLabelValues(c.model, "error", userID).Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Warn("AI API returned empty response", zap.Duration("duration", duration), zap.String("userID", userID))
		aiRequestsTotal.WithLabelValues(c.model, "error_empty_response", userID).Inc()
		return "", usageInfo, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(c.model, "success", userID).Inc()
	aiRequestDuration.WithLabelValues(c.model, userID).Observe(duration.Seconds())

	usageInfo.PromptTokens = resp.Usage.PromptTokens
	usageInfo.CompletionTokens = resp.Usage.CompletionTokens
	usageInfo.TotalTokens = resp.Usage.TotalTokens
	observeUsage(c.model, userID, usageInfo)

	text := resp.Choices[0].Message.Content
	c.logger.Debug("AI response received",
		zap.Duration("duration", duration),
		zap.Int("length", len(text)),
		zap.Int("totalTokens", usageInfo.TotalTokens),
	)
	return text, usageInfo, nil
}

func systemAndUser(systemPrompt, userInput string) []Message {
	messages := []Message{{Role: RoleSystem, Content: systemPrompt}}
	if userInput != "" {
		messages = append(messages, Message{Role: RoleUser, Content: userInput})
	}
	return messages
}

// float32Val: nil -> 1.0 (значение API по умолчанию).
func float32Val(f64 *float64) float32 {
	if f64 == nil {
		return 1.0
	}
	return float32(*f64)
}

// intVal: nil -> 0, для API это "без лимита".
func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
