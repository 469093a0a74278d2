package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"novel-stella/internal/config"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// ollamaClient реализует TextClient через нативный API Ollama.
type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func newOllamaClient(cfg *config.Config, logger *zap.Logger) (TextClient, error) {
	ollamaBaseURL := strings.TrimSuffix(cfg.AIBaseURL, "/v1")
	ollamaBaseURL = strings.TrimSuffix(ollamaBaseURL, "/")

	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL '%s': %w", ollamaBaseURL, err)
	}
	client := api.NewClient(parsedURL, &http.Client{Timeout: cfg.AITimeout})

	logger.Info("Ollama client created",
		zap.String("baseURL", ollamaBaseURL),
		zap.String("model", cfg.AIModel),
		zap.Duration("timeout", cfg.AITimeout),
	)
	return &ollamaClient{
		client:  client,
		model:   cfg.AIModel,
		timeout: cfg.AITimeout,
		logger:  logger.Named("OllamaClient"),
	}, nil
}

func (c *ollamaClient) Model() string { return c.model }

func (c *ollamaClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params GenerationParams) (string, UsageInfo, error) {
	return c.Chat(ctx, userID, systemAndUser(systemPrompt, userInput), params)
}

func (c *ollamaClient) Chat(ctx context.Context, userID string, messages []Message, params GenerationParams) (string, UsageInfo, error) {
	usageInfo := UsageInfo{}
	if len(messages) == 0 {
		aiRequestsTotal.WithLabelValues(c.model, "error", userID).Inc()
		return "", usageInfo, fmt.Errorf("%w: no messages", ErrAIGenerationFailed)
	}

	apiMessages := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		apiMessages = append(apiMessages, api.Message{Role: m.Role, Content: m.Content})
	}

	options := map[string]interface{}{}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.TopP != nil {
		options["top_p"] = *params.TopP
	}
	if params.MaxTokens != nil {
		options["num_predict"] = *params.MaxTokens
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: apiMessages,
		Stream:   &stream,
		Options:  options,
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r // последний ответ - полный
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("Ollama request timed out", zap.Duration("timeout", c.timeout), zap.String("userID", userID))
		} else {
			c.logger.Warn("Ollama API error", zap.Duration("duration", duration), zap.String("userID", userID), zap.Error(err))
		}
		aiRequestsTotal.WithLabelValues(c.model, "error", userID).Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if resp.Message.Content == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error_empty_response", userID).Inc()
		return "", usageInfo, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(c.model, "success", userID).Inc()
	aiRequestDuration.WithLabelValues(c.model, userID).Observe(duration.Seconds())

	usageInfo.PromptTokens = resp.PromptEvalCount
	usageInfo.CompletionTokens = resp.EvalCount
	usageInfo.TotalTokens = resp.PromptEvalCount + resp.EvalCount
	observeUsage(c.model, userID, usageInfo)

	return resp.Message.Content, usageInfo, nil
}
