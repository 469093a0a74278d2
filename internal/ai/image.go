package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"novel-stella/internal/config"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrImageGenerationFailed - ошибка генерации или загрузки изображения.
var ErrImageGenerationFailed = errors.New("image generation failed")

// defaultImageMaxBytes - предел размера скачиваемой картинки, если в конфиге 0.
const defaultImageMaxBytes = 20 << 20

// ImageClient генерирует картинку по промпту и возвращает ее байты.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

type openAIImageClient struct {
	client     *openaigo.Client
	httpClient *http.Client
	model      string
	size       string
	quality    string
	maxBytes   int64
	logger     *zap.Logger
}

// NewImageClient creates an OpenAI images client (DALL-E).
func NewImageClient(cfg *config.Config, logger *zap.Logger) ImageClient {
	maxBytes := cfg.ImageMaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultImageMaxBytes
	}
	return &openAIImageClient{
		client:     newOpenAIClient(cfg),
		httpClient: &http.Client{Timeout: cfg.AITimeout},
		model:      cfg.ImageModel,
		size:       cfg.ImageSize,
		quality:    cfg.ImageQuality,
		maxBytes:   maxBytes,
		logger:     logger.Named("ImageClient"),
	}
}

func (c *openAIImageClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	log := c.logger.With(zap.String("model", c.model), zap.String("size", c.size))
	startTime := time.Now()

	resp, err := c.client.CreateImage(ctx, openaigo.ImageRequest{
		Prompt:         prompt,
		Model:          c.model,
		N:              1,
		Size:           c.size,
		Quality:        c.quality,
		ResponseFormat: openaigo.CreateImageResponseFormatURL,
	})
	if err != nil {
		log.Warn("Image API error", zap.Error(err))
		aiImageRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrImageGenerationFailed, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		aiImageRequestsTotal.WithLabelValues(c.model, "error_empty_response").Inc()
		return nil, fmt.Errorf("%w: empty response", ErrImageGenerationFailed)
	}
	log.Info("Image generated", zap.Duration("duration", time.Since(startTime)))

	data, err := c.download(ctx, resp.Data[0].URL)
	if err != nil {
		aiImageRequestsTotal.WithLabelValues(c.model, "error_download").Inc()
		return nil, err
	}
	aiImageRequestsTotal.WithLabelValues(c.model, "success").Inc()
	return data, nil
}

func (c *openAIImageClient) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create download request: %v", ErrImageGenerationFailed, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download failed: %v", ErrImageGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Image download returned non-OK status", zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("%w: download returned status %d", ErrImageGenerationFailed, resp.StatusCode)
	}
	if resp.ContentLength > c.maxBytes {
		return nil, fmt.Errorf("%w: image is %d bytes, limit %d", ErrImageGenerationFailed, resp.ContentLength, c.maxBytes)
	}

	// читаем на байт больше предела, чтобы отличить "ровно предел" от превышения
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image: %v", ErrImageGenerationFailed, err)
	}
	if int64(len(body)) > c.maxBytes {
		c.logger.Warn("Image download exceeds size limit", zap.Int64("limit", c.maxBytes))
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrImageGenerationFailed, c.maxBytes)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrImageGenerationFailed)
	}
	return body, nil
}
