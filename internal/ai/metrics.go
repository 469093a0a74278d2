package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novel_stella_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "status", "user_id"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "novel_stella_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model", "user_id"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "novel_stella_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(500, 500, 20), // 500 ... 10000
		},
		[]string{"model", "user_id"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "novel_stella_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20), // 100 ... 2000
		},
		[]string{"model", "user_id"},
	)
	aiImageRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novel_stella_ai_image_requests_total",
			Help: "Total number of image generation requests.",
		},
		[]string{"model", "status"},
	)
)

func observeUsage(model, userID string, usage UsageInfo) {
	if usage.TotalTokens == 0 {
		return
	}
	labels := prometheus.Labels{"model": model, "user_id": userID}
	aiPromptTokens.With(labels).Observe(float64(usage.PromptTokens))
	aiCompletionTokens.With(labels).Observe(float64(usage.CompletionTokens))
}
