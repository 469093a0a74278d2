package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	accountEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novel_stella_account_events_total",
			Help: "Account operations by type and outcome.",
		},
		[]string{"event", "status"},
	)
	chaptersGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novel_stella_chapters_generated_total",
			Help: "Generated chapters; kind is prologue or summary.",
		},
		[]string{"kind", "status"},
	)
	chapterGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "novel_stella_chapter_generation_duration_seconds",
			Help:    "Histogram of chapter generation durations including translation.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"kind"},
	)
	booksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novel_stella_books_created_total",
			Help: "Books created from a prompt.",
		},
		[]string{"status"},
	)
	chapterImagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novel_stella_chapter_images_total",
			Help: "Chapter image generation requests.",
		},
		[]string{"status"},
	)
)
