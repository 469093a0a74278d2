package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novel_stella_registrations_total",
		Help: "Total number of successful user registrations.",
	})

	refreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "novel_stella_token_refreshes_total",
		Help: "Total number of successful token refreshes.",
	})

	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novel_stella_token_verifications_total",
			Help: "Total number of token verification attempts by type and status.",
		},
		[]string{"type", "status"},
	)

	errorResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novel_stella_error_responses_total",
			Help: "Error responses written by the API, by HTTP status.",
		},
		[]string{"status"},
	)
)
