package mailer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mailPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novel_stella_mail_published_total",
			Help: "Mail messages published to the queue.",
		},
		[]string{"kind", "status"},
	)
	mailDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novel_stella_mail_delivered_total",
			Help: "Mail messages processed by the mail worker.",
		},
		[]string{"kind", "status"},
	)
)
