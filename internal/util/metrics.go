package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of rejected or failed order creations",
	}, []string{"reason"})

	OrdersSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_settled_total",
		Help: "Total number of orders marked paid by payment reconciliation",
	})

	PaymentVerificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_failed_total",
		Help: "Total number of rejected payment callbacks",
	}, []string{"reason"})

	DuplicateSettleCallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_settle_callbacks_total",
		Help: "Total number of payment callbacks for already-settled orders",
	})

	StatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Total number of admin status transitions",
	}, []string{"from", "to"})

	StatusTransitionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_status_transitions_rejected_total",
		Help: "Total number of status transitions rejected by the transition table",
	})

	DeliveryQuotesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_quotes_total",
		Help: "Total number of serviceability quotes computed",
	})

	DeliveryQuotesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_quotes_rejected_total",
		Help: "Total number of quotes rejected for malformed pincodes",
	})

	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of notifications delivered to a sink",
	}, []string{"channel", "kind"})

	NotificationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Total number of notification attempts that failed",
	}, []string{"channel", "kind"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
