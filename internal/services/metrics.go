package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "materiel_requests_created_total",
			Help: "Requests written to the ledger, by origin (cart, single, direct) and type.",
		},
		[]string{"origin", "request_type"},
	)

	cartSubmissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "materiel_cart_submissions_total",
			Help: "Carts successfully converted into a request batch.",
		},
	)

	notificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "materiel_notification_failures_total",
			Help: "Submission notices that could not be delivered.",
		},
	)
)
