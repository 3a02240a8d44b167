// Package metrics exposes prometheus collectors shared by ReelGate services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignRequests counts private-media sign requests by terminal outcome
	// (signed, legacy_url, missing_token, invalid_token, content_not_found,
	// subscription_inactive, media_not_found, sign_failed, misconfigured,
	// rate_limited).
	SignRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelgate_sign_requests_total",
			Help: "Total number of signed-URL requests by outcome",
		},
		[]string{"outcome"},
	)

	// SignDuration tracks end-to-end latency of the sign flow, which spans
	// up to four platform round trips.
	SignDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelgate_sign_duration_seconds",
			Help:    "Duration of the signed-URL flow in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PaymentVerifications counts payment signature checks by result.
	PaymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelgate_payment_verifications_total",
			Help: "Total number of payment signature verifications by result",
		},
		[]string{"result"},
	)

	// ViewEvents counts recorded and deduplicated catalog view events.
	ViewEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelgate_view_events_total",
			Help: "Total number of catalog view events by disposition",
		},
		[]string{"disposition"},
	)
)
