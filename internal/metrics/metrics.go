// Package metrics declares the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by endpoint and status code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kotae",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// RequestDuration tracks request latency per endpoint.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kotae",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// ResolutionsTotal counts query resolutions by decision path.
	// Labels: path (local, agent, unavailable)
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kotae",
			Subsystem: "resolve",
			Name:      "resolutions_total",
			Help:      "Total query resolutions by decision path",
		},
		[]string{"path"},
	)

	// AuthFailuresTotal counts rejected requests by reason.
	// Labels: reason (missing_token, malformed_header, invalid_token,
	// mtls_unverified, insufficient_role)
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kotae",
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Total authentication and authorization failures",
		},
		[]string{"reason"},
	)

	// AuditWriteFailuresTotal counts audit appends that could not be
	// persisted. The caller-visible response does not depend on audit
	// durability, so this counter is the observable signal.
	AuditWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kotae",
			Subsystem: "audit",
			Name:      "write_failures_total",
			Help:      "Total failed audit log appends",
		},
	)

	// TicketsCreatedTotal counts escalation tickets persisted.
	TicketsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kotae",
			Subsystem: "tickets",
			Name:      "created_total",
			Help:      "Total escalation tickets created",
		},
	)

	// IngestDocumentsTotal counts FAQ entries upserted into the candidate store.
	IngestDocumentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kotae",
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Total FAQ entries ingested into the candidate store",
		},
	)
)
