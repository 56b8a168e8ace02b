// Copyright 2024-2026 Aiku AI

// Package metrics holds the Prometheus collectors for the relay and the
// HTTP handler that exposes them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesRelayed counts inbound messages that passed the eligibility
	// filter and entered fan-out.
	MessagesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "globalchat_messages_relayed_total",
		Help: "Eligible inbound messages that entered fan-out.",
	})

	// Deliveries counts per-destination dispatch outcomes.
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "globalchat_deliveries_total",
		Help: "Per-destination webhook dispatch outcomes.",
	}, []string{"status"})

	// AttachmentFailures counts messages dropped because an attachment
	// could not be fetched.
	AttachmentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "globalchat_attachment_failures_total",
		Help: "Messages aborted due to attachment fetch failures.",
	})

	// MappingFailures counts relay mapping rows that could not be written
	// after a successful dispatch.
	MappingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "globalchat_mapping_failures_total",
		Help: "Relay mapping writes that failed after dispatch.",
	})
)

const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// Handler returns the /metrics exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
