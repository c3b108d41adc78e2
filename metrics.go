package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meetnote_client",
			Name:      "messages_sent_total",
			Help:      "Chat messages sent, by the path that produced the reply.",
		},
		[]string{"path"},
	)

	messagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meetnote_client",
			Name:      "replies_dropped_total",
			Help:      "Replies discarded because their session was no longer current or the surface closed.",
		},
		[]string{"shard"},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meetnote_client",
			Name:      "uploads_total",
			Help:      "File uploads, by kind and path.",
		},
		[]string{"kind", "path"},
	)
)

// Reply paths.
const (
	pathRemote   = "remote"
	pathOffline  = "offline"
	pathFallback = "fallback"
)
