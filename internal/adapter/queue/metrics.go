package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var outboxPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox rows handed to RabbitMQ, by result",
	},
	[]string{"result"}, // sent | retry | dead
)
