package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingestion-path counters. Registered on the default registry so promhttp
// serves them without extra wiring.
var (
	BatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_batches_total",
		Help: "Accepted ingestion batches.",
	})

	EventsSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_events_saved_total",
		Help: "Events persisted to the store.",
	})

	BatchesRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_batches_rejected_total",
		Help: "Batches rejected before any store interaction.",
	})

	StoreFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_store_failures_total",
		Help: "Bulk writes that failed at the store.",
	})
)

// Handler exposes the Prometheus scrape endpoint as a Gin handler.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
