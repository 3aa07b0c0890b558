package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PratikDhanave/analytics-portal/internal/event"
	"github.com/PratikDhanave/analytics-portal/internal/metrics"
	"github.com/PratikDhanave/analytics-portal/internal/store"
)

// EventStore is the slice of the store the handlers depend on.
type EventStore interface {
	InsertBatch(ctx context.Context, records []event.Record, receivedAt time.Time) (int64, error)
	LoadAll(ctx context.Context) ([]store.StoredEvent, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// RegisterAnalyticsRoutes registers the ingestion-path endpoint.
//
// POST /analytics
// - Body: non-empty JSON array of event objects (arbitrary fields)
// - Every record in the batch gets one shared server receipt timestamp
// - Durable: returns success only after the bulk write completes
// - No dedup: resubmitting a batch stores it again
func RegisterAnalyticsRoutes(r gin.IRoutes, st EventStore, log *zap.Logger) {
	r.POST("/analytics", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			metrics.BatchesRejectedTotal.Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
			return
		}

		records, err := event.ParseBatch(body)
		if err != nil {
			metrics.BatchesRejectedTotal.Inc()
			if errors.Is(err, event.ErrEmptyBatch) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "No data received"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// One receipt timestamp per batch, applied to all records.
		receivedAt := time.Now().UTC()
		event.Stamp(records, receivedAt)

		saved, err := st.InsertBatch(c.Request.Context(), records, receivedAt)
		if err != nil {
			metrics.StoreFailuresTotal.Inc()
			log.Error("bulk write failed",
				zap.Int("batch_size", len(records)),
				zap.Error(err),
			)
			// Store error detail passes through verbatim; no retry.
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		metrics.BatchesTotal.Inc()
		metrics.EventsSavedTotal.Add(float64(saved))
		log.Info("batch saved",
			zap.Int("received", len(records)),
			zap.Int64("saved", saved),
		)

		c.JSON(http.StatusOK, gin.H{
			"status":      "success",
			"message":     "Events saved to DB",
			"saved_count": saved,
		})
	})
}
