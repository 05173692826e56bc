// server/internal/api/handlers/queue_handler.go
package handlers

import (
	"context"
	"net/http"

	"pipeyard-storage-api-server/internal/engine"
	"pipeyard-storage-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type QueueHandler struct {
	Worker *engine.Worker
}

// DrainQueue kích hoạt một lượt drain thủ công, ngoài chu kỳ ticker.
func (h *QueueHandler) DrainQueue(c *gin.Context) {
	stats, err := h.Worker.Drain(context.Background())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to drain notification queue"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetStuckEntries liệt kê các notification kẹt lại để vận hành xử lý tay.
func (h *QueueHandler) GetStuckEntries(c *gin.Context) {
	entries, err := h.Worker.StuckEntries(context.Background())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query stuck entries"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetPendingEntries liệt kê entry chưa processed, mới nhất trước.
func (h *QueueHandler) GetPendingEntries(c *gin.Context) {
	queue := h.Worker.Engine.DB.Collection("notification_queue")

	cursor, err := queue.Find(context.Background(), bson.M{"processed": false},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(200))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query notification queue"})
		return
	}
	defer cursor.Close(context.Background())

	var entries []models.NotificationQueueEntry
	if err = cursor.All(context.Background(), &entries); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode notification queue"})
		return
	}
	if entries == nil {
		entries = []models.NotificationQueueEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
