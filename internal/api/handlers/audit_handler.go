// server/internal/api/handlers/audit_handler.go
package handlers

import (
	"context"
	"net/http"

	"pipeyard-storage-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditHandler struct {
	DB *mongo.Database
}

// GetAuditLog liệt kê audit trail cho admin viewer, mới nhất trước.
// Lọc được theo entityID, action hoặc actorID.
// Ví dụ: /audit-log?entityID=SR-A1B2C3D4&action=APPROVE_REQUEST
func (h *AuditHandler) GetAuditLog(c *gin.Context) {
	filter := bson.M{}
	if entityID := c.Query("entityID"); entityID != "" {
		filter["entityID"] = entityID
	}
	if action := c.Query("action"); action != "" {
		filter["action"] = action
	}
	if actorID := c.Query("actorID"); actorID != "" {
		filter["actorID"] = actorID
	}

	collection := h.DB.Collection("audit_log")
	cursor, err := collection.Find(context.Background(), filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(200))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query audit log"})
		return
	}
	defer cursor.Close(context.Background())

	var entries []models.AuditLogEntry
	if err = cursor.All(context.Background(), &entries); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode audit log"})
		return
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
