// server/internal/api/handlers/inventory_handler.go
package handlers

import (
	"context"
	"net/http"

	"pipeyard-storage-api-server/internal/engine"
	"pipeyard-storage-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type InventoryHandler struct {
	DB     *mongo.Database
	Engine *engine.Engine
}

type PickUpInventoryPayload struct {
	LoadID  string   `json:"loadID" binding:"required"`
	ItemIDs []string `json:"itemIDs" binding:"required,min=1"`
}

// GetMyInventory liệt kê các joint đang trong kho của công ty người gọi.
func (h *InventoryHandler) GetMyInventory(c *gin.Context) {
	companyID := c.GetString("user_company_id")
	if companyID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "User is not associated with a company"})
		return
	}

	filter := bson.M{"companyID": companyID}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	} else {
		filter["status"] = models.InventoryStatusInStorage
	}
	if requestID := c.Query("requestID"); requestID != "" {
		filter["requestID"] = requestID
	}

	collection := h.DB.Collection("inventory_items")
	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query inventory"})
		return
	}
	defer cursor.Close(context.Background())

	var items []models.InventoryItem
	if err = cursor.All(context.Background(), &items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode inventory"})
		return
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	c.JSON(http.StatusOK, items)
}

// GetInventoryByRequest liệt kê toàn bộ joint thuộc một storage request (staff/admin).
func (h *InventoryHandler) GetInventoryByRequest(c *gin.Context) {
	requestID := c.Param("id")

	filter := bson.M{"requestID": requestID}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	collection := h.DB.Collection("inventory_items")
	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query inventory"})
		return
	}
	defer cursor.Close(context.Background())

	var items []models.InventoryItem
	if err = cursor.All(context.Background(), &items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode inventory"})
		return
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	c.JSON(http.StatusOK, items)
}

// PickUpInventory đánh dấu các joint đã xuất kho và trả capacity cho rack.
func (h *InventoryHandler) PickUpInventory(c *gin.Context) {
	var payload PickUpInventoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := actorFromContext(c)
	picked, err := h.Engine.PickUpInventory(context.Background(), actor, payload.LoadID, payload.ItemIDs)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Inventory picked up successfully", "pickedCount": picked})
}
