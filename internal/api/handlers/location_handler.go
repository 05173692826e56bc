// server/internal/api/handlers/location_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"pipeyard-storage-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type LocationHandler struct {
	DB *mongo.Database
}

type CreateLocationRequest struct {
	LocationID     string  `json:"locationID" binding:"required"`
	Name           string  `json:"name" binding:"required"`
	CapacityJoints int     `json:"capacityJoints" binding:"required,min=1"`
	CapacityMeters float64 `json:"capacityMeters" binding:"required"`
}

type UpdateLocationRequest struct {
	Name           string  `json:"name" binding:"required"`
	CapacityJoints int     `json:"capacityJoints" binding:"required,min=1"`
	CapacityMeters float64 `json:"capacityMeters" binding:"required"`
	Status         string  `json:"status" binding:"required"`
}

// CreateLocation tạo một rack mới
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection := h.DB.Collection("storage_locations")

	// Kiểm tra xem locationID đã tồn tại chưa
	count, err := collection.CountDocuments(context.Background(), bson.M{"locationID": req.LocationID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking for location"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Location with this ID already exists"})
		return
	}

	newLocation := models.StorageLocation{
		LocationID:     req.LocationID,
		Name:           req.Name,
		CapacityJoints: req.CapacityJoints,
		CapacityMeters: req.CapacityMeters,
		Status:         "ACTIVE",
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	result, err := collection.InsertOne(context.Background(), newLocation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create location"})
		return
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		newLocation.ID = oid
	}

	c.JSON(http.StatusCreated, newLocation)
}

// GetAllLocations lấy danh sách tất cả các rack kèm occupancy hiện tại
func (h *LocationHandler) GetAllLocations(c *gin.Context) {
	collection := h.DB.Collection("storage_locations")

	cursor, err := collection.Find(context.Background(), bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query locations"})
		return
	}
	defer cursor.Close(context.Background())

	var locations []models.StorageLocation
	if err = cursor.All(context.Background(), &locations); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode locations"})
		return
	}

	if locations == nil {
		locations = []models.StorageLocation{}
	}

	c.JSON(http.StatusOK, locations)
}

// GetLocationByID lấy thông tin rack theo locationID
func (h *LocationHandler) GetLocationByID(c *gin.Context) {
	locationID := c.Param("id")

	collection := h.DB.Collection("storage_locations")
	var location models.StorageLocation
	err := collection.FindOne(context.Background(), bson.M{"locationID": locationID}).Decode(&location)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve location"})
		}
		return
	}

	c.JSON(http.StatusOK, location)
}

// UpdateLocation cập nhật thông tin rack theo locationID.
// Lưu ý: occupancy counters KHÔNG sửa được qua đây — chúng chỉ thuộc về
// Approval/Completion transaction của engine.
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	locationID := c.Param("id")

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection := h.DB.Collection("storage_locations")

	_, err := collection.UpdateOne(context.Background(), bson.M{"locationID": locationID}, bson.M{"$set": bson.M{
		"name":           req.Name,
		"capacityJoints": req.CapacityJoints,
		"capacityMeters": req.CapacityMeters,
		"status":         req.Status,
		"updatedAt":      time.Now(),
	}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update location"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Location updated successfully"})
}

// GetLocationInventory liệt kê các joint đang nằm trên một rack.
func (h *LocationHandler) GetLocationInventory(c *gin.Context) {
	locationID := c.Param("id")
	filter := bson.M{"locationID": locationID, "status": models.InventoryStatusInStorage}

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
