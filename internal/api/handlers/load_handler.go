// server/internal/api/handlers/load_handler.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pipeyard-storage-api-server/internal/engine"
	"pipeyard-storage-api-server/internal/models"
	"pipeyard-storage-api-server/internal/s3"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type LoadHandler struct {
	DB         *mongo.Database
	Engine     *engine.Engine
	S3Uploader *s3.Uploader
}

// --- Structs cho Request Body ---

type SchedulePayload struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

type CarrierPayload struct {
	Company     string `json:"company" binding:"required"`
	DriverName  string `json:"driverName" binding:"required"`
	DriverPhone string `json:"driverPhone"`
	TruckPlate  string `json:"truckPlate" binding:"required"`
}

type BookLoadPayload struct {
	Direction       string          `json:"direction" binding:"required,oneof=INBOUND OUTBOUND"`
	Schedule        SchedulePayload `json:"schedule" binding:"required"`
	Carrier         CarrierPayload  `json:"carrier" binding:"required"`
	PlannedQuantity int             `json:"plannedQuantity" binding:"required,min=1"`
}

type ManifestItemPayload struct {
	Quantity       int     `json:"quantity" binding:"required,min=1"`
	LengthValue    float64 `json:"lengthValue" binding:"required"`
	LengthUnit     string  `json:"lengthUnit" binding:"required,oneof=M FT"`
	Grade          string  `json:"grade" binding:"required"`
	OuterDiameter  string  `json:"outerDiameter" binding:"required"`
	WeightPerMeter float64 `json:"weightPerMeterKG"`
	HeatNumber     string  `json:"heatNumber"`
	Damaged        bool    `json:"damaged"`
	DamageNotes    string  `json:"damageNotes"`
}

type CompleteLoadPayload struct {
	LocationID       string                `json:"locationID" binding:"required"`
	ReportedQuantity int                   `json:"reportedQuantity" binding:"required,min=1"`
	Manifest         []ManifestItemPayload `json:"manifest" binding:"required"`
	DamageNotes      string                `json:"damageNotes"`
}

type RejectLoadPayload struct {
	Reason string `json:"reason" binding:"required"`
}

// --- Handlers ---

// BookLoad tạo một load mới cho request. Sequential booking guard nằm trong
// engine: request chỉ được có một load chưa kết thúc cho mỗi hướng.
func (h *LoadHandler) BookLoad(c *gin.Context) {
	requestID := c.Param("id")

	var payload BookLoadPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	load, err := h.Engine.BookLoad(c.Request.Context(), actorFromContext(c), requestID,
		payload.Direction,
		models.ScheduleWindow{Start: payload.Schedule.Start, End: payload.Schedule.End},
		models.Carrier{
			Company:     payload.Carrier.Company,
			DriverName:  payload.Carrier.DriverName,
			DriverPhone: payload.Carrier.DriverPhone,
			TruckPlate:  payload.Carrier.TruckPlate,
		},
		payload.PlannedQuantity)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, load)
}

// GetLoadsByRequest lấy các load của một request, sắp theo seq.
func (h *LoadHandler) GetLoadsByRequest(c *gin.Context) {
	requestID := c.Param("id")
	filter := bson.M{"requestID": requestID}

	role := c.GetString("user_role")
	if role == "customer" {
		filter["companyID"] = c.GetString("user_company_id")
	}

	collection := h.DB.Collection("loads")
	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query loads"})
		return
	}
	defer cursor.Close(context.Background())

	var loads []models.Load
	if err = cursor.All(context.Background(), &loads); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode loads"})
		return
	}
	if loads == nil {
		loads = []models.Load{}
	}
	c.JSON(http.StatusOK, loads)
}

// GetAllLoads lấy danh sách load cho dashboard nhân viên, lọc được theo status.
func (h *LoadHandler) GetAllLoads(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if direction := c.Query("direction"); direction != "" {
		filter["direction"] = direction
	}

	collection := h.DB.Collection("loads")
	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query loads"})
		return
	}
	defer cursor.Close(context.Background())

	var loads []models.Load
	if err = cursor.All(context.Background(), &loads); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode loads"})
		return
	}
	if loads == nil {
		loads = []models.Load{}
	}
	c.JSON(http.StatusOK, loads)
}

// ApproveLoad chuyển load NEW -> APPROVED.
func (h *LoadHandler) ApproveLoad(c *gin.Context) {
	loadID := c.Param("id")
	if err := h.Engine.MarkLoadApproved(c.Request.Context(), actorFromContext(c), loadID); err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Load " + loadID + " approved"})
}

// StartLoadTransit chuyển load APPROVED -> IN_TRANSIT.
func (h *LoadHandler) StartLoadTransit(c *gin.Context) {
	loadID := c.Param("id")
	if err := h.Engine.MarkLoadInTransit(c.Request.Context(), actorFromContext(c), loadID); err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Load " + loadID + " is in transit"})
}

// RejectLoad chuyển load NEW -> REJECTED kèm lý do.
func (h *LoadHandler) RejectLoad(c *gin.Context) {
	loadID := c.Param("id")

	var payload RejectLoadPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Engine.RejectLoad(c.Request.Context(), actorFromContext(c), loadID, payload.Reason); err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Load " + loadID + " rejected"})
}

// CompleteLoad gọi Completion Transaction của engine: đối chiếu manifest,
// materialize inventory, cộng capacity, chuyển trạng thái — tất cả hoặc không gì cả.
func (h *LoadHandler) CompleteLoad(c *gin.Context) {
	loadID := c.Param("id")

	var payload CompleteLoadPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	manifest := make([]models.ManifestItem, 0, len(payload.Manifest))
	for _, item := range payload.Manifest {
		manifest = append(manifest, models.ManifestItem{
			Quantity:       item.Quantity,
			LengthValue:    item.LengthValue,
			LengthUnit:     item.LengthUnit,
			Grade:          item.Grade,
			OuterDiameter:  item.OuterDiameter,
			WeightPerMeter: item.WeightPerMeter,
			HeatNumber:     item.HeatNumber,
			Damaged:        item.Damaged,
			DamageNotes:    item.DamageNotes,
		})
	}

	result, err := h.Engine.CompleteLoad(c.Request.Context(), actorFromContext(c),
		loadID, payload.LocationID, payload.ReportedQuantity, manifest, payload.DamageNotes)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UploadManifestDocument upload file scan manifest (PDF/ảnh) lên S3 và gắn
// URL vào load. Không đụng gì tới transaction completion.
func (h *LoadHandler) UploadManifestDocument(c *gin.Context) {
	loadID := c.Param("id")

	collection := h.DB.Collection("loads")
	var load models.Load
	if err := collection.FindOne(context.Background(), bson.M{"loadID": loadID}).Decode(&load); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Load not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve load"})
		return
	}

	role := c.GetString("user_role")
	if role == "customer" && load.CompanyID != c.GetString("user_company_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this load"})
		return
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'document' file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectKey := fmt.Sprintf("manifests/%s/%s-%s", loadID, uuid.New().String()[:8], fileHeader.Filename)

	url, err := h.S3Uploader.UploadFile(c.Request.Context(), file, objectKey, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload manifest document", "details": err.Error()})
		return
	}

	pointer := models.MediaPointer{
		ID:       uuid.New().String(),
		URL:      url,
		FileName: fileHeader.Filename,
		FileType: contentType,
	}
	_, err = collection.UpdateOne(context.Background(),
		bson.M{"loadID": loadID},
		bson.M{"$set": bson.M{"manifestDoc": pointer, "updatedAt": time.Now()}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attach manifest document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "url": url})
}
