// server/internal/api/handlers/request_handler.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pipeyard-storage-api-server/internal/engine"
	"pipeyard-storage-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type RequestHandler struct {
	DB     *mongo.Database
	Engine *engine.Engine
}

type ContactPayload struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

type CreateStorageRequestPayload struct {
	Contact          ContactPayload `json:"contact" binding:"required"`
	RequiredQuantity int            `json:"requiredQuantity" binding:"required,min=1"`
}

type ApproveRequestPayload struct {
	LocationIDs      []string `json:"locationIDs" binding:"required"`
	RequiredQuantity int      `json:"requiredQuantity" binding:"required,min=1"`
	Notes            string   `json:"notes"`
}

type RejectRequestPayload struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateStorageRequest xử lý việc khách hàng tạo yêu cầu lưu kho mới.
func (h *RequestHandler) CreateStorageRequest(c *gin.Context) {
	creatorEnrollmentID := c.GetString("user_enrollment_id")
	creatorCompanyID := c.GetString("user_company_id")

	var payload CreateStorageRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newRequest := models.StorageRequest{
		RequestID: fmt.Sprintf("SR-%s", strings.ToUpper(uuid.New().String()[:8])),
		CompanyID: creatorCompanyID,
		Contact: models.Contact{
			Name:  payload.Contact.Name,
			Email: payload.Contact.Email,
			Phone: payload.Contact.Phone,
		},
		RequiredQuantity: payload.RequiredQuantity,
		Status:           models.RequestStatusPending,
		CreatedBy:        creatorEnrollmentID,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	collection := h.DB.Collection("storage_requests")
	result, err := collection.InsertOne(context.Background(), newRequest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create storage request"})
		return
	}

	newRequest.ID = result.InsertedID.(primitive.ObjectID)
	c.JSON(http.StatusCreated, newRequest)
}

// GetAllStorageRequests lấy danh sách các yêu cầu, có thể lọc theo trạng thái.
func (h *RequestHandler) GetAllStorageRequests(c *gin.Context) {
	// Ví dụ: /requests?status=PENDING
	filter := bson.M{}
	status := c.Query("status")
	if status != "" {
		filter["status"] = status
	}

	collection := h.DB.Collection("storage_requests")
	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query storage requests"})
		return
	}
	defer cursor.Close(context.Background())

	var requests []models.StorageRequest
	if err = cursor.All(context.Background(), &requests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode storage requests"})
		return
	}

	// Đảm bảo trả về một mảng rỗng thay vì null nếu không có kết quả
	if requests == nil {
		requests = []models.StorageRequest{}
	}
	c.JSON(http.StatusOK, requests)
}

// GetMyStorageRequests lấy danh sách yêu cầu của công ty hiện tại.
func (h *RequestHandler) GetMyStorageRequests(c *gin.Context) {
	companyID := c.GetString("user_company_id")
	filter := bson.M{"companyID": companyID}

	collection := h.DB.Collection("storage_requests")
	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query storage requests"})
		return
	}
	defer cursor.Close(context.Background())

	var requests []models.StorageRequest
	if err = cursor.All(context.Background(), &requests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode storage requests"})
		return
	}
	if requests == nil {
		requests = []models.StorageRequest{}
	}
	c.JSON(http.StatusOK, requests)
}

// GetStorageRequestByID lấy chi tiết một yêu cầu theo requestID.
func (h *RequestHandler) GetStorageRequestByID(c *gin.Context) {
	requestID := c.Param("id")
	collection := h.DB.Collection("storage_requests")
	var request models.StorageRequest
	err := collection.FindOne(context.Background(), bson.M{"requestID": requestID}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Storage request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve storage request"})
		return
	}

	// Khách hàng chỉ xem được yêu cầu của công ty mình.
	role := c.GetString("user_role")
	if role == "customer" && request.CompanyID != c.GetString("user_company_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this request"})
		return
	}
	c.JSON(http.StatusOK, request)
}

// ApproveStorageRequest gọi Approval Transaction của engine.
// Toàn bộ validate + reserve capacity + audit + queue là một khối nguyên tử.
func (h *RequestHandler) ApproveStorageRequest(c *gin.Context) {
	requestID := c.Param("id")

	var payload ApproveRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Engine.ApproveRequest(c.Request.Context(), actorFromContext(c),
		requestID, payload.LocationIDs, payload.RequiredQuantity, payload.Notes)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RejectStorageRequest từ chối một yêu cầu kèm lý do.
func (h *RequestHandler) RejectStorageRequest(c *gin.Context) {
	requestID := c.Param("id")

	var payload RejectRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Engine.RejectRequest(c.Request.Context(), actorFromContext(c), requestID, payload.Reason)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
