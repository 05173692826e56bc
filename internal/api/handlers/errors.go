// server/internal/api/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"pipeyard-storage-api-server/internal/engine"

	"github.com/gin-gonic/gin"
)

// respondEngineError dịch lỗi typed của engine sang HTTP status + message
// hành động được. Engine không bao giờ trả lỗi mù mờ cho các case này nên
// nhánh cuối (500) chỉ dành cho lỗi hạ tầng thật.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrNotPending),
		errors.Is(err, engine.ErrWrongState),
		errors.Is(err, engine.ErrActiveLoadExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidLocation),
		errors.Is(err, engine.ErrInvalidManifest),
		errors.Is(err, engine.ErrInvalidDirection):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrInsufficientCapacity),
		errors.Is(err, engine.ErrQuantityMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// actorFromContext dựng engine.Actor từ claims mà middleware Authenticate đã đặt vào.
func actorFromContext(c *gin.Context) engine.Actor {
	return engine.Actor{
		EnrollmentID: c.GetString("user_enrollment_id"),
		Role:         c.GetString("user_role"),
		CompanyID:    c.GetString("user_company_id"),
	}
}
