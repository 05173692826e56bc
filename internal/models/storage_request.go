// server/internal/models/storage_request.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocationAssignment ghi lại số joint được gán cho một rack khi duyệt yêu cầu.
type LocationAssignment struct {
	LocationID string `bson:"locationID" json:"locationID"`
	Quantity   int    `bson:"quantity" json:"quantity"` // số joint reserve tại rack này
}

type StorageRequest struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	RequestID         string               `bson:"requestID" json:"requestID"` // e.g., "SR-A1B2C3D4"
	CompanyID         string               `bson:"companyID" json:"companyID"`
	Contact           Contact              `bson:"contact" json:"contact"`
	RequiredQuantity  int                  `bson:"requiredQuantity" json:"requiredQuantity"` // joints
	Status            string               `bson:"status" json:"status"`                     // PENDING, APPROVED, REJECTED
	AdminNotes        string               `bson:"adminNotes,omitempty" json:"adminNotes"`
	RejectionReason   string               `bson:"rejectionReason,omitempty" json:"rejectionReason"`
	AssignedLocations []LocationAssignment `bson:"assignedLocations,omitempty" json:"assignedLocations"`
	DeliveredQuantity int                  `bson:"deliveredQuantity" json:"deliveredQuantity"` // tổng joint của các load COMPLETED
	// Bộ đếm seq cho booking. Việc $inc counter này trong transaction cũng là
	// "mỏ neo" gây write conflict khi hai booking chạy đồng thời trên cùng request.
	InboundSeq  int       `bson:"inboundSeq" json:"-"`
	OutboundSeq int       `bson:"outboundSeq" json:"-"`
	CreatedBy   string    `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
