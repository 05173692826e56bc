// server/internal/models/audit.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLogEntry ghi lại mọi mutation đặc quyền: ai, làm gì, trước/sau.
// Collection audit_log là append-only, không bao giờ update hay delete.
type AuditLogEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActorID    string             `bson:"actorID" json:"actorID"` // enrollmentID của người thực hiện
	ActorRole  string             `bson:"actorRole" json:"actorRole"`
	Action     string             `bson:"action" json:"action"` // e.g., "APPROVE_REQUEST"
	EntityType string             `bson:"entityType" json:"entityType"`
	EntityID   string             `bson:"entityID" json:"entityID"`
	Details    bson.M             `bson:"details" json:"details"` // snapshot input + số liệu kết quả
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// Các action tag cho audit log.
const (
	ActionApproveRequest  = "APPROVE_REQUEST"
	ActionRejectRequest   = "REJECT_REQUEST"
	ActionBookLoad        = "BOOK_LOAD"
	ActionApproveLoad     = "APPROVE_LOAD"
	ActionRejectLoad      = "REJECT_LOAD"
	ActionLoadInTransit   = "LOAD_IN_TRANSIT"
	ActionCompleteLoad    = "COMPLETE_LOAD"
	ActionPickUpInventory = "PICKUP_INVENTORY"
)
