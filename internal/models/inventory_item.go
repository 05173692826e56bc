// server/internal/models/inventory_item.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InventoryItem là MỘT joint vật lý đang nằm trong kho.
// Một dòng manifest với quantity = N sẽ được "nở" thành N document khi complete load.
// Document không bao giờ bị xoá, chỉ chuyển trạng thái sang PICKED_UP khi xuất kho.
type InventoryItem struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID     string             `bson:"companyID" json:"companyID"`
	RequestID     string             `bson:"requestID" json:"requestID"`
	LoadID        string             `bson:"loadID" json:"loadID"`
	LocationID    string             `bson:"locationID" json:"locationID"`
	JointNo       int                `bson:"jointNo" json:"jointNo"` // thứ tự joint trong load, bắt đầu từ 1
	Grade         string             `bson:"grade" json:"grade"`
	OuterDiameter string             `bson:"outerDiameter" json:"outerDiameter"`
	LengthM       float64            `bson:"lengthM" json:"lengthM"`
	HeatNumber    string             `bson:"heatNumber,omitempty" json:"heatNumber"`
	Damaged       bool               `bson:"damaged" json:"damaged"`
	DamageNotes   string             `bson:"damageNotes,omitempty" json:"damageNotes"`
	Status        string             `bson:"status" json:"status"` // IN_STORAGE, PICKED_UP
	StoredAt      time.Time          `bson:"storedAt" json:"storedAt"`
	PickedUpAt    *time.Time         `bson:"pickedUpAt,omitempty" json:"pickedUpAt"`
}
