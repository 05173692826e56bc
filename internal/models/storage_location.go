// server/internal/models/storage_location.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StorageLocation là một rack chứa ống với hai chiều capacity: số joint và tổng mét.
// Hai counter occupied chỉ được phép thay đổi bên trong Approval/Completion
// transaction của engine, không bao giờ qua update trực tiếp.
type StorageLocation struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LocationID     string             `bson:"locationID" json:"locationID"` // e.g., "rack-A1"
	Name           string             `bson:"name" json:"name"`
	CapacityJoints int                `bson:"capacityJoints" json:"capacityJoints"`
	CapacityMeters float64            `bson:"capacityMeters" json:"capacityMeters"`
	OccupiedJoints int                `bson:"occupiedJoints" json:"occupiedJoints"`
	OccupiedMeters float64            `bson:"occupiedMeters" json:"occupiedMeters"`
	Status         string             `bson:"status" json:"status"` // e.g., "ACTIVE", "UNDER_MAINTENANCE"
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AvailableJoints trả về headroom theo chiều số joint.
func (l *StorageLocation) AvailableJoints() int {
	return l.CapacityJoints - l.OccupiedJoints
}

// AvailableMeters trả về headroom theo chiều tổng mét.
func (l *StorageLocation) AvailableMeters() float64 {
	return l.CapacityMeters - l.OccupiedMeters
}
