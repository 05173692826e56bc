// server/internal/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationQueueEntry là một message chờ gửi trong notification queue.
//
// Dedup key = (type, entityID, targetStatus). Một partial unique index trên
// bộ ba này với điều kiện processed == false đảm bảo tại mọi thời điểm chỉ có
// tối đa MỘT entry chưa xử lý cho mỗi key — retry của transaction bao ngoài
// sẽ bị nuốt thành no-op thay vì tạo message trùng.
type NotificationQueueEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type         string             `bson:"type" json:"type"`                 // request_approved, load_completed, ...
	EntityID     string             `bson:"entityID" json:"entityID"`         // requestID hoặc loadID
	TargetStatus string             `bson:"targetStatus" json:"targetStatus"` // trạng thái sau transition
	Payload      bson.M             `bson:"payload" json:"payload"`           // self-describing: ids, codes, before/after, recipient
	Processed    bool               `bson:"processed" json:"processed"`
	ProcessedAt  *time.Time         `bson:"processedAt,omitempty" json:"processedAt"`
	Attempts     int                `bson:"attempts" json:"attempts"`
	LastAttempt  *time.Time         `bson:"lastAttemptAt,omitempty" json:"lastAttemptAt"`
	LastError    string             `bson:"lastError,omitempty" json:"lastError"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
