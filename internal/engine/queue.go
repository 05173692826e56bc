// server/internal/engine/queue.go
package engine

import (
	"context"
	"time"

	"pipeyard-storage-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Enqueue chèn một entry vào notification queue.
//
// Dedup dựa hoàn toàn vào partial unique index (type, entityID, targetStatus)
// WHERE processed == false — không dùng read-then-write vì kiểu đó race.
// Khi đã có entry chưa xử lý cùng key, insert vỡ unique index và được nuốt
// thành no-op.
//
// Lưu ý khi ctx là session context của một transaction: một write lỗi làm
// server abort cả transaction, nuốt lỗi ở đây không cứu được commit. Các
// caller transactional không bao giờ chạm tới case này vì origin-state check
// của họ đã fail trước khi enqueue lần hai; nhánh no-op chỉ phục vụ các lời
// gọi ngoài transaction.
func (e *Engine) Enqueue(ctx context.Context, queueType, entityID, targetStatus string, payload bson.M) error {
	entry := models.NotificationQueueEntry{
		Type:         queueType,
		EntityID:     entityID,
		TargetStatus: targetStatus,
		Payload:      payload,
		Processed:    false,
		Attempts:     0,
		CreatedAt:    time.Now(),
	}
	_, err := e.DB.Collection("notification_queue").InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}
