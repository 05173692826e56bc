// server/internal/engine/worker.go
package engine

import (
	"context"
	"time"

	"pipeyard-storage-api-server/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Dispatcher đẩy một notification ra kênh bên ngoài (webhook, websocket).
// Việc gửi nằm NGOÀI các transaction của engine: kênh chậm hay hỏng không
// được phép giữ transaction capacity mở.
type Dispatcher interface {
	Dispatch(ctx context.Context, entry models.NotificationQueueEntry) error
}

// DrainStats là kết quả một lượt drain queue.
type DrainStats struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Worker drain notification queue theo chu kỳ. Đây là bên DUY NHẤT set
// processed = true; các transaction chỉ insert. Entry không bao giờ bị xoá.
type Worker struct {
	Engine      *Engine
	Dispatcher  Dispatcher
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	StuckAge    time.Duration
}

func NewWorker(engine *Engine, dispatcher Dispatcher) *Worker {
	return &Worker{
		Engine:      engine,
		Dispatcher:  dispatcher,
		Interval:    15 * time.Second,
		BatchSize:   50,
		MaxAttempts: 10,
		StuckAge:    24 * time.Hour,
	}
}

// Run chạy vòng lặp drain cho đến khi context bị huỷ.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.Interval):
		}
		if _, err := w.Drain(ctx); err != nil {
			w.Engine.Logger.WithError(err).Error("notification queue drain failed")
		}
	}
}

// Drain xử lý một batch entry chưa processed theo thứ tự tạo. Idempotent:
// gọi lặp lại không gây hại — entry đã processed không bao giờ được chọn lại,
// entry fail chỉ tăng attempts và chờ lượt sau.
//
// Entry vượt ngưỡng attempts hoặc quá già được bỏ qua và log là "stuck" —
// tín hiệu vận hành, không tự động leo thang.
func (w *Worker) Drain(ctx context.Context) (DrainStats, error) {
	queue := w.Engine.DB.Collection("notification_queue")
	stats := DrainStats{}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(int64(w.BatchSize))
	cursor, err := queue.Find(ctx, bson.M{"processed": false}, findOpts)
	if err != nil {
		return stats, err
	}
	defer cursor.Close(ctx)

	var entries []models.NotificationQueueEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return stats, err
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.Attempts >= w.MaxAttempts || now.Sub(entry.CreatedAt) > w.StuckAge {
			stats.Skipped++
			w.Engine.Logger.WithFields(logrus.Fields{
				"entryID":  entry.ID.Hex(),
				"type":     entry.Type,
				"entityID": entry.EntityID,
				"attempts": entry.Attempts,
				"age":      now.Sub(entry.CreatedAt).String(),
			}).Warn("notification entry stuck")
			continue
		}

		if err := w.Dispatcher.Dispatch(ctx, entry); err != nil {
			stats.Failed++
			if _, updateErr := queue.UpdateOne(ctx,
				bson.M{"_id": entry.ID},
				bson.M{
					"$inc": bson.M{"attempts": 1},
					"$set": bson.M{"lastAttemptAt": now, "lastError": err.Error()},
				},
			); updateErr != nil {
				return stats, updateErr
			}
			w.Engine.Logger.WithFields(logrus.Fields{
				"entryID": entry.ID.Hex(),
				"type":    entry.Type,
			}).WithError(err).Error("notification dispatch failed")
			continue
		}

		if _, err := queue.UpdateOne(ctx,
			bson.M{"_id": entry.ID},
			bson.M{"$set": bson.M{"processed": true, "processedAt": now, "lastAttemptAt": now}},
		); err != nil {
			return stats, err
		}
		stats.Sent++
	}

	return stats, nil
}

// StuckEntries liệt kê các entry kẹt lại trong queue cho admin dashboard.
func (w *Worker) StuckEntries(ctx context.Context) ([]models.NotificationQueueEntry, error) {
	queue := w.Engine.DB.Collection("notification_queue")
	cutoff := time.Now().Add(-w.StuckAge)

	cursor, err := queue.Find(ctx, bson.M{
		"processed": false,
		"$or": []bson.M{
			{"attempts": bson.M{"$gte": w.MaxAttempts}},
			{"createdAt": bson.M{"$lt": cutoff}},
		},
	}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.NotificationQueueEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.NotificationQueueEntry{}
	}
	return entries, nil
}
