// server/internal/database/indexes.go
package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes tạo các index/constraint mà engine dựa vào. Gọi một lần khi
// khởi động; CreateMany là idempotent với index đã tồn tại.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	// Dedup constraint của notification queue: tối đa MỘT entry chưa xử lý
	// cho mỗi (type, entityID, targetStatus). Partial index để key được phép
	// xuất hiện lại sau khi entry cũ đã processed.
	_, err := db.Collection("notification_queue").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "type", Value: 1},
			{Key: "entityID", Value: 1},
			{Key: "targetStatus", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"processed": false}),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("storage_requests").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "requestID", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("loads").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "loadID", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		// Seq duy nhất trong (request, direction) — backstop cho quy tắc
		// cấp seq tuần tự của BookLoad.
		{
			Keys: bson.D{
				{Key: "requestID", Value: 1},
				{Key: "direction", Value: 1},
				{Key: "seq", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("storage_locations").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "locationID", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("inventory_items").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "loadID", Value: 1}}},
		{Keys: bson.D{{Key: "companyID", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "locationID", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("audit_log").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "entityID", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
