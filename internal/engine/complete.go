// server/internal/engine/complete.go
package engine

import (
	"context"
	"fmt"
	"time"

	"pipeyard-storage-api-server/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CompletionResult là kết quả trả cho collaborator sau khi hoàn tất load.
type CompletionResult struct {
	LoadID            string  `json:"loadID"`
	RequestID         string  `json:"requestID"`
	LocationID        string  `json:"locationID"`
	CompletedQuantity int     `json:"completedQuantity"`
	CompletedLengthM  float64 `json:"completedLengthM"`
	CompletedWeightKG float64 `json:"completedWeightKG"`
	InventoryCount    int     `json:"inventoryCount"`
	Message           string  `json:"message"`
}

// CompleteLoad là Completion Transaction — thủ tục nhiều đích ghi nhất của
// engine (inventory, rack counter, load, request, audit, queue) nên tính
// nguyên tử ở đây là thuộc tính đúng đắn quan trọng nhất: fail ở bước
// validate nào cũng không để lại một document inventory hay một counter nào.
//
// Theo model capacity đã chọn, chiều joint đã được reserve lúc approve nên
// counter joint không đổi ở đây; completion chỉ kiểm tra tổng hàng về còn
// nằm trong reservation rồi cộng chiều mét (chỉ biết được từ manifest thực tế).
func (e *Engine) CompleteLoad(ctx context.Context, actor Actor, loadID, locationID string, reportedQuantity int, manifest []models.ManifestItem, damageNotes string) (*CompletionResult, error) {
	if err := requirePrivilege(actor); err != nil {
		return nil, err
	}
	// Shape của manifest được chặn trước khi vào transaction.
	if err := ValidateManifest(manifest); err != nil {
		return nil, err
	}

	result, err := e.runTxn(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		loads := e.DB.Collection("loads")
		requests := e.DB.Collection("storage_requests")
		locations := e.DB.Collection("storage_locations")
		inventory := e.DB.Collection("inventory_items")

		// 1. Đọc lại load, chặn double-completion.
		var load models.Load
		if err := loads.FindOne(sc, bson.M{"loadID": loadID}).Decode(&load); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, fmt.Errorf("%w: load %s", ErrNotFound, loadID)
			}
			return nil, err
		}
		if load.Status != models.LoadStatusInTransit {
			return nil, wrongStateError(loadID, load.Status, models.LoadStatusInTransit)
		}

		var request models.StorageRequest
		if err := requests.FindOne(sc, bson.M{"requestID": load.RequestID}).Decode(&request); err != nil {
			return nil, err
		}

		// Rack nhận hàng phải nằm trong các rack đã gán khi duyệt request —
		// reservation joint lúc approve mới cover được lượng hàng này.
		assigned := false
		for _, assignment := range request.AssignedLocations {
			if assignment.LocationID == locationID {
				assigned = true
				break
			}
		}
		if !assigned {
			return nil, fmt.Errorf("%w: %s is not assigned to request %s", ErrInvalidLocation, locationID, load.RequestID)
		}

		// 2+3. Cộng dồn manifest và đối chiếu cứng với số nhập tay.
		totals, err := ReconcileManifest(manifest, reportedQuantity)
		if err != nil {
			return nil, err
		}

		// Chiều joint: reservation lúc approve là trần cứng cho tổng hàng về.
		// Không có check này thì hai load 60 joint trên một reservation 60
		// đều complete được và deliveredQuantity vượt requiredQuantity.
		remaining := request.RequiredQuantity - request.DeliveredQuantity
		if totals.Quantity > remaining {
			return nil, insufficientCapacityError("reserved joints", float64(totals.Quantity), float64(remaining))
		}

		// 4. Re-check capacity chiều mét của rack nhận hàng.
		var location models.StorageLocation
		if err := locations.FindOne(sc, bson.M{"locationID": locationID}).Decode(&location); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, fmt.Errorf("%w: %s does not exist", ErrInvalidLocation, locationID)
			}
			return nil, err
		}
		if location.AvailableMeters() < totals.LengthM {
			return nil, insufficientCapacityError("meters", totals.LengthM, location.AvailableMeters())
		}

		// 5. Materialize inventory: mỗi joint một document.
		now := time.Now()
		items := make([]interface{}, 0, totals.Quantity)
		jointNo := 0
		for _, line := range manifest {
			for i := 0; i < line.Quantity; i++ {
				jointNo++
				items = append(items, models.InventoryItem{
					CompanyID:     load.CompanyID,
					RequestID:     load.RequestID,
					LoadID:        loadID,
					LocationID:    locationID,
					JointNo:       jointNo,
					Grade:         line.Grade,
					OuterDiameter: line.OuterDiameter,
					LengthM:       ItemLengthM(line),
					HeatNumber:    line.HeatNumber,
					Damaged:       line.Damaged,
					DamageNotes:   line.DamageNotes,
					Status:        models.InventoryStatusInStorage,
					StoredAt:      now,
				})
			}
		}
		if _, err := inventory.InsertMany(sc, items); err != nil {
			return nil, err
		}

		// 6. Cộng occupiedMeters của rack.
		if _, err := locations.UpdateOne(sc,
			bson.M{"locationID": locationID},
			bson.M{
				"$inc": bson.M{"occupiedMeters": totals.LengthM},
				"$set": bson.M{"updatedAt": now},
			},
		); err != nil {
			return nil, err
		}

		// 7. Transition load, filter kèm status.
		updateResult, err := loads.UpdateOne(sc,
			bson.M{"loadID": loadID, "status": models.LoadStatusInTransit},
			bson.M{"$set": bson.M{
				"status":     models.LoadStatusCompleted,
				"locationID": locationID,
				"manifest":   manifest,
				"completed": models.CompletedFigures{
					Quantity: totals.Quantity,
					LengthM:  totals.LengthM,
					WeightKG: totals.WeightKG,
				},
				"damageNotes": damageNotes,
				"completedBy": actor.EnrollmentID,
				"completedAt": now,
				"updatedAt":   now,
			}},
		)
		if err != nil {
			return nil, err
		}
		if updateResult.ModifiedCount == 0 {
			return nil, wrongStateError(loadID, load.Status, models.LoadStatusInTransit)
		}

		// 8. Tính lại tổng đã giao của request từ các load COMPLETED.
		delivered := request.DeliveredQuantity + totals.Quantity
		if _, err := requests.UpdateOne(sc,
			bson.M{"requestID": load.RequestID},
			bson.M{"$set": bson.M{"deliveredQuantity": delivered, "updatedAt": now}},
		); err != nil {
			return nil, err
		}

		// 9. Audit.
		if err := e.writeAudit(sc, actor, models.ActionCompleteLoad, "load", loadID, bson.M{
			"locationID":        locationID,
			"reportedQuantity":  reportedQuantity,
			"manifestQuantity":  totals.Quantity,
			"manifestLengthM":   totals.LengthM,
			"manifestWeightKG":  totals.WeightKG,
			"deliveredQuantity": delivered,
			"damageNotes":       damageNotes,
		}); err != nil {
			return nil, err
		}

		// 10. Notification queue.
		if err := e.Enqueue(sc, models.NotifyLoadCompleted, loadID, models.LoadStatusCompleted, bson.M{
			"loadID":       loadID,
			"requestID":    load.RequestID,
			"companyID":    load.CompanyID,
			"recipient":    request.Contact.Email,
			"locationID":   locationID,
			"quantity":     totals.Quantity,
			"lengthM":      totals.LengthM,
			"beforeStatus": models.LoadStatusInTransit,
			"afterStatus":  models.LoadStatusCompleted,
		}); err != nil {
			return nil, err
		}

		return &CompletionResult{
			LoadID:            loadID,
			RequestID:         load.RequestID,
			LocationID:        locationID,
			CompletedQuantity: totals.Quantity,
			CompletedLengthM:  totals.LengthM,
			CompletedWeightKG: totals.WeightKG,
			InventoryCount:    len(items),
			Message:           fmt.Sprintf("Load %s completed: %d joints (%.2f m) stored at %s", loadID, totals.Quantity, totals.LengthM, locationID),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	completion := result.(*CompletionResult)
	e.Logger.WithFields(logrus.Fields{
		"loadID":     loadID,
		"locationID": locationID,
		"quantity":   completion.CompletedQuantity,
		"actor":      actor.EnrollmentID,
	}).Info("load completed")

	return completion, nil
}

// PickUpInventory đánh dấu các joint PICKED_UP khi một load outbound kết thúc
// và trả lại capacity (joint + mét) cho rack. Origin-state check trên từng
// document; không bao giờ xoá inventory — giữ lại để audit.
func (e *Engine) PickUpInventory(ctx context.Context, actor Actor, loadID string, itemIDs []string) (int, error) {
	if err := requirePrivilege(actor); err != nil {
		return 0, err
	}
	if len(itemIDs) == 0 {
		return 0, fmt.Errorf("%w: no inventory items given", ErrNotFound)
	}

	result, err := e.runTxn(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		inventory := e.DB.Collection("inventory_items")
		locations := e.DB.Collection("storage_locations")

		now := time.Now()
		// Trả capacity theo từng rack liên quan.
		freedJoints := map[string]int{}
		freedMeters := map[string]float64{}

		picked := 0
		for _, itemID := range itemIDs {
			objectID, err := primitive.ObjectIDFromHex(itemID)
			if err != nil {
				return nil, fmt.Errorf("%w: inventory item %s", ErrNotFound, itemID)
			}

			var item models.InventoryItem
			if err := inventory.FindOne(sc, bson.M{"_id": objectID}).Decode(&item); err != nil {
				if err == mongo.ErrNoDocuments {
					return nil, fmt.Errorf("%w: inventory item %s", ErrNotFound, itemID)
				}
				return nil, err
			}
			if item.Status != models.InventoryStatusInStorage {
				return nil, fmt.Errorf("%w: inventory item %s is %s", ErrWrongState, itemID, item.Status)
			}

			updateResult, err := inventory.UpdateOne(sc,
				bson.M{"_id": objectID, "status": models.InventoryStatusInStorage},
				bson.M{"$set": bson.M{"status": models.InventoryStatusPickedUp, "pickedUpAt": now}},
			)
			if err != nil {
				return nil, err
			}
			if updateResult.ModifiedCount == 0 {
				return nil, fmt.Errorf("%w: inventory item %s", ErrWrongState, itemID)
			}
			freedJoints[item.LocationID]++
			freedMeters[item.LocationID] += item.LengthM
			picked++
		}

		for locationID, joints := range freedJoints {
			if _, err := locations.UpdateOne(sc,
				bson.M{"locationID": locationID},
				bson.M{
					"$inc": bson.M{"occupiedJoints": -joints, "occupiedMeters": -freedMeters[locationID]},
					"$set": bson.M{"updatedAt": now},
				},
			); err != nil {
				return nil, err
			}
		}

		if err := e.writeAudit(sc, actor, models.ActionPickUpInventory, "load", loadID, bson.M{
			"itemCount":   picked,
			"freedJoints": freedJoints,
		}); err != nil {
			return nil, err
		}

		return picked, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}
