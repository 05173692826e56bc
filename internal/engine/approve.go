// server/internal/engine/approve.go
package engine

import (
	"context"
	"fmt"
	"time"

	"pipeyard-storage-api-server/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ApprovalResult là kết quả trả cho collaborator sau khi duyệt thành công.
type ApprovalResult struct {
	RequestID         string                      `json:"requestID"`
	AssignedLocations []models.LocationAssignment `json:"assignedLocations"`
	LocationNames     []string                    `json:"locationNames"`
	RequiredQuantity  int                         `json:"requiredQuantity"`
	AvailableQuantity int                         `json:"availableQuantity"`
	Message           string                      `json:"message"`
}

// RejectionResult là kết quả trả về khi từ chối một yêu cầu.
type RejectionResult struct {
	RequestID string `json:"requestID"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
}

// ApproveRequest là Approval Transaction: validate + reserve capacity,
// chuyển request sang APPROVED, ghi audit, enqueue notification — tất cả
// trong MỘT transaction. Fail ở bất kỳ bước validate nào thì không có
// mutation nào được nhìn thấy.
//
// Model capacity: approval RESERVE chiều joint ngay tại đây (occupiedJoints
// tăng theo share của từng rack); completion sau này không đụng chiều joint
// nữa, chỉ cộng chiều mét khi biết số liệu manifest thực tế.
func (e *Engine) ApproveRequest(ctx context.Context, actor Actor, requestID string, locationIDs []string, requiredQuantity int, notes string) (*ApprovalResult, error) {
	if err := requirePrivilege(actor); err != nil {
		return nil, err
	}
	if requiredQuantity <= 0 {
		return nil, fmt.Errorf("%w: required quantity must be positive", ErrInsufficientCapacity)
	}
	if len(locationIDs) == 0 {
		return nil, fmt.Errorf("%w: no storage locations given", ErrInvalidLocation)
	}

	result, err := e.runTxn(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		requests := e.DB.Collection("storage_requests")
		locations := e.DB.Collection("storage_locations")

		// 1. Đọc lại request trong transaction, chặn double-approval.
		var request models.StorageRequest
		if err := requests.FindOne(sc, bson.M{"requestID": requestID}).Decode(&request); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, fmt.Errorf("%w: storage request %s", ErrNotFound, requestID)
			}
			return nil, err
		}
		if request.Status != models.RequestStatusPending {
			return nil, fmt.Errorf("%w: %s is %s", ErrNotPending, requestID, request.Status)
		}

		// 2. Lấy các rack theo đúng thứ tự caller đưa vào.
		named := make([]models.StorageLocation, 0, len(locationIDs))
		for _, locationID := range locationIDs {
			var location models.StorageLocation
			if err := locations.FindOne(sc, bson.M{"locationID": locationID}).Decode(&location); err != nil {
				if err == mongo.ErrNoDocuments {
					return nil, fmt.Errorf("%w: %s does not exist", ErrInvalidLocation, locationID)
				}
				return nil, err
			}
			named = append(named, location)
		}

		// 3+4. Kiểm tra tổng headroom rồi chia lượng reserve lên từng rack.
		assignments, available, err := PlanAssignment(named, requiredQuantity)
		if err != nil {
			return nil, err
		}
		for _, assignment := range assignments {
			if _, err := locations.UpdateOne(sc,
				bson.M{"locationID": assignment.LocationID},
				bson.M{
					"$inc": bson.M{"occupiedJoints": assignment.Quantity},
					"$set": bson.M{"updatedAt": time.Now()},
				},
			); err != nil {
				return nil, err
			}
		}

		// 5. Transition là write cuối cùng, filter kèm status để chắc chắn
		// không có ai vừa commit xen vào.
		updateResult, err := requests.UpdateOne(sc,
			bson.M{"requestID": requestID, "status": models.RequestStatusPending},
			bson.M{"$set": bson.M{
				"status":            models.RequestStatusApproved,
				"assignedLocations": assignments,
				"adminNotes":        notes,
				"updatedAt":         time.Now(),
			}},
		)
		if err != nil {
			return nil, err
		}
		if updateResult.ModifiedCount == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotPending, requestID)
		}

		locationNames := make([]string, 0, len(assignments))
		capacitySnapshot := []bson.M{}
		for _, assignment := range assignments {
			for i := range named {
				if named[i].LocationID == assignment.LocationID {
					locationNames = append(locationNames, named[i].Name)
					capacitySnapshot = append(capacitySnapshot, bson.M{
						"locationID":     named[i].LocationID,
						"reserved":       assignment.Quantity,
						"occupiedJoints": named[i].OccupiedJoints + assignment.Quantity,
						"capacityJoints": named[i].CapacityJoints,
					})
				}
			}
		}

		// 6. Audit trong cùng transaction.
		if err := e.writeAudit(sc, actor, models.ActionApproveRequest, "storage_request", requestID, bson.M{
			"locationIDs":      locationIDs,
			"requiredQuantity": requiredQuantity,
			"notes":            notes,
			"capacity":         capacitySnapshot,
		}); err != nil {
			return nil, err
		}

		// 7. Notification queue trong cùng transaction; gửi thật thì để worker.
		if err := e.Enqueue(sc, models.NotifyRequestApproved, requestID, models.RequestStatusApproved, bson.M{
			"requestID":     requestID,
			"recipient":     request.Contact.Email,
			"companyID":     request.CompanyID,
			"locationNames": locationNames,
			"quantity":      requiredQuantity,
			"beforeStatus":  models.RequestStatusPending,
			"afterStatus":   models.RequestStatusApproved,
		}); err != nil {
			return nil, err
		}

		return &ApprovalResult{
			RequestID:         requestID,
			AssignedLocations: assignments,
			LocationNames:     locationNames,
			RequiredQuantity:  requiredQuantity,
			AvailableQuantity: available,
			Message:           fmt.Sprintf("Request %s approved: %d joints reserved across %d location(s)", requestID, requiredQuantity, len(assignments)),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	e.Logger.WithFields(logrus.Fields{
		"requestID": requestID,
		"actor":     actor.EnrollmentID,
		"quantity":  requiredQuantity,
	}).Info("storage request approved")

	return result.(*ApprovalResult), nil
}

// RejectRequest đối xứng với ApproveRequest nhưng không đụng capacity:
// cùng guard, cùng audit, cùng notification pattern.
func (e *Engine) RejectRequest(ctx context.Context, actor Actor, requestID string, reason string) (*RejectionResult, error) {
	if err := requirePrivilege(actor); err != nil {
		return nil, err
	}

	result, err := e.runTxn(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		requests := e.DB.Collection("storage_requests")

		var request models.StorageRequest
		if err := requests.FindOne(sc, bson.M{"requestID": requestID}).Decode(&request); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, fmt.Errorf("%w: storage request %s", ErrNotFound, requestID)
			}
			return nil, err
		}
		if request.Status != models.RequestStatusPending {
			return nil, fmt.Errorf("%w: %s is %s", ErrNotPending, requestID, request.Status)
		}

		updateResult, err := requests.UpdateOne(sc,
			bson.M{"requestID": requestID, "status": models.RequestStatusPending},
			bson.M{"$set": bson.M{
				"status":          models.RequestStatusRejected,
				"rejectionReason": reason,
				"updatedAt":       time.Now(),
			}},
		)
		if err != nil {
			return nil, err
		}
		if updateResult.ModifiedCount == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotPending, requestID)
		}

		if err := e.writeAudit(sc, actor, models.ActionRejectRequest, "storage_request", requestID, bson.M{
			"reason": reason,
		}); err != nil {
			return nil, err
		}

		if err := e.Enqueue(sc, models.NotifyRequestRejected, requestID, models.RequestStatusRejected, bson.M{
			"requestID":    requestID,
			"recipient":    request.Contact.Email,
			"companyID":    request.CompanyID,
			"reason":       reason,
			"beforeStatus": models.RequestStatusPending,
			"afterStatus":  models.RequestStatusRejected,
		}); err != nil {
			return nil, err
		}

		return &RejectionResult{
			RequestID: requestID,
			Reason:    reason,
			Message:   fmt.Sprintf("Request %s rejected", requestID),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	e.Logger.WithFields(logrus.Fields{
		"requestID": requestID,
		"actor":     actor.EnrollmentID,
	}).Info("storage request rejected")

	return result.(*RejectionResult), nil
}
