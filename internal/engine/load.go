// server/internal/engine/load.go
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pipeyard-storage-api-server/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookLoad tạo một load mới cho request với sequential booking guard:
// chỉ được book khi mọi load cùng (request, direction) đã terminal.
//
// Seq lấy bằng $inc counter trên document request TRONG transaction. Hai
// booking đồng thời trên cùng request sẽ write-conflict tại chính $inc đó,
// transaction thua bị retry và lần chạy lại thấy load active của bên thắng
// — vì vậy guard và insert không thể cùng lọt qua ở hai phía.
func (e *Engine) BookLoad(ctx context.Context, actor Actor, requestID, direction string, schedule models.ScheduleWindow, carrier models.Carrier, plannedQuantity int) (*models.Load, error) {
	if direction != models.DirectionInbound && direction != models.DirectionOutbound {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	result, err := e.runTxn(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		requests := e.DB.Collection("storage_requests")
		loads := e.DB.Collection("loads")

		seqField := "inboundSeq"
		if direction == models.DirectionOutbound {
			seqField = "outboundSeq"
		}

		// Conflict anchor + cấp seq không có khoảng trống.
		var request models.StorageRequest
		err := requests.FindOneAndUpdate(sc,
			bson.M{"requestID": requestID},
			bson.M{"$inc": bson.M{seqField: 1}, "$set": bson.M{"updatedAt": time.Now()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&request)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, fmt.Errorf("%w: storage request %s", ErrNotFound, requestID)
			}
			return nil, err
		}

		// Khách hàng chỉ được book cho request của công ty mình.
		if !actor.IsPrivileged() && request.CompanyID != actor.CompanyID {
			return nil, ErrAccessDenied
		}
		if request.Status != models.RequestStatusApproved {
			return nil, fmt.Errorf("%w: %s is %s, loads can only be booked on an approved request", ErrNotPending, requestID, request.Status)
		}

		// Sequential booking guard, cùng isolation với insert phía dưới.
		active, err := loads.CountDocuments(sc, bson.M{
			"requestID": requestID,
			"direction": direction,
			"status":    bson.M{"$nin": []string{models.LoadStatusCompleted, models.LoadStatusRejected}},
		})
		if err != nil {
			return nil, err
		}
		if active > 0 {
			return nil, fmt.Errorf("%w: request %s", ErrActiveLoadExists, requestID)
		}

		seq := request.InboundSeq
		if direction == models.DirectionOutbound {
			seq = request.OutboundSeq
		}

		newLoad := models.Load{
			LoadID:          fmt.Sprintf("LD-%s", strings.ToUpper(uuid.New().String()[:8])),
			RequestID:       requestID,
			CompanyID:       request.CompanyID,
			Direction:       direction,
			Seq:             seq,
			Status:          models.LoadStatusNew,
			Schedule:        schedule,
			Carrier:         carrier,
			PlannedQuantity: plannedQuantity,
			CreatedBy:       actor.EnrollmentID,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}
		insertResult, err := loads.InsertOne(sc, newLoad)
		if err != nil {
			return nil, err
		}
		newLoad.ID = insertResult.InsertedID.(primitive.ObjectID)

		if err := e.writeAudit(sc, actor, models.ActionBookLoad, "load", newLoad.LoadID, bson.M{
			"requestID":       requestID,
			"direction":       direction,
			"seq":             seq,
			"plannedQuantity": plannedQuantity,
		}); err != nil {
			return nil, err
		}

		return &newLoad, nil
	})
	if err != nil {
		return nil, err
	}

	load := result.(*models.Load)
	e.Logger.WithFields(logrus.Fields{
		"loadID":    load.LoadID,
		"requestID": requestID,
		"direction": direction,
		"seq":       load.Seq,
	}).Info("load booked")

	return load, nil
}

// MarkLoadApproved chuyển load NEW -> APPROVED.
func (e *Engine) MarkLoadApproved(ctx context.Context, actor Actor, loadID string) error {
	return e.transitionLoad(ctx, actor, loadID, models.LoadStatusNew, models.LoadStatusApproved,
		models.ActionApproveLoad, models.NotifyLoadApproved, nil)
}

// MarkLoadInTransit chuyển load APPROVED -> IN_TRANSIT.
func (e *Engine) MarkLoadInTransit(ctx context.Context, actor Actor, loadID string) error {
	return e.transitionLoad(ctx, actor, loadID, models.LoadStatusApproved, models.LoadStatusInTransit,
		models.ActionLoadInTransit, models.NotifyLoadInTransit, nil)
}

// RejectLoad chuyển load NEW -> REJECTED kèm lý do.
func (e *Engine) RejectLoad(ctx context.Context, actor Actor, loadID, reason string) error {
	return e.transitionLoad(ctx, actor, loadID, models.LoadStatusNew, models.LoadStatusRejected,
		models.ActionRejectLoad, models.NotifyLoadRejected, bson.M{"rejectionReason": reason})
}

// transitionLoad là transition thuần không đụng capacity: origin-state check
// trong transaction, audit entry và queue entry như mọi mutation khác.
func (e *Engine) transitionLoad(ctx context.Context, actor Actor, loadID, from, to, action, notifyType string, extraSet bson.M) error {
	if err := requirePrivilege(actor); err != nil {
		return err
	}
	if !CanTransitionLoad(from, to) {
		return fmt.Errorf("%w: no transition %s -> %s", ErrWrongState, from, to)
	}

	_, err := e.runTxn(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		loads := e.DB.Collection("loads")

		var load models.Load
		if err := loads.FindOne(sc, bson.M{"loadID": loadID}).Decode(&load); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, fmt.Errorf("%w: load %s", ErrNotFound, loadID)
			}
			return nil, err
		}
		if load.Status != from {
			return nil, wrongStateError(loadID, load.Status, from)
		}

		set := bson.M{"status": to, "updatedAt": time.Now()}
		for k, v := range extraSet {
			set[k] = v
		}
		updateResult, err := loads.UpdateOne(sc,
			bson.M{"loadID": loadID, "status": from},
			bson.M{"$set": set},
		)
		if err != nil {
			return nil, err
		}
		if updateResult.ModifiedCount == 0 {
			return nil, wrongStateError(loadID, load.Status, from)
		}

		if err := e.writeAudit(sc, actor, action, "load", loadID, bson.M{
			"beforeStatus": from,
			"afterStatus":  to,
		}); err != nil {
			return nil, err
		}

		if err := e.Enqueue(sc, notifyType, loadID, to, bson.M{
			"loadID":       loadID,
			"requestID":    load.RequestID,
			"companyID":    load.CompanyID,
			"beforeStatus": from,
			"afterStatus":  to,
		}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	e.Logger.WithFields(logrus.Fields{
		"loadID": loadID,
		"from":   from,
		"to":     to,
		"actor":  actor.EnrollmentID,
	}).Info("load transitioned")

	return nil
}
