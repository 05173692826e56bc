// server/internal/engine/engine.go
package engine

import (
	"context"
	"time"

	"pipeyard-storage-api-server/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Engine là lõi giao dịch của hệ thống: state machine cho request/load,
// hai thủ tục nguyên tử Approval/Completion, audit log và notification queue.
// Mọi collaborator bên ngoài (wizard, dashboard) chỉ được mutate qua các
// method ở đây, không bao giờ update field trực tiếp.
type Engine struct {
	Client *mongo.Client
	DB     *mongo.Database
	Logger *logrus.Logger
}

// Actor là danh tính đã xác thực của caller, lấy từ JWT claims.
type Actor struct {
	EnrollmentID string
	Role         string
	CompanyID    string
}

// IsPrivileged là predicate thuần cho Authorization Guard: chỉ staff/admin
// được gọi các thủ tục đặc quyền. Không side effect.
func (a Actor) IsPrivileged() bool {
	return a.Role == "staff" || a.Role == "admin"
}

// requirePrivilege là câu lệnh ĐẦU TIÊN của mọi transaction đặc quyền,
// chạy trước mọi read để không rò rỉ thông tin cho caller không đủ quyền.
func requirePrivilege(actor Actor) error {
	if !actor.IsPrivileged() {
		return ErrAccessDenied
	}
	return nil
}

// runTxn chạy fn trong một transaction snapshot/majority. Hai transaction
// đồng thời ghi cùng document sẽ conflict; driver retry callback, lần chạy
// lại đọc được trạng thái đã commit và fail typed ở origin-state check.
func (e *Engine) runTxn(ctx context.Context, fn func(sc mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	session, err := e.Client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	return session.WithTransaction(ctx, fn, txnOpts)
}

// writeAudit chèn một AuditLogEntry trong cùng transaction với mutation.
func (e *Engine) writeAudit(sc mongo.SessionContext, actor Actor, action, entityType, entityID string, details bson.M) error {
	entry := models.AuditLogEntry{
		ActorID:    actor.EnrollmentID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	_, err := e.DB.Collection("audit_log").InsertOne(sc, entry)
	return err
}
