package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"pipeyard-storage-api-server/internal/database"
	"pipeyard-storage-api-server/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Các test này cần một MongoDB replica set (transaction không chạy trên
// standalone). Bật bằng:
//
//	INTEGRATION_TESTS=1 MONGO_URI=mongodb://localhost:27017/?replicaSet=rs0 go test ./internal/engine/
func newTestEngine(t *testing.T) (*Engine, context.Context) {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires a mongo replica set)")
	}
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017/?replicaSet=rs0"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	dbName := fmt.Sprintf("pipeyard_test_%s", strings.ToLower(uuid.New().String()[:8]))
	db := client.Database(dbName)
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	if err := database.EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	return &Engine{Client: client, DB: db, Logger: logger}, ctx
}

var staffActor = Actor{EnrollmentID: "staff-test", Role: "staff"}

func seedRequest(t *testing.T, e *Engine, ctx context.Context, status string) string {
	t.Helper()
	requestID := fmt.Sprintf("SR-%s", strings.ToUpper(uuid.New().String()[:8]))
	_, err := e.DB.Collection("storage_requests").InsertOne(ctx, models.StorageRequest{
		RequestID:        requestID,
		CompanyID:        "acme-drilling",
		Contact:          models.Contact{Name: "Test", Email: "ops@acme.example"},
		RequiredQuantity: 60,
		Status:           status,
		CreatedBy:        "customer-test",
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	})
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return requestID
}

func seedLocation(t *testing.T, e *Engine, ctx context.Context, locationID string, capJoints int, capMeters float64) {
	t.Helper()
	_, err := e.DB.Collection("storage_locations").InsertOne(ctx, models.StorageLocation{
		LocationID:     locationID,
		Name:           "Rack " + locationID,
		CapacityJoints: capJoints,
		CapacityMeters: capMeters,
		Status:         "ACTIVE",
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	})
	if err != nil {
		t.Fatalf("seed location: %v", err)
	}
}

func getLocation(t *testing.T, e *Engine, ctx context.Context, locationID string) models.StorageLocation {
	t.Helper()
	var location models.StorageLocation
	if err := e.DB.Collection("storage_locations").FindOne(ctx, bson.M{"locationID": locationID}).Decode(&location); err != nil {
		t.Fatalf("get location %s: %v", locationID, err)
	}
	return location
}

func TestApproveRequestReservesCapacity(t *testing.T) {
	e, ctx := newTestEngine(t)
	requestID := seedRequest(t, e, ctx, models.RequestStatusPending)
	seedLocation(t, e, ctx, "rack-L", 100, 2000)

	result, err := e.ApproveRequest(ctx, staffActor, requestID, []string{"rack-L"}, 60, "ok")
	if err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}
	if result.RequiredQuantity != 60 || result.AvailableQuantity != 100 {
		t.Errorf("result figures = %d/%d, want 60/100", result.RequiredQuantity, result.AvailableQuantity)
	}

	if got := getLocation(t, e, ctx, "rack-L").OccupiedJoints; got != 60 {
		t.Errorf("occupiedJoints = %d, want 60", got)
	}

	// Audit và queue entry phải tồn tại.
	n, _ := e.DB.Collection("audit_log").CountDocuments(ctx, bson.M{"action": models.ActionApproveRequest, "entityID": requestID})
	if n != 1 {
		t.Errorf("audit entries = %d, want 1", n)
	}
	n, _ = e.DB.Collection("notification_queue").CountDocuments(ctx, bson.M{"type": models.NotifyRequestApproved, "entityID": requestID})
	if n != 1 {
		t.Errorf("queue entries = %d, want 1", n)
	}
}

func TestApproveRequestTwice(t *testing.T) {
	e, ctx := newTestEngine(t)
	requestID := seedRequest(t, e, ctx, models.RequestStatusPending)
	seedLocation(t, e, ctx, "rack-T", 200, 2000)

	if _, err := e.ApproveRequest(ctx, staffActor, requestID, []string{"rack-T"}, 60, ""); err != nil {
		t.Fatalf("first ApproveRequest: %v", err)
	}
	_, err := e.ApproveRequest(ctx, staffActor, requestID, []string{"rack-T"}, 60, "")
	if !errors.Is(err, ErrNotPending) {
		t.Fatalf("second ApproveRequest err = %v, want ErrNotPending", err)
	}
	// Capacity chỉ được cộng đúng một lần.
	if got := getLocation(t, e, ctx, "rack-T").OccupiedJoints; got != 60 {
		t.Errorf("occupiedJoints = %d, want 60", got)
	}
}

func TestApprovalFailureLeavesNoTrace(t *testing.T) {
	e, ctx := newTestEngine(t)
	requestID := seedRequest(t, e, ctx, models.RequestStatusPending)
	seedLocation(t, e, ctx, "rack-F", 10, 100)

	_, err := e.ApproveRequest(ctx, staffActor, requestID, []string{"rack-F"}, 60, "")
	if !errors.Is(err, ErrInsufficientCapacity) {
		t.Fatalf("err = %v, want ErrInsufficientCapacity", err)
	}

	if got := getLocation(t, e, ctx, "rack-F").OccupiedJoints; got != 0 {
		t.Errorf("occupiedJoints = %d, want 0 after abort", got)
	}
	var request models.StorageRequest
	_ = e.DB.Collection("storage_requests").FindOne(ctx, bson.M{"requestID": requestID}).Decode(&request)
	if request.Status != models.RequestStatusPending {
		t.Errorf("request status = %s, want PENDING after abort", request.Status)
	}
	for _, coll := range []string{"audit_log", "notification_queue"} {
		n, _ := e.DB.Collection(coll).CountDocuments(ctx, bson.M{"entityID": requestID})
		if n != 0 {
			t.Errorf("%s has %d rows for aborted approval, want 0", coll, n)
		}
	}
}

func TestEnqueueDedup(t *testing.T) {
	e, ctx := newTestEngine(t)

	payload := bson.M{"loadID": "LD-DEDUP"}
	if err := e.Enqueue(ctx, models.NotifyLoadCompleted, "LD-DEDUP", models.LoadStatusCompleted, payload); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	// Cùng dedup key trong khi entry đầu chưa processed: phải no-op, không lỗi.
	if err := e.Enqueue(ctx, models.NotifyLoadCompleted, "LD-DEDUP", models.LoadStatusCompleted, payload); err != nil {
		t.Fatalf("duplicate Enqueue should be a no-op, got %v", err)
	}
	n, _ := e.DB.Collection("notification_queue").CountDocuments(ctx, bson.M{"entityID": "LD-DEDUP"})
	if n != 1 {
		t.Errorf("queue rows = %d, want exactly 1", n)
	}

	// Sau khi entry đầu processed thì key được phép xuất hiện lại.
	_, _ = e.DB.Collection("notification_queue").UpdateOne(ctx,
		bson.M{"entityID": "LD-DEDUP"}, bson.M{"$set": bson.M{"processed": true}})
	if err := e.Enqueue(ctx, models.NotifyLoadCompleted, "LD-DEDUP", models.LoadStatusCompleted, payload); err != nil {
		t.Fatalf("Enqueue after processed: %v", err)
	}
	n, _ = e.DB.Collection("notification_queue").CountDocuments(ctx, bson.M{"entityID": "LD-DEDUP"})
	if n != 2 {
		t.Errorf("queue rows = %d, want 2", n)
	}
}

func TestSequentialBookingGuard(t *testing.T) {
	e, ctx := newTestEngine(t)
	requestID := seedRequest(t, e, ctx, models.RequestStatusPending)
	seedLocation(t, e, ctx, "rack-S", 200, 2000)
	if _, err := e.ApproveRequest(ctx, staffActor, requestID, []string{"rack-S"}, 60, ""); err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}

	schedule := models.ScheduleWindow{Start: "2026-09-01T08:00:00Z", End: "2026-09-01T12:00:00Z"}
	carrier := models.Carrier{Company: "FastHaul", DriverName: "A. Driver", TruckPlate: "51C-12345"}

	first, err := e.BookLoad(ctx, staffActor, requestID, models.DirectionInbound, schedule, carrier, 30)
	if err != nil {
		t.Fatalf("first BookLoad: %v", err)
	}
	if first.Seq != 1 {
		t.Errorf("first seq = %d, want 1", first.Seq)
	}

	if _, err := e.BookLoad(ctx, staffActor, requestID, models.DirectionInbound, schedule, carrier, 30); !errors.Is(err, ErrActiveLoadExists) {
		t.Fatalf("second BookLoad err = %v, want ErrActiveLoadExists", err)
	}

	// Load đạt terminal thì book tiếp được, seq không có khoảng trống.
	_, _ = e.DB.Collection("loads").UpdateOne(ctx,
		bson.M{"loadID": first.LoadID}, bson.M{"$set": bson.M{"status": models.LoadStatusRejected}})
	second, err := e.BookLoad(ctx, staffActor, requestID, models.DirectionInbound, schedule, carrier, 30)
	if err != nil {
		t.Fatalf("BookLoad after terminal: %v", err)
	}
	if second.Seq != 2 {
		t.Errorf("second seq = %d, want 2", second.Seq)
	}
}

func TestCompleteLoadEndToEnd(t *testing.T) {
	e, ctx := newTestEngine(t)
	requestID := seedRequest(t, e, ctx, models.RequestStatusPending)
	seedLocation(t, e, ctx, "rack-E", 100, 2000)

	if _, err := e.ApproveRequest(ctx, staffActor, requestID, []string{"rack-E"}, 60, ""); err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}
	load, err := e.BookLoad(ctx, staffActor, requestID, models.DirectionInbound,
		models.ScheduleWindow{Start: "2026-09-01T08:00:00Z", End: "2026-09-01T12:00:00Z"},
		models.Carrier{Company: "FastHaul", DriverName: "A. Driver", TruckPlate: "51C-12345"}, 60)
	if err != nil {
		t.Fatalf("BookLoad: %v", err)
	}
	if err := e.MarkLoadApproved(ctx, staffActor, load.LoadID); err != nil {
		t.Fatalf("MarkLoadApproved: %v", err)
	}
	if err := e.MarkLoadInTransit(ctx, staffActor, load.LoadID); err != nil {
		t.Fatalf("MarkLoadInTransit: %v", err)
	}

	manifest := []models.ManifestItem{
		{Quantity: 40, LengthValue: 12, LengthUnit: "M", Grade: "L80", OuterDiameter: "9 5/8\"", WeightPerMeter: 53.57},
		{Quantity: 20, LengthValue: 12, LengthUnit: "M", Grade: "L80", OuterDiameter: "9 5/8\""},
	}

	// Mismatch trước: không được để lại inventory nào.
	if _, err := e.CompleteLoad(ctx, staffActor, load.LoadID, "rack-E", 63, manifest, ""); !errors.Is(err, ErrQuantityMismatch) {
		t.Fatalf("err = %v, want ErrQuantityMismatch", err)
	}
	n, _ := e.DB.Collection("inventory_items").CountDocuments(ctx, bson.M{"loadID": load.LoadID})
	if n != 0 {
		t.Fatalf("inventory rows after mismatch = %d, want 0", n)
	}

	result, err := e.CompleteLoad(ctx, staffActor, load.LoadID, "rack-E", 60, manifest, "")
	if err != nil {
		t.Fatalf("CompleteLoad: %v", err)
	}
	if result.CompletedQuantity != 60 || result.InventoryCount != 60 {
		t.Errorf("completed/inventory = %d/%d, want 60/60", result.CompletedQuantity, result.InventoryCount)
	}

	// Mỗi joint một document, đúng bằng completedQuantity.
	n, _ = e.DB.Collection("inventory_items").CountDocuments(ctx, bson.M{"loadID": load.LoadID})
	if n != 60 {
		t.Errorf("inventory rows = %d, want 60", n)
	}

	location := getLocation(t, e, ctx, "rack-E")
	// Chiều joint đã reserve lúc approve — completion không cộng thêm.
	if location.OccupiedJoints != 60 {
		t.Errorf("occupiedJoints = %d, want 60 (unchanged from approval)", location.OccupiedJoints)
	}
	if location.OccupiedMeters != 720 {
		t.Errorf("occupiedMeters = %g, want 720", location.OccupiedMeters)
	}
	if location.OccupiedJoints > location.CapacityJoints || location.OccupiedMeters > location.CapacityMeters {
		t.Errorf("capacity invariant violated: %+v", location)
	}

	var request models.StorageRequest
	_ = e.DB.Collection("storage_requests").FindOne(ctx, bson.M{"requestID": requestID}).Decode(&request)
	if request.DeliveredQuantity != 60 {
		t.Errorf("deliveredQuantity = %d, want 60", request.DeliveredQuantity)
	}

	// Double completion bị chặn.
	if _, err := e.CompleteLoad(ctx, staffActor, load.LoadID, "rack-E", 60, manifest, ""); !errors.Is(err, ErrWrongState) {
		t.Errorf("second CompleteLoad err = %v, want ErrWrongState", err)
	}
}

func TestCompleteLoadBoundedByReservation(t *testing.T) {
	e, ctx := newTestEngine(t)
	requestID := seedRequest(t, e, ctx, models.RequestStatusPending)
	seedLocation(t, e, ctx, "rack-R", 100, 5000)

	if _, err := e.ApproveRequest(ctx, staffActor, requestID, []string{"rack-R"}, 60, ""); err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}

	schedule := models.ScheduleWindow{Start: "2026-09-01T08:00:00Z", End: "2026-09-01T12:00:00Z"}
	carrier := models.Carrier{Company: "FastHaul", DriverName: "A. Driver", TruckPlate: "51C-12345"}
	manifest := []models.ManifestItem{line(40, 12, "M")}

	deliver := func(t *testing.T) (*CompletionResult, error) {
		t.Helper()
		load, err := e.BookLoad(ctx, staffActor, requestID, models.DirectionInbound, schedule, carrier, 40)
		if err != nil {
			t.Fatalf("BookLoad: %v", err)
		}
		if err := e.MarkLoadApproved(ctx, staffActor, load.LoadID); err != nil {
			t.Fatalf("MarkLoadApproved: %v", err)
		}
		if err := e.MarkLoadInTransit(ctx, staffActor, load.LoadID); err != nil {
			t.Fatalf("MarkLoadInTransit: %v", err)
		}
		return e.CompleteLoad(ctx, staffActor, load.LoadID, "rack-R", 40, manifest, "")
	}

	// Load đầu: 40/60 joint của reservation.
	if _, err := deliver(t); err != nil {
		t.Fatalf("first CompleteLoad: %v", err)
	}

	// Load thứ hai thêm 40 joint nữa trong khi reservation chỉ còn 20:
	// hàng về vượt trần approve phải bị chặn.
	_, err := deliver(t)
	if !errors.Is(err, ErrInsufficientCapacity) {
		t.Fatalf("err = %v, want ErrInsufficientCapacity", err)
	}

	// Transaction abort sạch: inventory và deliveredQuantity giữ nguyên của load đầu.
	n, _ := e.DB.Collection("inventory_items").CountDocuments(ctx, bson.M{"requestID": requestID})
	if n != 40 {
		t.Errorf("inventory rows = %d, want 40", n)
	}
	var request models.StorageRequest
	_ = e.DB.Collection("storage_requests").FindOne(ctx, bson.M{"requestID": requestID}).Decode(&request)
	if request.DeliveredQuantity != 40 {
		t.Errorf("deliveredQuantity = %d, want 40", request.DeliveredQuantity)
	}
	if request.DeliveredQuantity > request.RequiredQuantity {
		t.Errorf("deliveredQuantity %d exceeds requiredQuantity %d", request.DeliveredQuantity, request.RequiredQuantity)
	}
}

func TestAccessDeniedBeforeAnyRead(t *testing.T) {
	e, ctx := newTestEngine(t)
	customer := Actor{EnrollmentID: "customer-1", Role: "customer", CompanyID: "acme-drilling"}

	if _, err := e.ApproveRequest(ctx, customer, "SR-NOPE", []string{"rack-X"}, 10, ""); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("ApproveRequest err = %v, want ErrAccessDenied", err)
	}
	if _, err := e.CompleteLoad(ctx, customer, "LD-NOPE", "rack-X", 10, []models.ManifestItem{line(10, 12, "M")}, ""); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("CompleteLoad err = %v, want ErrAccessDenied", err)
	}
}
