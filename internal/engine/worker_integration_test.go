package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"pipeyard-storage-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

type fakeDispatcher struct {
	failTypes map[string]bool
	sent      []string
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, entry models.NotificationQueueEntry) error {
	if d.failTypes[entry.Type] {
		return errors.New("channel down")
	}
	d.sent = append(d.sent, entry.EntityID)
	return nil
}

func TestWorkerDrain(t *testing.T) {
	e, ctx := newTestEngine(t)

	if err := e.Enqueue(ctx, models.NotifyLoadCompleted, "LD-OK", models.LoadStatusCompleted, bson.M{"loadID": "LD-OK"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := e.Enqueue(ctx, models.NotifyRequestApproved, "SR-FAIL", models.RequestStatusApproved, bson.M{"requestID": "SR-FAIL"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	dispatcher := &fakeDispatcher{failTypes: map[string]bool{models.NotifyRequestApproved: true}}
	worker := NewWorker(e, dispatcher)

	stats, err := worker.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if stats.Sent != 1 || stats.Failed != 1 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want {Sent:1 Failed:1 Skipped:0}", stats)
	}

	// Entry thành công được đánh dấu processed; entry fail giữ nguyên, attempts tăng.
	var ok models.NotificationQueueEntry
	_ = e.DB.Collection("notification_queue").FindOne(ctx, bson.M{"entityID": "LD-OK"}).Decode(&ok)
	if !ok.Processed || ok.ProcessedAt == nil {
		t.Errorf("successful entry not marked processed: %+v", ok)
	}
	var failed models.NotificationQueueEntry
	_ = e.DB.Collection("notification_queue").FindOne(ctx, bson.M{"entityID": "SR-FAIL"}).Decode(&failed)
	if failed.Processed || failed.Attempts != 1 || failed.LastError == "" {
		t.Errorf("failed entry bookkeeping wrong: %+v", failed)
	}

	// Drain lặp lại là idempotent: entry đã processed không được chọn lại.
	dispatcher.failTypes = nil
	stats, err = worker.Drain(ctx)
	if err != nil {
		t.Fatalf("second Drain: %v", err)
	}
	if stats.Sent != 1 {
		t.Errorf("second drain sent = %d, want 1 (only the retried entry)", stats.Sent)
	}
	if len(dispatcher.sent) != 2 {
		t.Errorf("dispatched %d messages total, want 2", len(dispatcher.sent))
	}
}

func TestWorkerSkipsStuckEntries(t *testing.T) {
	e, ctx := newTestEngine(t)

	if err := e.Enqueue(ctx, models.NotifyLoadCompleted, "LD-STUCK", models.LoadStatusCompleted, bson.M{}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	_, _ = e.DB.Collection("notification_queue").UpdateOne(ctx,
		bson.M{"entityID": "LD-STUCK"}, bson.M{"$set": bson.M{"attempts": 99}})

	dispatcher := &fakeDispatcher{}
	worker := NewWorker(e, dispatcher)
	worker.StuckAge = time.Hour

	stats, err := worker.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if stats.Skipped != 1 || stats.Sent != 0 {
		t.Errorf("stats = %+v, want {Skipped:1}", stats)
	}

	stuck, err := worker.StuckEntries(ctx)
	if err != nil {
		t.Fatalf("StuckEntries: %v", err)
	}
	if len(stuck) != 1 || stuck[0].EntityID != "LD-STUCK" {
		t.Errorf("stuck = %+v, want the LD-STUCK entry", stuck)
	}
}
