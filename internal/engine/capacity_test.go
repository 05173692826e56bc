package engine

import (
	"errors"
	"strings"
	"testing"

	"pipeyard-storage-api-server/internal/models"
)

func rack(id string, capacity, occupied int) models.StorageLocation {
	return models.StorageLocation{
		LocationID:     id,
		CapacityJoints: capacity,
		OccupiedJoints: occupied,
	}
}

func TestPlanAssignmentSequentialFill(t *testing.T) {
	locations := []models.StorageLocation{
		rack("rack-A1", 100, 80), // headroom 20
		rack("rack-A2", 100, 50), // headroom 50
		rack("rack-B1", 100, 0),  // headroom 100
	}

	assignments, available, err := PlanAssignment(locations, 60)
	if err != nil {
		t.Fatalf("PlanAssignment returned error: %v", err)
	}
	if available != 170 {
		t.Errorf("available = %d, want 170", available)
	}
	want := []models.LocationAssignment{
		{LocationID: "rack-A1", Quantity: 20},
		{LocationID: "rack-A2", Quantity: 40},
	}
	if len(assignments) != len(want) {
		t.Fatalf("got %d assignments, want %d: %+v", len(assignments), len(want), assignments)
	}
	total := 0
	for i, a := range assignments {
		if a != want[i] {
			t.Errorf("assignment[%d] = %+v, want %+v", i, a, want[i])
		}
		total += a.Quantity
		// Không share nào được vượt headroom của rack tương ứng.
		for _, l := range locations {
			if l.LocationID == a.LocationID && a.Quantity > l.AvailableJoints() {
				t.Errorf("assignment %+v exceeds headroom %d", a, l.AvailableJoints())
			}
		}
	}
	if total != 60 {
		t.Errorf("total assigned = %d, want 60", total)
	}
}

func TestPlanAssignmentDeterministic(t *testing.T) {
	locations := []models.StorageLocation{
		rack("rack-A1", 50, 10),
		rack("rack-A2", 50, 20),
	}
	first, _, err := PlanAssignment(locations, 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _, err := PlanAssignment(locations, 55)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d differs: %+v vs %+v", i, again, first)
			}
		}
	}
}

func TestPlanAssignmentInsufficient(t *testing.T) {
	locations := []models.StorageLocation{
		rack("rack-A1", 100, 90),
		rack("rack-A2", 100, 95),
	}
	_, available, err := PlanAssignment(locations, 16)
	if !errors.Is(err, ErrInsufficientCapacity) {
		t.Fatalf("err = %v, want ErrInsufficientCapacity", err)
	}
	if available != 15 {
		t.Errorf("available = %d, want 15", available)
	}
	// Message phải nêu cả số cần lẫn số còn cho operator.
	msg := err.Error()
	if !strings.Contains(msg, "16") || !strings.Contains(msg, "15") {
		t.Errorf("error message %q should contain required and available figures", msg)
	}
}

func TestPlanAssignmentRejectsDuplicateRacks(t *testing.T) {
	// Cùng một rack nêu hai lần: headroom bị đếm đôi, không được phép lọt
	// qua planning rồi thành hai lần $inc trên cùng rack.
	locations := []models.StorageLocation{
		rack("rack-A1", 50, 0),
		rack("rack-A1", 50, 0),
	}
	_, _, err := PlanAssignment(locations, 100)
	if !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("err = %v, want ErrInvalidLocation", err)
	}
	if !strings.Contains(err.Error(), "rack-A1") {
		t.Errorf("error message %q should name the duplicated rack", err.Error())
	}
}

func TestPlanAssignmentSkipsFullRacks(t *testing.T) {
	locations := []models.StorageLocation{
		rack("rack-A1", 100, 100), // đầy
		rack("rack-A2", 100, 0),
	}
	assignments, _, err := PlanAssignment(locations, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assignments) != 1 || assignments[0].LocationID != "rack-A2" || assignments[0].Quantity != 30 {
		t.Errorf("assignments = %+v, want all 30 on rack-A2", assignments)
	}
}
