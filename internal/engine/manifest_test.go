package engine

import (
	"errors"
	"math"
	"strings"
	"testing"

	"pipeyard-storage-api-server/internal/models"
)

func line(quantity int, length float64, unit string) models.ManifestItem {
	return models.ManifestItem{
		Quantity:    quantity,
		LengthValue: length,
		LengthUnit:  unit,
		Grade:       "L80",
	}
}

func TestValidateManifest(t *testing.T) {
	cases := []struct {
		name  string
		items []models.ManifestItem
		ok    bool
	}{
		{"empty", nil, false},
		{"valid", []models.ManifestItem{line(5, 12, "M")}, true},
		{"zero quantity", []models.ManifestItem{line(0, 12, "M")}, false},
		{"negative length", []models.ManifestItem{line(5, -1, "M")}, false},
		{"unknown unit", []models.ManifestItem{line(5, 12, "YD")}, false},
		{"missing grade", []models.ManifestItem{{Quantity: 5, LengthValue: 12, LengthUnit: "M"}}, false},
	}
	for _, c := range cases {
		err := ValidateManifest(c.items)
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
		}
		if !c.ok && !errors.Is(err, ErrInvalidManifest) {
			t.Errorf("%s: err = %v, want ErrInvalidManifest", c.name, err)
		}
	}
}

func TestSumManifestFeetConversion(t *testing.T) {
	items := []models.ManifestItem{
		line(10, 12, "M"),  // 120 m
		line(4, 40, "FT"),  // 4 * 40 * 0.3048 = 48.768 m
	}
	totals := SumManifest(items)
	if totals.Quantity != 14 {
		t.Errorf("Quantity = %d, want 14", totals.Quantity)
	}
	if math.Abs(totals.LengthM-168.768) > 1e-9 {
		t.Errorf("LengthM = %g, want 168.768", totals.LengthM)
	}
}

func TestSumManifestWeight(t *testing.T) {
	items := []models.ManifestItem{
		{Quantity: 2, LengthValue: 10, LengthUnit: "M", Grade: "P110", WeightPerMeter: 50},
		{Quantity: 1, LengthValue: 10, LengthUnit: "M", Grade: "P110"}, // không khai weight
	}
	totals := SumManifest(items)
	if math.Abs(totals.WeightKG-1000) > 1e-9 {
		t.Errorf("WeightKG = %g, want 1000", totals.WeightKG)
	}
}

func TestReconcileManifestStrict(t *testing.T) {
	// Manifest cộng ra 92 joint, nhân viên báo 95: phải chặn, không chọn số nào.
	items := []models.ManifestItem{
		line(50, 12, "M"),
		line(42, 12, "M"),
	}
	_, err := ReconcileManifest(items, 95)
	if !errors.Is(err, ErrQuantityMismatch) {
		t.Fatalf("err = %v, want ErrQuantityMismatch", err)
	}
	if !strings.Contains(err.Error(), "92") || !strings.Contains(err.Error(), "95") {
		t.Errorf("error message %q should contain both figures", err.Error())
	}

	totals, err := ReconcileManifest(items, 92)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.Quantity != 92 {
		t.Errorf("Quantity = %d, want 92", totals.Quantity)
	}
}
