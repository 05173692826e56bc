// server/internal/engine/manifest.go
package engine

import (
	"fmt"

	"pipeyard-storage-api-server/internal/models"
)

// FeetToMeters là hằng số quy đổi cho manifest khai chiều dài theo feet.
const FeetToMeters = 0.3048

const (
	LengthUnitMeters = "M"
	LengthUnitFeet   = "FT"
)

// ManifestTotals là kết quả cộng dồn manifest sau khi quy đổi đơn vị.
type ManifestTotals struct {
	Quantity int     // tổng joint
	LengthM  float64 // tổng mét
	WeightKG float64 // chỉ tính các dòng có weightPerMeterKG
}

// ValidateManifest kiểm tra shape của manifest TRƯỚC bước reconcile:
// payload lỏng lẻo từ wizard phải được chặn ở đây, không để lọt vào transaction.
func ValidateManifest(items []models.ManifestItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: manifest has no line items", ErrInvalidManifest)
	}
	for i, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: line %d has non-positive quantity %d", ErrInvalidManifest, i+1, item.Quantity)
		}
		if item.LengthValue <= 0 {
			return fmt.Errorf("%w: line %d has non-positive length %g", ErrInvalidManifest, i+1, item.LengthValue)
		}
		if item.LengthUnit != LengthUnitMeters && item.LengthUnit != LengthUnitFeet {
			return fmt.Errorf("%w: line %d has unknown length unit %q", ErrInvalidManifest, i+1, item.LengthUnit)
		}
		if item.Grade == "" {
			return fmt.Errorf("%w: line %d is missing grade", ErrInvalidManifest, i+1)
		}
		if item.WeightPerMeter < 0 {
			return fmt.Errorf("%w: line %d has negative weight per meter", ErrInvalidManifest, i+1)
		}
	}
	return nil
}

// ItemLengthM trả về chiều dài MỘT joint của dòng, đã quy về mét.
func ItemLengthM(item models.ManifestItem) float64 {
	if item.LengthUnit == LengthUnitFeet {
		return item.LengthValue * FeetToMeters
	}
	return item.LengthValue
}

// SumManifest cộng dồn manifest đã validate.
func SumManifest(items []models.ManifestItem) ManifestTotals {
	totals := ManifestTotals{}
	for _, item := range items {
		lengthM := ItemLengthM(item)
		totals.Quantity += item.Quantity
		totals.LengthM += lengthM * float64(item.Quantity)
		if item.WeightPerMeter > 0 {
			totals.WeightKG += lengthM * item.WeightPerMeter * float64(item.Quantity)
		}
	}
	return totals
}

// ReconcileManifest là invariant cứng của Completion Transaction: tổng joint
// trên manifest phải bằng đúng số nhân viên nhập tay. Manifest là nguồn sự
// thật cho những gì vào kho — lệch là chặn, không âm thầm chọn một trong hai số.
func ReconcileManifest(items []models.ManifestItem, reportedQuantity int) (ManifestTotals, error) {
	totals := SumManifest(items)
	if totals.Quantity != reportedQuantity {
		return totals, quantityMismatchError(totals.Quantity, reportedQuantity)
	}
	return totals, nil
}
