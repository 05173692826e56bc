// server/internal/engine/capacity.go
package engine

import (
	"fmt"

	"pipeyard-storage-api-server/internal/models"
)

// PlanAssignment chia requiredQuantity (joint) lên danh sách rack theo thứ tự
// caller đưa vào: lấp đầy từng rack đến hết headroom rồi mới sang rack kế.
// Deterministic và không bao giờ vượt capacity còn lại của bất kỳ rack nào.
//
// Một rack xuất hiện hai lần sẽ bị tính headroom gấp đôi nên danh sách có
// phần tử trùng bị từ chối thẳng với ErrInvalidLocation.
//
// Trả về ErrInsufficientCapacity (kèm số cần / số còn) nếu tổng headroom
// của các rack được nêu không đủ.
func PlanAssignment(locations []models.StorageLocation, requiredQuantity int) ([]models.LocationAssignment, int, error) {
	seen := make(map[string]bool, len(locations))
	available := 0
	for i := range locations {
		if seen[locations[i].LocationID] {
			return nil, 0, fmt.Errorf("%w: %s is listed more than once", ErrInvalidLocation, locations[i].LocationID)
		}
		seen[locations[i].LocationID] = true
		available += locations[i].AvailableJoints()
	}
	if available < requiredQuantity {
		return nil, available, insufficientCapacityError("joints", float64(requiredQuantity), float64(available))
	}

	assignments := []models.LocationAssignment{}
	remaining := requiredQuantity
	for i := range locations {
		if remaining == 0 {
			break
		}
		headroom := locations[i].AvailableJoints()
		if headroom <= 0 {
			continue
		}
		share := headroom
		if remaining < share {
			share = remaining
		}
		assignments = append(assignments, models.LocationAssignment{
			LocationID: locations[i].LocationID,
			Quantity:   share,
		})
		remaining -= share
	}
	return assignments, available, nil
}
