// server/internal/engine/states.go
package engine

import "pipeyard-storage-api-server/internal/models"

// Bảng transition hợp lệ cho hai loại entity. Mọi mutation phải đọc lại
// trạng thái hiện tại TRONG transaction rồi đối chiếu bảng này; transition
// là write cuối cùng sau khi mọi validation đã qua.

var requestTransitions = map[string][]string{
	models.RequestStatusPending: {models.RequestStatusApproved, models.RequestStatusRejected},
	// APPROVED và REJECTED là terminal: mở lại bằng request mới, không sửa request cũ.
}

var loadTransitions = map[string][]string{
	models.LoadStatusNew:       {models.LoadStatusApproved, models.LoadStatusRejected},
	models.LoadStatusApproved:  {models.LoadStatusInTransit},
	models.LoadStatusInTransit: {models.LoadStatusCompleted},
}

// CanTransitionRequest kiểm tra một transition của StorageRequest có hợp lệ không.
func CanTransitionRequest(from, to string) bool {
	return canTransition(requestTransitions, from, to)
}

// CanTransitionLoad kiểm tra một transition của Load có hợp lệ không.
func CanTransitionLoad(from, to string) bool {
	return canTransition(loadTransitions, from, to)
}

// IsTerminalLoadStatus báo load đã kết thúc chưa (COMPLETED hoặc REJECTED).
// Sequential booking dựa vào hàm này: chỉ được book load mới khi mọi load
// cùng (request, direction) đều terminal.
func IsTerminalLoadStatus(status string) bool {
	return len(loadTransitions[status]) == 0
}

func canTransition(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}
