// server/internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// Các lỗi nghiệp vụ của engine. Handler map chúng sang HTTP status;
// engine không bao giờ trả lỗi chung chung cho các case đã biết này.
var (
	// ErrAccessDenied: caller không có đặc quyền. Fatal, không retry.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotPending: request không còn ở trạng thái PENDING.
	// Chặn double-approval; caller nên refresh rồi quyết định lại.
	ErrNotPending = errors.New("storage request is not pending")

	// ErrWrongState: load không ở đúng trạng thái gốc cho transition.
	ErrWrongState = errors.New("load is not in the expected state")

	// ErrInvalidLocation: locationID không tồn tại hoặc không hợp lệ — lỗi phía caller.
	ErrInvalidLocation = errors.New("invalid storage location")

	// ErrInsufficientCapacity: không đủ chỗ. Message luôn kèm số cần / số còn.
	ErrInsufficientCapacity = errors.New("insufficient capacity")

	// ErrQuantityMismatch: tổng joint trên manifest lệch với số nhập tay.
	// Manifest là nguồn sự thật nên mọi sai lệch phải chặn completion.
	ErrQuantityMismatch = errors.New("manifest quantity mismatch")

	// ErrActiveLoadExists: sequential booking — request đã có một load chưa kết thúc.
	ErrActiveLoadExists = errors.New("an active load already exists for this request and direction")

	// ErrInvalidManifest: manifest sai shape, bị chặn trước bước reconcile.
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrInvalidDirection: direction của load không phải INBOUND/OUTBOUND.
	ErrInvalidDirection = errors.New("invalid load direction")

	ErrNotFound = errors.New("not found")
)

func insufficientCapacityError(dimension string, required, available float64) error {
	return fmt.Errorf("%w: need %g %s, have %g available", ErrInsufficientCapacity, required, dimension, available)
}

func quantityMismatchError(manifestTotal, reported int) error {
	return fmt.Errorf("%w: manifest total is %d joints but reported quantity is %d", ErrQuantityMismatch, manifestTotal, reported)
}

func wrongStateError(loadID, current, expected string) error {
	return fmt.Errorf("%w: load %s is %s, expected %s", ErrWrongState, loadID, current, expected)
}
