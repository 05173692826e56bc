// server/internal/models/status.go
package models

// Trạng thái của StorageRequest.
const (
	RequestStatusPending  = "PENDING"
	RequestStatusApproved = "APPROVED"
	RequestStatusRejected = "REJECTED"
)

// Trạng thái của Load.
const (
	LoadStatusNew       = "NEW"
	LoadStatusApproved  = "APPROVED"
	LoadStatusInTransit = "IN_TRANSIT"
	LoadStatusCompleted = "COMPLETED"
	LoadStatusRejected  = "REJECTED"
)

// Hướng của Load.
const (
	DirectionInbound  = "INBOUND"
	DirectionOutbound = "OUTBOUND"
)

// Trạng thái của InventoryItem.
const (
	InventoryStatusInStorage = "IN_STORAGE"
	InventoryStatusPickedUp  = "PICKED_UP"
)

// Các loại notification trong queue, map sang template ở phía delivery channel.
const (
	NotifyRequestApproved = "request_approved"
	NotifyRequestRejected = "request_rejected"
	NotifyLoadApproved    = "load_approved"
	NotifyLoadRejected    = "load_rejected"
	NotifyLoadInTransit   = "load_in_transit"
	NotifyLoadCompleted   = "load_completed"
)
