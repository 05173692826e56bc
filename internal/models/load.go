// server/internal/models/load.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ManifestItem là một dòng trong manifest của chuyến hàng.
// Manifest là nguồn sự thật khi hoàn tất load: tổng số joint trên manifest
// phải khớp với số lượng nhân viên nhập tay, nếu lệch thì từ chối.
type ManifestItem struct {
	Quantity       int     `bson:"quantity" json:"quantity"`             // số joint trên dòng này
	LengthValue    float64 `bson:"lengthValue" json:"lengthValue"`       // chiều dài mỗi joint
	LengthUnit     string  `bson:"lengthUnit" json:"lengthUnit"`         // "M" hoặc "FT"
	Grade          string  `bson:"grade" json:"grade"`                   // e.g., "L80", "P110"
	OuterDiameter  string  `bson:"outerDiameter" json:"outerDiameter"`   // e.g., "9 5/8\""
	WeightPerMeter float64 `bson:"weightPerMeterKG,omitempty" json:"weightPerMeterKG"`
	HeatNumber     string  `bson:"heatNumber,omitempty" json:"heatNumber"`
	Damaged        bool    `bson:"damaged,omitempty" json:"damaged"`
	DamageNotes    string  `bson:"damageNotes,omitempty" json:"damageNotes"`
}

// CompletedFigures là số liệu thực tế do Completion Transaction ghi lại.
type CompletedFigures struct {
	Quantity int     `bson:"quantity" json:"quantity"` // joints
	LengthM  float64 `bson:"lengthM" json:"lengthM"`
	WeightKG float64 `bson:"weightKG,omitempty" json:"weightKG"`
}

type Load struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LoadID          string             `bson:"loadID" json:"loadID"` // e.g., "LD-A1B2C3D4"
	RequestID       string             `bson:"requestID" json:"requestID"`
	CompanyID       string             `bson:"companyID" json:"companyID"`
	Direction       string             `bson:"direction" json:"direction"` // INBOUND, OUTBOUND
	Seq             int                `bson:"seq" json:"seq"`             // tăng dần, không có khoảng trống trong (request, direction)
	Status          string             `bson:"status" json:"status"`       // NEW, APPROVED, IN_TRANSIT, COMPLETED, REJECTED
	Schedule        ScheduleWindow     `bson:"schedule" json:"schedule"`
	Carrier         Carrier            `bson:"carrier" json:"carrier"`
	PlannedQuantity int                `bson:"plannedQuantity" json:"plannedQuantity"` // joints
	Manifest        []ManifestItem     `bson:"manifest,omitempty" json:"manifest"`
	ManifestDoc     *MediaPointer      `bson:"manifestDoc,omitempty" json:"manifestDoc"` // file scan trên S3
	LocationID      string             `bson:"locationID,omitempty" json:"locationID"`   // rack nhận hàng, set khi complete
	Completed       *CompletedFigures  `bson:"completed,omitempty" json:"completed"`
	DamageNotes     string             `bson:"damageNotes,omitempty" json:"damageNotes"`
	RejectionReason string             `bson:"rejectionReason,omitempty" json:"rejectionReason"`
	CompletedBy     string             `bson:"completedBy,omitempty" json:"completedBy"`
	CompletedAt     *time.Time         `bson:"completedAt,omitempty" json:"completedAt"`
	CreatedBy       string             `bson:"createdBy" json:"createdBy"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
