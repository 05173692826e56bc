// server/internal/models/common.go
package models

// Contact là thông tin liên hệ của người tạo yêu cầu.
type Contact struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone,omitempty" json:"phone"`
}

// Carrier holds the trucking info attached to a load.
type Carrier struct {
	Company     string `bson:"company" json:"company"`
	DriverName  string `bson:"driverName" json:"driverName"`
	DriverPhone string `bson:"driverPhone,omitempty" json:"driverPhone"`
	TruckPlate  string `bson:"truckPlate" json:"truckPlate"`
}

// ScheduleWindow là khung giờ dự kiến cho một chuyến hàng.
type ScheduleWindow struct {
	Start string `bson:"start" json:"start"` // RFC3339
	End   string `bson:"end" json:"end"`
}

// MediaPointer đại diện cho một tài liệu được lưu trữ trên S3 hoặc dịch vụ tương tự.
type MediaPointer struct {
	ID       string `bson:"id" json:"id"`
	URL      string `bson:"url" json:"url"`
	FileName string `bson:"fileName" json:"fileName"`
	FileType string `bson:"fileType" json:"fileType"` // e.g., "image/png", "application/pdf"
}
