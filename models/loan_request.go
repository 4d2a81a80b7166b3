// models/loan_request.go
package models

import "time"

const RequestTable = "lend_requests"

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusReturned = "RETURNED"
)

// LoanRequest 借用申请。创建时不做容量检查（PENDING 可以超卖），
// 只有审批那一刻在事务里重新算占用量。
type LoanRequest struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID string    `gorm:"type:uuid;index;not null" json:"requesterId"`
	EquipmentID string    `gorm:"type:uuid;index;not null" json:"equipmentId"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	StartDate   time.Time `gorm:"type:date;not null" json:"startDate"`
	EndDate     time.Time `gorm:"type:date;not null" json:"endDate"`
	Status      string    `gorm:"size:20;not null;default:'PENDING';index" json:"status"`

	ProcessedBy *string    `gorm:"type:uuid" json:"processedBy,omitempty"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	ReturnedAt  *time.Time `json:"returnedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (LoanRequest) TableName() string { return RequestTable }

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusReturned:
		return true
	}
	return false
}

// Overlaps 闭区间重叠判定：共享边界日也算重叠。
// [s1,e1] 与 [s2,e2] 重叠 ⇔ s1 <= e2 && s2 <= e1
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}
