// db/repo_requests_admin.go
package db

import (
	"Gin_postgres_equipment_lending/models"
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

type StaffRequestRow struct {
	// LoanRequest fields
	ID          string    `json:"id"`
	EquipmentID string    `json:"equipmentId"`
	RequesterID string    `json:"requesterId"`
	Quantity    int       `json:"quantity"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`

	ProcessedBy *string    `json:"processedBy,omitempty"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	ReturnedAt  *time.Time `json:"returnedAt,omitempty"`

	// Joined context for the review screen
	EquipmentName  *string `json:"equipmentName,omitempty"`
	RequesterEmail *string `json:"requesterEmail,omitempty"`
	RequesterName  *string `json:"requesterName,omitempty"`
	Overdue        bool    `json:"overdue"` // 由 SQL 计算：APPROVED 且 end_date 已过
}

type StaffRequestsQuery struct {
	Q      string // 模糊搜索：设备名/申请人邮箱
	Status string // "", "PENDING", "APPROVED", "REJECTED", "RETURNED", "overdue"
	Page   int
	Size   int
}

type PagedStaffRequests struct {
	Total int64             `json:"total"`
	Items []StaffRequestRow `json:"items"`
}

// ListRequestsWithDetails 审核列表：申请 + 设备名 + 申请人，带 overdue 标记。
// 设备可能已被删除，所以 LEFT JOIN，名称可为空。
func (r *Repo) ListRequestsWithDetails(ctx context.Context, q StaffRequestsQuery) (*PagedStaffRequests, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 200 {
		q.Size = 20
	}
	offset := (q.Page - 1) * q.Size

	db := r.DB.WithContext(ctx)

	base := db.
		Table(models.RequestTable + " lr").
		Joins("LEFT JOIN " + models.EquipmentTable + " e ON e.id = lr.equipment_id").
		Joins("LEFT JOIN lend_users u ON u.id = lr.requester_id")

	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		base = base.Where("LOWER(e.name) LIKE ? OR LOWER(u.email) LIKE ?", pat, pat)
	}
	switch q.Status {
	case "":
		// all
	case "overdue":
		base = base.Where("lr.status = ? AND lr.end_date < NOW()", models.StatusApproved)
	default:
		if !models.ValidStatus(q.Status) {
			return nil, ErrInvalidInput
		}
		base = base.Where("lr.status = ?", q.Status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Distinct("lr.id").Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []StaffRequestRow
	if err := base.
		Select(`
			lr.id, lr.equipment_id, lr.requester_id, lr.quantity,
			lr.start_date, lr.end_date, lr.status, lr.created_at,
			lr.processed_by, lr.processed_at, lr.returned_at,
			e.name  AS equipment_name,
			u.email AS requester_email,
			u.name  AS requester_name,
			CASE WHEN lr.status = 'APPROVED' AND lr.end_date < NOW() THEN TRUE ELSE FALSE END AS overdue
		`).
		Order("lr.created_at DESC").
		Offset(offset).
		Limit(q.Size).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	return &PagedStaffRequests{Total: total, Items: rows}, nil
}
