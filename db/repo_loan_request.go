package db

import (
	"context"
	"errors"
	"time"

	"Gin_postgres_equipment_lending/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrInvalidState         = errors.New("transition not allowed from current status")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInsufficientCapacity = errors.New("not enough units available for that date range")
)

// reservedQuantity 闭区间重叠的 APPROVED 占用量之和。
// 重叠判定：existing.start_date <= end AND existing.end_date >= start
func reservedQuantity(tx *gorm.DB, equipmentID string, start, end time.Time) (int64, error) {
	var reserved int64
	err := tx.Model(&models.LoanRequest{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("equipment_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			equipmentID, models.StatusApproved, end, start).
		Scan(&reserved).Error
	return reserved, err
}

// AvailableQuantity 展示用的可借数量，可能读到旧值，审批不以它为准。
// 设备不存在 ⇒ 0（没有设备就没有可用量，不报错）。
func (r *Repo) AvailableQuantity(ctx context.Context, equipmentID string, start, end time.Time) (int64, error) {
	tx := r.DB.WithContext(ctx)

	var eq models.Equipment
	if err := tx.First(&eq, "id = ?", equipmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	reserved, err := reservedQuantity(tx, equipmentID, start, end)
	if err != nil {
		return 0, err
	}
	return int64(eq.TotalQty) - reserved, nil
}

type CreateLoanRequestInput struct {
	RequesterID string
	EquipmentID string
	Quantity    int
	StartDate   time.Time
	EndDate     time.Time
}

// CreateLoanRequest 创建 PENDING 申请。这里故意不做容量检查：
// 多个 PENDING 可以超过库存，审批那一刻才是唯一的闸口。
func (r *Repo) CreateLoanRequest(ctx context.Context, in CreateLoanRequestInput) (*models.LoanRequest, error) {
	if in.Quantity < 1 || in.StartDate.After(in.EndDate) {
		return nil, ErrInvalidInput
	}
	if _, err := r.FindEquipmentByID(ctx, in.EquipmentID); err != nil {
		return nil, err
	}

	req := &models.LoanRequest{
		ID:          uuid.NewString(),
		RequesterID: in.RequesterID,
		EquipmentID: in.EquipmentID,
		Quantity:    in.Quantity,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      models.StatusPending,
	}
	if err := r.DB.WithContext(ctx).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// ApproveRequest 审批 = 原子操作：锁申请行 → 锁设备行 → 事务内重算占用 → 够则落批。
// 同一设备的并发审批在设备行锁上串行化，读-判-写不会交错。
func (r *Repo) ApproveRequest(ctx context.Context, requestID, reviewerID string) (*models.LoanRequest, error) {
	var out models.LoanRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.LoanRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&req, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if req.Status != models.StatusPending {
			return ErrInvalidState
		}

		// 锁住该设备行：所有针对它的审批都排队过这里
		var eq models.Equipment
		total := int64(0)
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&eq, "id = ?", req.EquipmentID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// 设备已被删：可用量按 0 算，下面必然批不过
		} else {
			total = int64(eq.TotalQty)
		}

		// 持锁后重算，不能用事务外的快照
		reserved, err := reservedQuantity(tx, req.EquipmentID, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		if total-reserved < int64(req.Quantity) {
			return ErrInsufficientCapacity
		}

		now := time.Now().UTC()
		req.Status = models.StatusApproved
		req.ProcessedBy = &reviewerID
		req.ProcessedAt = &now
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RejectRequest 无条件拒绝 PENDING 申请，不涉及容量
func (r *Repo) RejectRequest(ctx context.Context, requestID, reviewerID string) (*models.LoanRequest, error) {
	return r.transition(ctx, requestID, models.StatusPending, func(req *models.LoanRequest, now time.Time) {
		req.Status = models.StatusRejected
		req.ProcessedBy = &reviewerID
		req.ProcessedAt = &now
	})
}

// MarkReturned APPROVED → RETURNED，唯一提前释放占用的途径。
// 过了 end_date 没归还的申请会一直占着容量，直到有人标记归还。
func (r *Repo) MarkReturned(ctx context.Context, requestID, reviewerID string) (*models.LoanRequest, error) {
	return r.transition(ctx, requestID, models.StatusApproved, func(req *models.LoanRequest, now time.Time) {
		req.Status = models.StatusReturned
		req.ReturnedAt = &now
	})
}

func (r *Repo) transition(ctx context.Context, requestID, fromStatus string, apply func(*models.LoanRequest, time.Time)) (*models.LoanRequest, error) {
	var out models.LoanRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.LoanRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&req, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if req.Status != fromStatus {
			return ErrInvalidState
		}
		apply(&req, time.Now().UTC())
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListLoanRequests 学生只看自己的，STAFF/ADMIN 看全部，最新在前
func (r *Repo) ListLoanRequests(ctx context.Context, viewer *models.User, status string) ([]models.LoanRequest, error) {
	q := r.DB.WithContext(ctx).Model(&models.LoanRequest{}).Order("created_at DESC")
	if viewer.Role == models.RoleStudent {
		q = q.Where("requester_id = ?", viewer.ID)
	}
	if status != "" {
		if !models.ValidStatus(status) {
			return nil, ErrInvalidInput
		}
		q = q.Where("status = ?", status)
	}
	var reqs []models.LoanRequest
	if err := q.Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}
