package db

import (
	"context"
	"errors"
	"strings"

	"Gin_postgres_equipment_lending/models"

	"gorm.io/gorm"
)

// Equipment catalog

func (r *Repo) CreateEquipment(ctx context.Context, eq *models.Equipment) error {
	if strings.TrimSpace(eq.Name) == "" || eq.TotalQty < 0 {
		return ErrInvalidInput
	}
	return r.DB.WithContext(ctx).Create(eq).Error
}

type UpdateEquipmentInput struct {
	Name      *string
	Category  *string
	Condition *string
	TotalQty  *int
}

func (r *Repo) UpdateEquipment(ctx context.Context, id string, in UpdateEquipmentInput) (*models.Equipment, error) {
	updates := map[string]any{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, ErrInvalidInput
		}
		updates["name"] = *in.Name
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.Condition != nil {
		updates["condition"] = *in.Condition
	}
	if in.TotalQty != nil {
		if *in.TotalQty < 0 {
			return nil, ErrInvalidInput
		}
		updates["total_qty"] = *in.TotalQty
	}

	if len(updates) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Equipment{}).
			Where("id = ?", id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.FindEquipmentByID(ctx, id)
}

// DeleteEquipment 无条件删除；遗留的 APPROVED 申请变成死历史，
// 可用量查询对不存在的设备一律返回 0，不会因此超卖。
func (r *Repo) DeleteEquipment(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&models.Equipment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) FindEquipmentByID(ctx context.Context, id string) (*models.Equipment, error) {
	var eq models.Equipment
	if err := r.DB.WithContext(ctx).First(&eq, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &eq, nil
}

// ListEquipment 名称不区分大小写模糊匹配，分类精确匹配，按名称升序
func (r *Repo) ListEquipment(ctx context.Context, q, category string) ([]models.Equipment, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Equipment{})
	if q = strings.TrimSpace(q); q != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if category != "" {
		tx = tx.Where("category = ?", category)
	}
	var items []models.Equipment
	err := tx.Order("name ASC").Find(&items).Error
	return items, err
}
