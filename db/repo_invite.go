package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"Gin_postgres_equipment_lending/models"

	"gorm.io/gorm"
)

func (r *Repo) CreateInvite(ctx context.Context, email, role, token string, expiresAt time.Time, createdBy string) (*models.Invite, error) {
	if !models.ValidRole(role) {
		return nil, ErrInvalidInput
	}
	inv := &models.Invite{
		Email:     strings.ToLower(email),
		Role:      role,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedBy: createdBy,
	}
	return inv, r.DB.WithContext(ctx).Create(inv).Error
}

// FindPendingInviteByEmail 未使用且未过期的最近一条
func (r *Repo) FindPendingInviteByEmail(ctx context.Context, email string) (*models.Invite, error) {
	var inv models.Invite
	err := r.DB.WithContext(ctx).
		Where("email = ? AND used_at IS NULL AND expires_at > NOW()", strings.ToLower(email)).
		Order("created_at DESC").
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *Repo) MarkInviteUsed(ctx context.Context, token string) error {
	now := time.Now()
	res := r.DB.WithContext(ctx).Model(&models.Invite{}).
		Where("token = ? AND used_at IS NULL", token).
		Update("used_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("invite already used or not found")
	}
	return nil
}
