package models

import "time"

// Invite 管理员给某个邮箱预授角色，首次登录时生效
type Invite struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"index;size:255;not null" json:"email"`
	Role      string     `gorm:"size:20;not null;default:'STAFF'" json:"role"`
	Token     string     `gorm:"uniqueIndex;size:64;not null" json:"token"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedBy string     `gorm:"size:255" json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Invite) TableName() string { return "lend_invites" }
