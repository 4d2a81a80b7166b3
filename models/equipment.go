package models

import "time"

const EquipmentTable = "lend_equipment"

// Equipment TotalQty 是库存总量，不是“剩余”计数；
// 占用量随时按 APPROVED 请求区间求和得出。
type Equipment struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null;index" json:"name"`
	Category  string    `gorm:"size:100;index" json:"category,omitempty"`
	Condition string    `gorm:"size:100" json:"condition,omitempty"`
	TotalQty  int       `gorm:"not null;default:0" json:"totalQty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Equipment) TableName() string { return EquipmentTable }
