package models

import "time"

// DecisionLog 审批动作的审计记录（approve / reject / mark-returned）
type DecisionLog struct {
	ID         string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID  string    `gorm:"type:uuid;index;not null" json:"requestId"`
	ActorID    string    `gorm:"type:uuid" json:"actorId"`
	ActorEmail string    `json:"actorEmail"`
	Action     string    `gorm:"size:20;not null" json:"action"`
	Note       *string   `json:"note,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (DecisionLog) TableName() string { return "lend_decision_log" }
