package db

import (
	"Gin_postgres_equipment_lending/models"
	"context"
	"fmt"
)

func (r *Repo) LogDecision(ctx context.Context, requestID, actorID, actorEmail, action string, note *string) (*models.DecisionLog, error) {
	log := &models.DecisionLog{
		RequestID:  requestID,
		ActorID:    actorID,
		ActorEmail: actorEmail,
		Action:     action,
		Note:       note,
	}
	if err := r.DB.WithContext(ctx).Create(log).Error; err != nil {
		return nil, fmt.Errorf("insert decision log: %w", err)
	}
	return log, nil
}

func (r *Repo) ListDecisions(ctx context.Context, requestID string, limit int) ([]models.DecisionLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := r.DB.WithContext(ctx).Model(&models.DecisionLog{}).Order("created_at DESC").Limit(limit)
	if requestID != "" {
		q = q.Where("request_id = ?", requestID)
	}
	var logs []models.DecisionLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
