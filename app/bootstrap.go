// app/bootstrap.go
package app

import (
	"context"
	"strings"

	"Gin_postgres_equipment_lending/config"
	"Gin_postgres_equipment_lending/db"
	"Gin_postgres_equipment_lending/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BootstrapAdmins ADMIN_EMAILS 里的账号启动时建好/提为管理员，
// 避免没有管理员没人能管目录的死局。
func BootstrapAdmins(ctx context.Context, cfg config.Config, repo *db.Repo, logger *zap.Logger) {
	for _, email := range cfg.AdminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		u, err := repo.FindOrCreateUserByEmail(ctx, email, "", uuid.NewString())
		if err != nil {
			logger.Warn("bootstrap admin failed", zap.String("email", email), zap.Error(err))
			continue
		}
		if u.Role == models.RoleAdmin {
			continue
		}
		if err := repo.SetUserRole(ctx, u.ID, models.RoleAdmin); err != nil {
			logger.Warn("bootstrap promote failed", zap.String("email", email), zap.Error(err))
			continue
		}
		logger.Info("bootstrapped admin", zap.String("email", email))
	}
}
