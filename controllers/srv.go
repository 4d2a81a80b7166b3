// controllers/srv.go
package controllers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"Gin_postgres_equipment_lending/config"
	"Gin_postgres_equipment_lending/db"
	"Gin_postgres_equipment_lending/models"
	"Gin_postgres_equipment_lending/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Srv struct {
	Repo    *db.Repo
	AppSess *session.AppSessionStore
	Log     *zap.Logger
	Cfg     config.Config
}

func GetSrv(repo *db.Repo, appSess *session.AppSessionStore, logger *zap.Logger, cfg config.Config) *Srv {
	return &Srv{
		Repo:    repo,
		AppSess: appSess,
		Log:     logger,
		Cfg:     cfg,
	}
}

// --- helpers ---

func newToken() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// issueToken 登录成功：落库 token + 建 Redis 会话 + 触发登录快照
func (s *Srv) issueToken(ctx context.Context, u *models.User, ip, ua string) (string, error) {
	if err := s.Repo.TouchUserLogin(ctx, u.ID, ip, ua); err != nil {
		s.Log.Warn("touch login failed", zap.String("userID", u.ID), zap.Error(err))
	}
	token := newToken()
	if err := s.Repo.SetUserToken(ctx, u.ID, token); err != nil {
		return "", err
	}
	if err := s.AppSess.Create(ctx, token, u.ID, u.Role); err != nil {
		return "", err
	}
	return token, nil
}

// actor 从鉴权中间件放进 Context 的字段取操作者
func actor(c *gin.Context) (id, email, role string) {
	if v, ok := c.Get("userID"); ok {
		id, _ = v.(string)
	}
	if v, ok := c.Get("userEmail"); ok {
		email, _ = v.(string)
	}
	if v, ok := c.Get("userRole"); ok {
		role, _ = v.(string)
	}
	return
}

// parseDate 接受 2006-01-02，兼容 RFC3339，统一成 UTC 零点
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// statusFor 仓库层哨兵错误 → HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrInvalidInput), errors.Is(err, db.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrInsufficientCapacity):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
