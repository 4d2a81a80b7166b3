package controllers

import (
	"errors"
	"net/http"
	"strings"

	"Gin_postgres_equipment_lending/app"
	"Gin_postgres_equipment_lending/db"
	"Gin_postgres_equipment_lending/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthController struct{ *Srv }

func GetAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// POST /api/auth/login
// 只凭邮箱：存在就登录，不存在就建 STUDENT 账号再登录。
// 若该邮箱有未使用的角色邀请，先套用角色再签发 token。
func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "email required"})
		return
	}

	ctx := c.Request.Context()
	u, err := ac.Repo.FindOrCreateUserByEmail(ctx, in.Email, "", uuid.NewString())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	if inv, err := ac.Repo.FindPendingInviteByEmail(ctx, u.Email); err == nil {
		if inv.Role != u.Role {
			if err := ac.Repo.SetUserRole(ctx, u.ID, inv.Role); err == nil {
				u.Role = inv.Role
			}
		}
		if err := ac.Repo.MarkInviteUsed(ctx, inv.Token); err != nil {
			ac.Log.Warn("mark invite used failed", zap.String("email", u.Email), zap.Error(err))
		}
	} else if !errors.Is(err, db.ErrNotFound) {
		ac.Log.Warn("invite lookup failed", zap.String("email", u.Email), zap.Error(err))
	}

	token, err := ac.issueToken(ctx, u, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"token": token, "user": u})
}

// POST /api/auth/signup
func (ac *AuthController) Signup(c *gin.Context) {
	var in struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "name and email required"})
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := ac.Repo.FindUserByEmail(ctx, email); err == nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "email already registered"})
		return
	}

	u, err := ac.Repo.FindOrCreateUserByEmail(ctx, email, in.Name, uuid.NewString())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	if in.Role != "" && in.Role != models.RoleStudent {
		if !models.ValidRole(in.Role) {
			c.JSON(http.StatusBadRequest, app.H{"error": "invalid role"})
			return
		}
		if err := ac.Repo.SetUserRole(ctx, u.ID, in.Role); err == nil {
			u.Role = in.Role
		}
	}

	token, err := ac.issueToken(ctx, u, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"token": token, "user": u})
}

// GET /api/auth/whoami
func (ac *AuthController) Whoami(c *gin.Context) {
	uid, _, _ := actor(c)
	u, err := ac.Repo.FindUserByID(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token != "" {
		_ = ac.AppSess.Delete(c.Request.Context(), token)
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
