package routes

import (
	"Gin_postgres_equipment_lending/app"
	"Gin_postgres_equipment_lending/controllers"
	"Gin_postgres_equipment_lending/db"
	"Gin_postgres_equipment_lending/models"
	"time"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	repo := db.NewRepo(a.DB)
	s := controllers.GetSrv(repo, a.AppSessions(), a.Log, a.Config)
	authCtl := controllers.GetAuthController(s)
	uc := controllers.GetUserController(s)
	eqCtl := controllers.NewEquipmentController(s)
	reqCtl := controllers.NewRequestController(s)
	inviteCtl := controllers.GetInviteController(s)

	// 复用的中间件
	authMW := app.AuthRequired(a.AppSessions(), repo)
	staffMW := app.RequireRole(models.RoleStaff, models.RoleAdmin)
	adminMW := app.RequireRole(models.RoleAdmin)
	seenMW := app.TouchLastSeen(repo, a.RDB, 5*time.Minute)

	// ------------------------------
	// 登录（邮箱即账号）
	// ------------------------------
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authCtl.Login)
		auth.POST("/signup", authCtl.Signup)
	}
	authed := auth.Group("", authMW, seenMW)
	{
		authed.GET("/whoami", authCtl.Whoami)
		authed.POST("/logout", authCtl.Logout)
	}

	// ------------------------------
	// 设备目录（浏览公开，改动仅管理员）
	// ------------------------------
	equipment := r.Group("/api/equipment")
	{
		equipment.GET("", eqCtl.List) // ?q=&category=
		equipment.GET("/:id", eqCtl.Get)
	}
	equipmentAuthed := equipment.Group("", authMW, seenMW)
	{
		// 展示用的可借数量，审批时会在事务里重新算
		equipmentAuthed.GET("/:id/availability", eqCtl.Availability)
	}
	equipmentAdmin := equipment.Group("", authMW, adminMW)
	{
		equipmentAdmin.POST("", eqCtl.Create)
		equipmentAdmin.PUT("/:id", eqCtl.Update)
		equipmentAdmin.DELETE("/:id", eqCtl.Delete)
	}

	// ------------------------------
	// 借用申请
	// ------------------------------
	requests := r.Group("/api/requests", authMW, seenMW)
	{
		requests.POST("", reqCtl.Create)
		requests.GET("", reqCtl.List) // ?status=
	}
	review := requests.Group("", staffMW)
	{
		review.GET("/overview", reqCtl.Overview) // ?q=&status=&page=&size=
		review.PUT("/:id/approve", reqCtl.Approve)
		review.PUT("/:id/reject", reqCtl.Reject)
		review.PUT("/:id/mark-returned", reqCtl.MarkReturned)
	}
	audit := requests.Group("", adminMW)
	{
		audit.GET("/:id/decisions", reqCtl.Decisions)
	}

	// ------------------------------
	// 用户管理 + 邀请（仅管理员）
	// ------------------------------
	users := r.Group("/api/users", authMW, adminMW)
	{
		users.GET("", uc.ListUsers) // ?q=&page=&size=
		users.GET("/:id", uc.GetUser)
		users.PUT("/:id/role", uc.SetRole)
		users.DELETE("/:id", uc.DeleteUser)
	}
	admin := r.Group("/admin", authMW, adminMW)
	{
		admin.POST("/invites", inviteCtl.CreateInvite)
	}
}
