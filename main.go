package main

import (
	"Gin_postgres_equipment_lending/app"
	"Gin_postgres_equipment_lending/config"
	"Gin_postgres_equipment_lending/db"
	"Gin_postgres_equipment_lending/routes"
	"context"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	application := app.MustNew()
	defer application.Close()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	routes.RegisterRoutes(r, application)

	// ADMIN_EMAILS 启动时提为管理员
	repo := db.NewRepo(application.DB)
	app.BootstrapAdmins(context.Background(), application.Config, repo, application.Log)

	port := application.Config.Port
	application.Log.Info("listening", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		application.Log.Fatal("server exited", zap.Error(err))
	}
}
