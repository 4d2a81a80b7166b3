package db

import (
	"Gin_postgres_equipment_lending/models"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	err = Migrate(DB)
	if err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Equipment{}, &models.LoanRequest{}, &models.Invite{}, &models.DecisionLog{}); err != nil {
		return err
	}

	// 审批时按设备+状态+区间求和，给这条扫描建复合索引
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_equipment_status_window
	  ON %s (equipment_id, status, start_date, end_date);
	`, models.RequestTable, models.RequestTable)).Error; err != nil {
		return err
	}

	// 目录按名称模糊搜索
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_name_lower
	  ON %s (LOWER(name));
	`, models.EquipmentTable, models.EquipmentTable)).Error; err != nil {
		return err
	}

	return nil
}
