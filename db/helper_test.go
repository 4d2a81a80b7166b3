package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"Gin_postgres_equipment_lending/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 需要真实 Postgres：设置 TEST_DB_HOST 等环境变量后运行，
// 否则这些用例会被跳过（行锁语义没法在内存里装出来）。
func testRepo(t *testing.T) *Repo {
	t.Helper()

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping Postgres-backed tests")
	}
	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host,
		get("TEST_DB_USER", "postgres"),
		get("TEST_DB_PASSWORD", "postgres"),
		get("TEST_DB_NAME", "lending_test"),
		get("TEST_DB_PORT", "5432"),
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))

	for _, tbl := range []string{
		models.RequestTable,
		models.EquipmentTable,
		"lend_users",
		"lend_invites",
		"lend_decision_log",
	} {
		require.NoError(t, gdb.Exec("TRUNCATE TABLE "+tbl).Error)
	}

	return NewRepo(gdb)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedUser(t *testing.T, r *Repo, role string) *models.User {
	t.Helper()
	u := &models.User{
		ID:    uuid.NewString(),
		Email: uuid.NewString() + "@example.com",
		Name:  "tester",
		Role:  role,
	}
	require.NoError(t, r.DB.Create(u).Error)
	return u
}

func seedEquipment(t *testing.T, r *Repo, name string, totalQty int) *models.Equipment {
	t.Helper()
	eq := &models.Equipment{ID: uuid.NewString(), Name: name, TotalQty: totalQty}
	require.NoError(t, r.CreateEquipment(context.Background(), eq))
	return eq
}

func seedRequest(t *testing.T, r *Repo, requesterID, equipmentID string, qty int, start, end time.Time) *models.LoanRequest {
	t.Helper()
	req, err := r.CreateLoanRequest(context.Background(), CreateLoanRequestInput{
		RequesterID: requesterID,
		EquipmentID: equipmentID,
		Quantity:    qty,
		StartDate:   start,
		EndDate:     end,
	})
	require.NoError(t, err)
	return req
}

func approve(t *testing.T, r *Repo, requestID, reviewerID string) *models.LoanRequest {
	t.Helper()
	req, err := r.ApproveRequest(context.Background(), requestID, reviewerID)
	require.NoError(t, err)
	return req
}
