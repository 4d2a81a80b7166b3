package db

import (
	"context"
	"testing"
	"time"

	"Gin_postgres_equipment_lending/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FindOrCreateUserByEmail(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	u, err := r.FindOrCreateUserByEmail(ctx, "Alice@Example.COM", "", uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "alice", u.Name) // 没给名字就用邮箱前缀
	assert.Equal(t, models.RoleStudent, u.Role)

	// 再来一次是查出来，不是新建
	again, err := r.FindOrCreateUserByEmail(ctx, "alice@example.com", "", uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
}

func Test_SetUserRole(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, models.RoleStudent)

	require.NoError(t, r.SetUserRole(ctx, u.ID, models.RoleStaff))
	got, err := r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, got.Role)

	assert.ErrorIs(t, r.SetUserRole(ctx, u.ID, "ROOT"), ErrInvalidInput)
	assert.ErrorIs(t, r.SetUserRole(ctx, uuid.NewString(), models.RoleStaff), ErrNotFound)
}

func Test_Invites_RoleAppliedOnce(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	inv, err := r.CreateInvite(ctx, "Staffer@Example.com", models.RoleStaff, "tok-1", time.Now().Add(24*time.Hour), "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "staffer@example.com", inv.Email)

	found, err := r.FindPendingInviteByEmail(ctx, "staffer@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, found.Role)

	require.NoError(t, r.MarkInviteUsed(ctx, found.Token))
	_, err = r.FindPendingInviteByEmail(ctx, "staffer@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	// 二次核销报错
	assert.Error(t, r.MarkInviteUsed(ctx, found.Token))

	// 过期邀请不生效
	_, err = r.CreateInvite(ctx, "late@example.com", models.RoleStaff, "tok-2", time.Now().Add(-time.Hour), "admin@example.com")
	require.NoError(t, err)
	_, err = r.FindPendingInviteByEmail(ctx, "late@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.CreateInvite(ctx, "x@example.com", "ROOT", "tok-3", time.Now().Add(time.Hour), "admin@example.com")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func Test_DecisionLog(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)
	eq := seedEquipment(t, r, "Projector", 5)

	a := seedRequest(t, r, student.ID, eq.ID, 1, date(2024, 3, 1), date(2024, 3, 2))
	approve(t, r, a.ID, staff.ID)

	_, err := r.LogDecision(ctx, a.ID, staff.ID, staff.Email, "approve", nil)
	require.NoError(t, err)
	_, err = r.LogDecision(ctx, a.ID, staff.ID, staff.Email, "mark-returned", nil)
	require.NoError(t, err)

	logs, err := r.ListDecisions(ctx, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	// 最新在前
	assert.Equal(t, "mark-returned", logs[0].Action)
	assert.Equal(t, staff.Email, logs[0].ActorEmail)
}
