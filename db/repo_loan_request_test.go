package db

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"Gin_postgres_equipment_lending/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CreateLoanRequest_Validation(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, r, models.RoleStudent)
	eq := seedEquipment(t, r, "Projector", 5)

	_, err := r.CreateLoanRequest(ctx, CreateLoanRequestInput{
		RequesterID: student.ID, EquipmentID: eq.ID,
		Quantity: 0, StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 10),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// startDate > endDate 在创建时就拒掉，到不了审批
	_, err = r.CreateLoanRequest(ctx, CreateLoanRequestInput{
		RequesterID: student.ID, EquipmentID: eq.ID,
		Quantity: 1, StartDate: date(2024, 3, 10), EndDate: date(2024, 3, 1),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.CreateLoanRequest(ctx, CreateLoanRequestInput{
		RequesterID: student.ID, EquipmentID: uuid.NewString(),
		Quantity: 1, StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 10),
	})
	assert.ErrorIs(t, err, ErrNotFound)

	req := seedRequest(t, r, student.ID, eq.ID, 3, date(2024, 3, 1), date(2024, 3, 10))
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Nil(t, req.ProcessedAt)
}

func Test_CreateLoanRequest_NoCapacityCheckAtCreation(t *testing.T) {
	r := testRepo(t)
	student := seedUser(t, r, models.RoleStudent)
	eq := seedEquipment(t, r, "Camera", 2)

	// PENDING 可以超卖，闸口在审批
	for i := 0; i < 5; i++ {
		seedRequest(t, r, student.ID, eq.ID, 2, date(2024, 5, 1), date(2024, 5, 10))
	}
}

func Test_AvailableQuantity(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)
	eq := seedEquipment(t, r, "Tripod", 5)

	avail, err := r.AvailableQuantity(ctx, eq.ID, date(2024, 3, 1), date(2024, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(5), avail)

	// 设备不存在 ⇒ 0，不是错误
	avail, err = r.AvailableQuantity(ctx, uuid.NewString(), date(2024, 3, 1), date(2024, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(0), avail)

	a := seedRequest(t, r, student.ID, eq.ID, 3, date(2024, 3, 1), date(2024, 3, 10))
	approve(t, r, a.ID, staff.ID)

	// 重叠窗口内占用 3
	avail, err = r.AvailableQuantity(ctx, eq.ID, date(2024, 3, 5), date(2024, 3, 15))
	require.NoError(t, err)
	assert.Equal(t, int64(2), avail)

	// 不相交窗口满额
	avail, err = r.AvailableQuantity(ctx, eq.ID, date(2024, 3, 11), date(2024, 3, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(5), avail)

	// 共享边界日算重叠
	avail, err = r.AvailableQuantity(ctx, eq.ID, date(2024, 3, 10), date(2024, 3, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), avail)

	// PENDING 不占容量
	seedRequest(t, r, student.ID, eq.ID, 5, date(2024, 3, 1), date(2024, 3, 10))
	avail, err = r.AvailableQuantity(ctx, eq.ID, date(2024, 3, 1), date(2024, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), avail)
}

// 规格场景：totalQty=5，A qty3 3/1-3/10 已批；B qty3 3/5-3/15 → 可用 2 < 3，审批失败
func Test_Approve_OverlapExceedsCapacity(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)
	eq := seedEquipment(t, r, "Projector", 5)

	a := seedRequest(t, r, student.ID, eq.ID, 3, date(2024, 3, 1), date(2024, 3, 10))
	approve(t, r, a.ID, staff.ID)

	b := seedRequest(t, r, student.ID, eq.ID, 3, date(2024, 3, 5), date(2024, 3, 15))
	_, err := r.ApproveRequest(ctx, b.ID, staff.ID)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)

	// 失败的审批不留痕：B 原样停在 PENDING
	var got models.LoanRequest
	require.NoError(t, r.DB.First(&got, "id = ?", b.ID).Error)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.ProcessedBy)
	assert.Nil(t, got.ProcessedAt)
}

// 规格场景：C qty3 3/11-3/20 与 A 不相交 → 批过；A+C 合计 6 > 5 也没问题，因为没有同一时刻的重叠
func Test_Approve_DisjointWindowSucceeds(t *testing.T) {
	r := testRepo(t)
	student := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)
	eq := seedEquipment(t, r, "Projector", 5)

	a := seedRequest(t, r, student.ID, eq.ID, 3, date(2024, 3, 1), date(2024, 3, 10))
	approve(t, r, a.ID, staff.ID)

	c := seedRequest(t, r, student.ID, eq.ID, 3, date(2024, 3, 11), date(2024, 3, 20))
	got := approve(t, r, c.ID, staff.ID)
	assert.Equal(t, models.StatusApproved, got.Status)
	require.NotNil(t, got.ProcessedBy)
	assert.Equal(t, staff.ID, *got.ProcessedBy)
	assert.NotNil(t, got.ProcessedAt)
}

func Test_Approve_TwiceFailsInvalidState(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)
	eq := seedEquipment(t, r, "Drill", 5)

	a := seedRequest(t, r, student.ID, eq.ID, 1, date(2024, 4, 1), date(2024, 4, 2))
	first := approve(t, r, a.ID, staff.ID)

	_, err := r.ApproveRequest(ctx, a.ID, staff.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// 第一次的结果不受影响
	var got models.LoanRequest
	require.NoError(t, r.DB.First(&got, "id = ?", a.ID).Error)
	assert.Equal(t, models.StatusApproved, got.Status)
	require.NotNil(t, got.ProcessedAt)
	assert.WithinDuration(t, *first.ProcessedAt, *got.ProcessedAt, time.Second)
}

func Test_Approve_NotFound(t *testing.T) {
	r := testRepo(t)
	staff := seedUser(t, r, models.RoleStaff)
	_, err := r.ApproveRequest(context.Background(), uuid.NewString(), staff.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// 设备被删后遗留的 PENDING 申请：可用量按 0 算，审批必然批不过
func Test_Approve_DeletedEquipment(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)
	eq := seedEquipment(t, r, "Ladder", 5)

	a := seedRequest(t, r, student.ID, eq.ID, 1, date(2024, 3, 1), date(2024, 3, 10))
	require.NoError(t, r.DeleteEquipment(ctx, eq.ID))

	_, err := r.ApproveRequest(ctx, a.ID, staff.ID)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
}

func Test_Reject(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)
	eq := seedEquipment(t, r, "Mixer", 1)

	a := seedRequest(t, r, student.ID, eq.ID, 1, date(2024, 3, 1), date(2024, 3, 10))
	got, err := r.RejectRequest(ctx, a.ID, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	require.NotNil(t, got.ProcessedBy)
	assert.Equal(t, staff.ID, *got.ProcessedBy)

	// REJECTED 是终态
	_, err = r.RejectRequest(ctx, a.ID, staff.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = r.ApproveRequest(ctx, a.ID, staff.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// 拒绝从不占容量：即使拒掉的数量很大，别人照批
	big := seedRequest(t, r, student.ID, eq.ID, 1, date(2024, 3, 1), date(2024, 3, 10))
	approve(t, r, big.ID, staff.ID)
}

func Test_MarkReturned_ReleasesCapacity(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)
	eq := seedEquipment(t, r, "Projector", 5)

	a := seedRequest(t, r, student.ID, eq.ID, 3, date(2024, 3, 1), date(2024, 3, 10))
	approve(t, r, a.ID, staff.ID)

	// 满额申请此时批不过
	d := seedRequest(t, r, student.ID, eq.ID, 5, date(2024, 3, 1), date(2024, 3, 10))
	_, err := r.ApproveRequest(ctx, d.ID, staff.ID)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)

	// 归还 A 之后同一窗口立即放出容量
	got, err := r.MarkReturned(ctx, a.ID, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, got.Status)
	assert.NotNil(t, got.ReturnedAt)

	approve(t, r, d.ID, staff.ID)
}

func Test_MarkReturned_InvalidFromPending(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)
	eq := seedEquipment(t, r, "Projector", 5)

	a := seedRequest(t, r, student.ID, eq.ID, 1, date(2024, 3, 1), date(2024, 3, 10))
	_, err := r.MarkReturned(ctx, a.ID, staff.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// RETURNED 也是终态
	approve(t, r, a.ID, staff.ID)
	_, err = r.MarkReturned(ctx, a.ID, staff.ID)
	require.NoError(t, err)
	_, err = r.MarkReturned(ctx, a.ID, staff.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

// 关键性质：并发审批两个重叠且合计超容量的申请，只能成一个
func Test_Approve_ConcurrentRace(t *testing.T) {
	r := testRepo(t)
	student := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)
	eq := seedEquipment(t, r, "Projector", 5)

	a := seedRequest(t, r, student.ID, eq.ID, 3, date(2024, 3, 1), date(2024, 3, 10))
	b := seedRequest(t, r, student.ID, eq.ID, 3, date(2024, 3, 5), date(2024, 3, 15))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = r.ApproveRequest(context.Background(), id, staff.ID)
		}(i, id)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientCapacity):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok, "exactly one approval must win")
	assert.Equal(t, 1, insufficient, "the loser must fail with insufficient capacity")

	var reserved int64
	require.NoError(t, r.DB.Model(&models.LoanRequest{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("equipment_id = ? AND status = ?", eq.ID, models.StatusApproved).
		Scan(&reserved).Error)
	assert.LessOrEqual(t, reserved, int64(eq.TotalQty))
}

// 容量不变式：随机创建/审批序列后，任一天的 APPROVED 占用之和都不超过库存
func Test_CapacityInvariant_RandomizedSequence(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)

	const totalQty = 4
	eq := seedEquipment(t, r, "Speaker", totalQty)
	base := date(2024, 6, 1)

	for i := 0; i < 60; i++ {
		startOff := rand.IntN(28)
		length := rand.IntN(10)
		qty := 1 + rand.IntN(3)
		req := seedRequest(t, r, student.ID, eq.ID, qty,
			base.AddDate(0, 0, startOff),
			base.AddDate(0, 0, startOff+length))
		if _, err := r.ApproveRequest(ctx, req.ID, staff.ID); err != nil {
			require.ErrorIs(t, err, ErrInsufficientCapacity)
		}
	}

	var approved []models.LoanRequest
	require.NoError(t, r.DB.Where("equipment_id = ? AND status = ?", eq.ID, models.StatusApproved).
		Find(&approved).Error)

	// 逐天核对不变式
	for off := 0; off < 45; off++ {
		day := base.AddDate(0, 0, off)
		sum := 0
		for _, req := range approved {
			if models.Overlaps(req.StartDate, req.EndDate, day, day) {
				sum += req.Quantity
			}
		}
		require.LessOrEqual(t, sum, totalQty, "oversubscribed on %s", day.Format("2006-01-02"))
	}
}

func Test_ListLoanRequests_Visibility(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	alice := seedUser(t, r, models.RoleStudent)
	bob := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)
	eq := seedEquipment(t, r, "Projector", 5)

	seedRequest(t, r, alice.ID, eq.ID, 1, date(2024, 3, 1), date(2024, 3, 2))
	seedRequest(t, r, bob.ID, eq.ID, 1, date(2024, 3, 1), date(2024, 3, 2))
	seedRequest(t, r, bob.ID, eq.ID, 1, date(2024, 4, 1), date(2024, 4, 2))

	// 学生只见自己的
	mine, err := r.ListLoanRequests(ctx, alice, "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.Equal(t, alice.ID, mine[0].RequesterID)

	// STAFF 看全部，最新在前
	all, err := r.ListLoanRequests(ctx, staff, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i-1].CreatedAt.Before(all[i].CreatedAt))
	}

	// 状态过滤
	pending, err := r.ListLoanRequests(ctx, staff, models.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	_, err = r.ListLoanRequests(ctx, staff, "NOPE")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func Test_ListRequestsWithDetails(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	student := seedUser(t, r, models.RoleStudent)
	staff := seedUser(t, r, models.RoleStaff)
	eq := seedEquipment(t, r, "Projector", 5)

	// 已过 end_date 仍未归还 → overdue
	past := seedRequest(t, r, student.ID, eq.ID, 1, date(2020, 1, 1), date(2020, 1, 5))
	approve(t, r, past.ID, staff.ID)
	seedRequest(t, r, student.ID, eq.ID, 1, date(2099, 1, 1), date(2099, 1, 5))

	res, err := r.ListRequestsWithDetails(ctx, StaffRequestsQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	require.Len(t, res.Items, 2)
	for _, row := range res.Items {
		require.NotNil(t, row.EquipmentName)
		assert.Equal(t, "Projector", *row.EquipmentName)
		require.NotNil(t, row.RequesterEmail)
	}

	overdue, err := r.ListRequestsWithDetails(ctx, StaffRequestsQuery{Status: "overdue"})
	require.NoError(t, err)
	require.Len(t, overdue.Items, 1)
	assert.Equal(t, past.ID, overdue.Items[0].ID)
	assert.True(t, overdue.Items[0].Overdue)

	_, err = r.ListRequestsWithDetails(ctx, StaffRequestsQuery{Status: "NOPE"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
