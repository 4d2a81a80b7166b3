// controllers/request_controller.go
package controllers

import (
	"context"
	"net/http"
	"strconv"

	"Gin_postgres_equipment_lending/app"
	"Gin_postgres_equipment_lending/db"
	"Gin_postgres_equipment_lending/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RequestController struct{ *Srv }

func NewRequestController(s *Srv) *RequestController { return &RequestController{Srv: s} }

// POST /api/requests
func (rc *RequestController) Create(c *gin.Context) {
	var in struct {
		EquipmentID string `json:"equipmentId" binding:"required"`
		Quantity    int    `json:"quantity" binding:"required"`
		StartDate   string `json:"startDate" binding:"required"`
		EndDate     string `json:"endDate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "missing fields"})
		return
	}
	start, err := parseDate(in.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "bad startDate"})
		return
	}
	end, err := parseDate(in.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "bad endDate"})
		return
	}

	uid, _, _ := actor(c)
	req, err := rc.Repo.CreateLoanRequest(c.Request.Context(), db.CreateLoanRequestInput{
		RequesterID: uid,
		EquipmentID: in.EquipmentID,
		Quantity:    in.Quantity,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		c.JSON(statusFor(err), app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GET /api/requests?status=
func (rc *RequestController) List(c *gin.Context) {
	uid, _, role := actor(c)
	viewer := &models.User{ID: uid, Role: role}
	reqs, err := rc.Repo.ListLoanRequests(c.Request.Context(), viewer, c.Query("status"))
	if err != nil {
		c.JSON(statusFor(err), app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"items": reqs})
}

// GET /api/requests/overview?q=&status=&page=&size=  （审核页）
func (rc *RequestController) Overview(c *gin.Context) {
	q := db.StaffRequestsQuery{
		Q:      c.Query("q"),
		Status: c.Query("status"), // "", 状态值, "overdue"
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := rc.Repo.ListRequestsWithDetails(c.Request.Context(), q)
	if err != nil {
		c.JSON(statusFor(err), app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// PUT /api/requests/:id/approve
// 容量检查和状态翻转在同一个事务里，失败时申请原样留在 PENDING。
func (rc *RequestController) Approve(c *gin.Context) {
	rc.decide(c, "approve", rc.Repo.ApproveRequest)
}

// PUT /api/requests/:id/reject
func (rc *RequestController) Reject(c *gin.Context) {
	rc.decide(c, "reject", rc.Repo.RejectRequest)
}

// PUT /api/requests/:id/mark-returned
func (rc *RequestController) MarkReturned(c *gin.Context) {
	rc.decide(c, "mark-returned", rc.Repo.MarkReturned)
}

func (rc *RequestController) decide(c *gin.Context, action string, op func(ctx context.Context, requestID, reviewerID string) (*models.LoanRequest, error)) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "missing request id"})
		return
	}
	uid, email, _ := actor(c)

	req, err := op(c.Request.Context(), id, uid)
	if err != nil {
		c.JSON(statusFor(err), app.H{"error": err.Error()})
		return
	}

	// 审计日志失败不影响业务结果
	if _, err := rc.Repo.LogDecision(c.Request.Context(), req.ID, uid, email, action, nil); err != nil {
		rc.Log.Warn("decision log failed",
			zap.String("requestID", req.ID),
			zap.String("action", action),
			zap.Error(err))
	}

	c.JSON(http.StatusOK, req)
}

// GET /api/requests/:id/decisions  （管理员查审计记录）
func (rc *RequestController) Decisions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := rc.Repo.ListDecisions(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"items": logs})
}
