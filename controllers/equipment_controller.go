// controllers/equipment_controller.go
package controllers

import (
	"net/http"

	"Gin_postgres_equipment_lending/app"
	"Gin_postgres_equipment_lending/db"
	"Gin_postgres_equipment_lending/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EquipmentController struct{ *Srv }

func NewEquipmentController(s *Srv) *EquipmentController { return &EquipmentController{Srv: s} }

// 管理员录入设备
func (ec *EquipmentController) Create(c *gin.Context) {
	var in struct {
		Name      string `json:"name" binding:"required"`
		Category  string `json:"category"`
		Condition string `json:"condition"`
		TotalQty  *int   `json:"totalQty" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "name and totalQty required"})
		return
	}
	eq := &models.Equipment{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Category:  in.Category,
		Condition: in.Condition,
		TotalQty:  *in.TotalQty,
	}
	if err := ec.Repo.CreateEquipment(c.Request.Context(), eq); err != nil {
		c.JSON(statusFor(err), app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, eq)
}

// PUT /api/equipment/:id
func (ec *EquipmentController) Update(c *gin.Context) {
	id := c.Param("id")
	var in struct {
		Name      *string `json:"name"`
		Category  *string `json:"category"`
		Condition *string `json:"condition"`
		TotalQty  *int    `json:"totalQty"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	eq, err := ec.Repo.UpdateEquipment(c.Request.Context(), id, db.UpdateEquipmentInput{
		Name:      in.Name,
		Category:  in.Category,
		Condition: in.Condition,
		TotalQty:  in.TotalQty,
	})
	if err != nil {
		c.JSON(statusFor(err), app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, eq)
}

// DELETE /api/equipment/:id
func (ec *EquipmentController) Delete(c *gin.Context) {
	if err := ec.Repo.DeleteEquipment(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(statusFor(err), app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/equipment?q=&category=
func (ec *EquipmentController) List(c *gin.Context) {
	items, err := ec.Repo.ListEquipment(c.Request.Context(), c.Query("q"), c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"items": items})
}

// GET /api/equipment/:id
func (ec *EquipmentController) Get(c *gin.Context) {
	eq, err := ec.Repo.FindEquipmentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, eq)
}

// GET /api/equipment/:id/availability?start=2024-03-01&end=2024-03-10
// 展示用，不能当审批依据：真正的检查在审批事务里再做一遍。
func (ec *EquipmentController) Availability(c *gin.Context) {
	start, err := parseDate(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "bad start date"})
		return
	}
	end, err := parseDate(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "bad end date"})
		return
	}
	if start.After(end) {
		c.JSON(http.StatusBadRequest, app.H{"error": "start must be <= end"})
		return
	}
	avail, err := ec.Repo.AvailableQuantity(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"available": avail})
}
