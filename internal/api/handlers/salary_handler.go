package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/services"
)

// SalaryHandler serves the admin salary ledger.
type SalaryHandler struct {
	salaryService services.ISalaryService
}

func NewSalaryHandler(salaryService services.ISalaryService) *SalaryHandler {
	return &SalaryHandler{salaryService: salaryService}
}

// CreateSalary handles POST /v1/salaries.
func (h *SalaryHandler) CreateSalary(c *gin.Context) {
	var in services.SalaryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	salary, err := h.salaryService.CreateSalary(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": salary})
}

// ListSalaries handles GET /v1/salaries?employeeId=&month=&year=&status=
func (h *SalaryHandler) ListSalaries(c *gin.Context) {
	filter := services.SalaryFilter{
		EmployeeID: c.Query("employeeId"),
		Month:      c.Query("month"),
		Status:     models.SalaryStatus(c.Query("status")),
	}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			badRequest(c, "Invalid year")
			return
		}
		filter.Year = year
	}
	salaries, err := h.salaryService.ListSalaries(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if salaries == nil {
		salaries = []models.Salary{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": salaries})
}

// GetSalary handles GET /v1/salaries/:id.
func (h *SalaryHandler) GetSalary(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	salary, err := h.salaryService.GetSalary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": salary})
}

// UpdateSalary handles PATCH /v1/salaries/:id. Unknown fields are rejected.
func (h *SalaryHandler) UpdateSalary(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch services.SalaryPatch
	if err := decodeStrict(c, &patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, err := h.salaryService.UpdateSalary(c.Request.Context(), id, patch); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteSalary handles DELETE /v1/salaries/:id.
func (h *SalaryHandler) DeleteSalary(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.salaryService.DeleteSalary(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
