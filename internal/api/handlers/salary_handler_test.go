package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mpiyush15/pixels-official-sub001/internal/api/handlers"
	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/services"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

func salaryEngine(svc *MockSalaryService) *handlers.SalaryHandler {
	return handlers.NewSalaryHandler(svc)
}

func TestSalaryHandler_UpdateSalary(t *testing.T) {
	svc := new(MockSalaryService)
	h := salaryEngine(svc)
	r := newEngine("admin-1", models.ActorAdmin)
	r.PATCH("/v1/salaries/:id", h.UpdateSalary)

	id := utils.NewSixID()
	paid := models.SalaryStatusPaid
	svc.On("UpdateSalary", mock.Anything, id, mock.MatchedBy(func(p services.SalaryPatch) bool {
		return p.Status != nil && *p.Status == paid && p.Amount == nil
	})).Return(&models.Salary{Status: paid}, nil)

	w, resp := doJSON(t, r, http.MethodPatch, "/v1/salaries/"+id.String(), map[string]interface{}{"status": "paid"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"success": true}, resp)
	svc.AssertExpectations(t)
}

func TestSalaryHandler_UpdateRejectsUnknownFields(t *testing.T) {
	svc := new(MockSalaryService)
	h := salaryEngine(svc)
	r := newEngine("admin-1", models.ActorAdmin)
	r.PATCH("/v1/salaries/:id", h.UpdateSalary)

	id := utils.NewSixID()
	w, _ := doJSON(t, r, http.MethodPatch, "/v1/salaries/"+id.String(), map[string]interface{}{"payeeRole": "owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPatch, "/v1/salaries/bad-id", map[string]interface{}{"status": "paid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertNotCalled(t, "UpdateSalary", mock.Anything, mock.Anything, mock.Anything)
}

func TestSalaryHandler_CreateListGetDelete(t *testing.T) {
	svc := new(MockSalaryService)
	h := salaryEngine(svc)
	r := newEngine("admin-1", models.ActorAdmin)
	r.POST("/v1/salaries", h.CreateSalary)
	r.GET("/v1/salaries", h.ListSalaries)
	r.GET("/v1/salaries/:id", h.GetSalary)
	r.DELETE("/v1/salaries/:id", h.DeleteSalary)

	id := utils.NewSixID()
	created := &models.Salary{EmployeeName: "Meera Iyer", NetAmount: 50000}
	created.ID = id
	svc.On("CreateSalary", mock.Anything, mock.MatchedBy(func(in services.SalaryInput) bool {
		return in.EmployeeName == "Meera Iyer" && in.Amount == 50000
	})).Return(created, nil)
	svc.On("ListSalaries", mock.Anything, services.SalaryFilter{Month: "November", Year: 2024}).Return(nil, nil)
	svc.On("GetSalary", mock.Anything, id).Return(nil, fmt.Errorf("find salary: %w", apperrors.ErrNotFound))
	svc.On("DeleteSalary", mock.Anything, id).Return(nil)

	w, resp := doJSON(t, r, http.MethodPost, "/v1/salaries", map[string]interface{}{"employeeName": "Meera Iyer", "amount": 50000})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.NotNil(t, resp["data"])

	w, resp = doJSON(t, r, http.MethodGet, "/v1/salaries?month=November&year=2024", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, resp["data"])

	w, _ = doJSON(t, r, http.MethodGet, "/v1/salaries?year=twenty", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/v1/salaries/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = doJSON(t, r, http.MethodDelete, "/v1/salaries/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	svc.AssertExpectations(t)
}
