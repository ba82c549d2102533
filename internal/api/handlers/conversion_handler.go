package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mpiyush15/pixels-official-sub001/internal/api/middleware"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/services"
	"github.com/mpiyush15/pixels-official-sub001/internal/tasks"
)

// ConversionHandler turns leads into clients and approved submissions into projects.
type ConversionHandler struct {
	leadService       services.ILeadService
	submissionService services.ISubmissionService
	dispatcher        tasks.Dispatcher
}

func NewConversionHandler(leadService services.ILeadService, submissionService services.ISubmissionService, dispatcher tasks.Dispatcher) *ConversionHandler {
	return &ConversionHandler{leadService: leadService, submissionService: submissionService, dispatcher: dispatcher}
}

// ConvertLead handles POST /v1/leads/:id/convert.
func (h *ConversionHandler) ConvertLead(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	client, err := h.leadService.ConvertLead(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.dispatcher != nil {
		err := h.dispatcher.SendEmail(c.Request.Context(), tasks.EmailTaskPayload{
			To:         client.Email,
			TemplateID: models.TemplateWelcome,
			Data:       map[string]interface{}{"name": client.Name},
		})
		if err != nil {
			middleware.GetLoggerFromContext(c).Error("failed to enqueue welcome email", "client_id", client.ID.String(), "error", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": client})
}

// ConvertSubmission handles POST /v1/submissions/:id/convert.
func (h *ConversionHandler) ConvertSubmission(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in services.ConvertSubmissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := h.submissionService.ConvertSubmission(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}

	if res.DepositInvoice != nil && h.dispatcher != nil {
		err := h.dispatcher.RenderInvoice(c.Request.Context(), tasks.InvoiceRenderPayload{
			InvoiceID:      res.DepositInvoice.ID.String(),
			NotifyTemplate: models.TemplateInvoice,
		})
		if err != nil {
			middleware.GetLoggerFromContext(c).Error("failed to enqueue deposit invoice render", "invoice_id", res.DepositInvoice.ID.String(), "error", err)
		}
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": res})
}
