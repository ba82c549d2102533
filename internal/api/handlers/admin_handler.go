package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/services"
)

// AdminHandler serves agency maintenance endpoints.
type AdminHandler struct {
	reconcileService     services.IReconcileService
	settingsService      services.ISettingsService
	emailTemplateService services.IEmailTemplateService
}

func NewAdminHandler(reconcileService services.IReconcileService, settingsService services.ISettingsService, emailTemplateService services.IEmailTemplateService) *AdminHandler {
	return &AdminHandler{
		reconcileService:     reconcileService,
		settingsService:      settingsService,
		emailTemplateService: emailTemplateService,
	}
}

// Reconcile handles POST /v1/admin/reconcile, running a pass synchronously.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	report, err := h.reconcileService.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
}

// GetSettings handles GET /v1/admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": settings})
}

// UpdateSettings handles PATCH /v1/admin/settings.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var patch services.SettingsPatch
	if err := decodeStrict(c, &patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	settings, err := h.settingsService.Update(c.Request.Context(), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": settings})
}

// GetEmailTemplate handles GET /v1/admin/email-templates/:templateId?locale=
func (h *AdminHandler) GetEmailTemplate(c *gin.Context) {
	tmpl, err := h.emailTemplateService.GetTemplate(c.Request.Context(), c.Param("templateId"), c.Query("locale"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": tmpl})
}

// SaveEmailTemplate handles PUT /v1/admin/email-templates/:templateId.
func (h *AdminHandler) SaveEmailTemplate(c *gin.Context) {
	var body struct {
		Locale  string `json:"locale"`
		Subject string `json:"subject" binding:"required"`
		Body    string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "subject and body are required")
		return
	}
	tmpl := &models.EmailTemplate{
		TemplateID: c.Param("templateId"),
		Locale:     body.Locale,
		Subject:    body.Subject,
		Body:       body.Body,
	}
	if err := h.emailTemplateService.SaveTemplate(c.Request.Context(), tmpl); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteEmailTemplate handles DELETE /v1/admin/email-templates/:templateId?locale=
// The built-in template applies again afterwards.
func (h *AdminHandler) DeleteEmailTemplate(c *gin.Context) {
	if err := h.emailTemplateService.DeleteTemplate(c.Request.Context(), c.Param("templateId"), c.Query("locale")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
