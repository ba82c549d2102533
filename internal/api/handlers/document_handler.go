package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mpiyush15/pixels-official-sub001/internal/api/middleware"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/services"
	"github.com/mpiyush15/pixels-official-sub001/internal/storage"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// DocumentHandler hands out presigned links for uploads and invoice downloads.
type DocumentHandler struct {
	storage        storage.IS3Storage
	invoiceService services.IInvoiceService
}

func NewDocumentHandler(store storage.IS3Storage, invoiceService services.IInvoiceService) *DocumentHandler {
	return &DocumentHandler{storage: store, invoiceService: invoiceService}
}

type uploadRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"contentType" binding:"required,max=100"`
}

// CreateUploadURL handles POST /v1/uploads.
func (h *DocumentHandler) CreateUploadURL(c *gin.Context) {
	var body uploadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "filename and contentType are required")
		return
	}
	url, key, err := h.storage.GeneratePresignedPutURL(c.Request.Context(), middleware.ActorID(c), body.Filename, body.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"url": url, "key": key}})
}

// GetInvoiceDocument handles GET /v1/invoices/:id/document. Clients only see their own invoices.
func (h *DocumentHandler) GetInvoiceDocument(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var owner *utils.SixID
	if middleware.ActorKind(c) == models.ActorClient {
		clientID, ok := actorSixID(c)
		if !ok {
			return
		}
		owner = &clientID
	}
	ref, err := h.invoiceService.DocumentLink(c.Request.Context(), id, owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ref})
}
