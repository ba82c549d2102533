package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mpiyush15/pixels-official-sub001/internal/api/middleware"
	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/services"
	"github.com/mpiyush15/pixels-official-sub001/internal/tasks"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// PaymentHandler serves the client portal's pay-now action.
type PaymentHandler struct {
	paymentService services.IPaymentService
	dispatcher     tasks.Dispatcher
}

func NewPaymentHandler(paymentService services.IPaymentService, dispatcher tasks.Dispatcher) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, dispatcher: dispatcher}
}

type processPaymentRequest struct {
	Type          string  `json:"type"`
	InvoiceID     string  `json:"invoiceId"`
	ProjectID     string  `json:"projectId"`
	PhaseID       string  `json:"phaseId"`
	VideoID       string  `json:"videoId"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
}

func (r processPaymentRequest) toPaymentRequest(clientID utils.SixID) (services.PaymentRequest, error) {
	req := services.PaymentRequest{
		Kind:          services.PaymentKind(r.Type),
		PhaseID:       r.PhaseID,
		VideoID:       r.VideoID,
		ClientID:      clientID,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
	}
	var err error
	switch req.Kind {
	case services.PaymentKindInvoice:
		if req.InvoiceID, err = utils.ParseSixID(r.InvoiceID); err != nil {
			return req, fmt.Errorf("invalid invoiceId: %w", apperrors.ErrBadRequest)
		}
	case services.PaymentKindPhase, services.PaymentKindVideo:
		if req.ProjectID, err = utils.ParseSixID(r.ProjectID); err != nil {
			return req, fmt.Errorf("invalid projectId: %w", apperrors.ErrBadRequest)
		}
	}
	return req, nil
}

// ProcessPayment handles POST /v1/payments/process.
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	clientID, ok := actorSixID(c)
	if !ok {
		return
	}
	var body processPaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	req, err := body.toPaymentRequest(clientID)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.paymentService.ProcessPayment(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	// The payment is settled; a failed enqueue only delays the document and email.
	if h.dispatcher != nil {
		err := h.dispatcher.RenderInvoice(c.Request.Context(), tasks.InvoiceRenderPayload{
			InvoiceID:      res.InvoiceID.String(),
			NotifyTemplate: models.TemplatePaymentConfirmation,
		})
		if err != nil {
			middleware.GetLoggerFromContext(c).Error("failed to enqueue invoice render", "invoice_id", res.InvoiceID.String(), "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"invoiceId":     res.InvoiceID,
		"invoiceNumber": res.InvoiceNumber,
		"paymentId":     res.PaymentID,
	})
}
