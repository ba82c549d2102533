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
	"github.com/mpiyush15/pixels-official-sub001/internal/tasks"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

func TestPaymentHandler_ProcessPhasePayment(t *testing.T) {
	paymentSvc := new(MockPaymentService)
	dispatcher := new(MockDispatcher)
	h := handlers.NewPaymentHandler(paymentSvc, dispatcher)

	clientID, projectID := utils.NewSixID(), utils.NewSixID()
	r := newEngine(clientID.String(), models.ActorClient)
	r.POST("/v1/payments/process", h.ProcessPayment)

	invoiceID, paymentID := utils.NewSixID(), utils.NewSixID()
	paymentSvc.On("ProcessPayment", mock.Anything, services.PaymentRequest{
		Kind:          services.PaymentKindPhase,
		ProjectID:     projectID,
		PhaseID:       "ph-design",
		ClientID:      clientID,
		Amount:        15000,
		PaymentMethod: "Online",
	}).Return(&services.PaymentResult{InvoiceID: invoiceID, InvoiceNumber: "INV-0001", PaymentID: paymentID}, nil)
	dispatcher.On("RenderInvoice", mock.Anything, tasks.InvoiceRenderPayload{
		InvoiceID:      invoiceID.String(),
		NotifyTemplate: models.TemplatePaymentConfirmation,
	}).Return(nil)

	w, resp := doJSON(t, r, http.MethodPost, "/v1/payments/process", map[string]interface{}{
		"type": "phase", "projectId": projectID.String(), "phaseId": "ph-design", "amount": 15000, "paymentMethod": "Online",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, invoiceID.String(), resp["invoiceId"])
	assert.Equal(t, "INV-0001", resp["invoiceNumber"])
	paymentSvc.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestPaymentHandler_EnqueueFailureDoesNotFailPayment(t *testing.T) {
	paymentSvc := new(MockPaymentService)
	dispatcher := new(MockDispatcher)
	h := handlers.NewPaymentHandler(paymentSvc, dispatcher)
	clientID := utils.NewSixID()
	r := newEngine(clientID.String(), models.ActorClient)
	r.POST("/v1/payments/process", h.ProcessPayment)

	paymentSvc.On("ProcessPayment", mock.Anything, mock.Anything).Return(&services.PaymentResult{InvoiceID: utils.NewSixID()}, nil)
	dispatcher.On("RenderInvoice", mock.Anything, mock.Anything).Return(assert.AnError)

	w, resp := doJSON(t, r, http.MethodPost, "/v1/payments/process", map[string]interface{}{
		"type": "invoice", "invoiceId": utils.NewSixID().String(), "amount": 500,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
}

func TestPaymentHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"not found", fmt.Errorf("find project: %w", apperrors.ErrNotFound), http.StatusNotFound, "Not found"},
		{"already paid", fmt.Errorf("claim phase: %w", apperrors.ErrAlreadyPaid), http.StatusBadRequest, "Already paid"},
		{"bad amount", fmt.Errorf("amount must equal 15000.00: %w", apperrors.ErrBadRequest), http.StatusBadRequest, "amount must equal 15000.00: bad request"},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{"internal", fmt.Errorf("insert invoice: %w", apperrors.ErrInternal), http.StatusInternalServerError, "Something went wrong. Please try again."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			paymentSvc := new(MockPaymentService)
			h := handlers.NewPaymentHandler(paymentSvc, nil)
			r := newEngine(utils.NewSixID().String(), models.ActorClient)
			r.POST("/v1/payments/process", h.ProcessPayment)
			paymentSvc.On("ProcessPayment", mock.Anything, mock.Anything).Return(nil, tc.err)

			w, resp := doJSON(t, r, http.MethodPost, "/v1/payments/process", map[string]interface{}{
				"type": "video", "projectId": utils.NewSixID().String(), "videoId": "v-main", "amount": 12000,
			})
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, tc.msg, resp["error"])
		})
	}
}

func TestPaymentHandler_RejectsBeforeService(t *testing.T) {
	paymentSvc := new(MockPaymentService)
	h := handlers.NewPaymentHandler(paymentSvc, nil)

	// session id that is not a client id
	r := newEngine("not-an-id", models.ActorClient)
	r.POST("/v1/payments/process", h.ProcessPayment)
	w, _ := doJSON(t, r, http.MethodPost, "/v1/payments/process", map[string]interface{}{"type": "invoice", "amount": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = newEngine(utils.NewSixID().String(), models.ActorClient)
	r.POST("/v1/payments/process", h.ProcessPayment)
	w, _ = doJSON(t, r, http.MethodPost, "/v1/payments/process", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/v1/payments/process", map[string]interface{}{"type": "phase", "projectId": "zzz", "phaseId": "ph-1", "amount": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	paymentSvc.AssertNotCalled(t, "ProcessPayment", mock.Anything, mock.Anything)
}
