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

func TestDocumentHandler_CreateUploadURL(t *testing.T) {
	store := new(MockStorage)
	h := handlers.NewDocumentHandler(store, nil)
	clientID := utils.NewSixID().String()
	r := newEngine(clientID, models.ActorClient)
	r.POST("/v1/uploads", h.CreateUploadURL)

	store.On("GeneratePresignedPutURL", mock.Anything, clientID, "brief.pdf", "application/pdf").
		Return("https://s3/put", "submissions/"+clientID+"/x_brief.pdf", nil)

	w, resp := doJSON(t, r, http.MethodPost, "/v1/uploads", map[string]string{"filename": "brief.pdf", "contentType": "application/pdf"})
	assert.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "https://s3/put", data["url"])

	w, _ = doJSON(t, r, http.MethodPost, "/v1/uploads", map[string]string{"filename": "brief.pdf"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertExpectations(t)
}

func TestDocumentHandler_InvoiceDocumentScopedToClient(t *testing.T) {
	invoices := new(MockInvoiceService)
	h := handlers.NewDocumentHandler(nil, invoices)
	clientID := utils.NewSixID()
	invoiceID := utils.NewSixID()

	invoices.On("DocumentLink", mock.Anything, invoiceID, &clientID).Return(nil, fmt.Errorf("invoice: %w", apperrors.ErrNotFound))
	invoices.On("DocumentLink", mock.Anything, invoiceID, (*utils.SixID)(nil)).Return(&services.DocumentRef{Key: "k", URL: "https://s3/get"}, nil)

	r := newEngine(clientID.String(), models.ActorClient)
	r.GET("/v1/invoices/:id/document", h.GetInvoiceDocument)
	w, _ := doJSON(t, r, http.MethodGet, "/v1/invoices/"+invoiceID.String()+"/document", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	r = newEngine("admin-1", models.ActorAdmin)
	r.GET("/v1/invoices/:id/document", h.GetInvoiceDocument)
	w, resp := doJSON(t, r, http.MethodGet, "/v1/invoices/"+invoiceID.String()+"/document", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://s3/get", resp["data"].(map[string]interface{})["url"])
	invoices.AssertExpectations(t)
}
