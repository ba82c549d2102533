package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) GeneratePresignedPutURL(ctx context.Context, ownerID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, ownerID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockStorage) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	args := m.Called(ctx, key, contentType, body)
	return args.Error(0)
}

func (m *mockStorage) PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func TestInvoiceService_CreateAndUpload(t *testing.T) {
	database := setupLedgerDB(t, "invoice_document")
	cfg := testConfig()
	store := new(mockStorage)
	svc := NewInvoiceService(database, cfg, store, NewSettingsService(database, cfg, nil))
	ctx := context.Background()

	client := &models.Client{Base: models.NewBase(), Name: "Asha Rao", Email: "asha@example.com", Timestamps: models.NewTimestamps(time.Now())}
	insertDoc(t, database, clientsCollection, client)
	now := time.Now().UTC()
	inv := &models.Invoice{
		Base: models.NewBase(), InvoiceNumber: "INV-0003", ClientID: client.ID,
		Items:    []models.InvoiceLineItem{{Description: "Site - Build", Quantity: 1, Rate: 40000, Amount: 40000}},
		Subtotal: 40000, Total: 40000, Status: models.InvoiceStatusPaid, IssueDate: now, PaidAt: &now, CreatedAt: now,
	}
	insertDoc(t, database, invoicesCollection, inv)

	key := "invoices/" + client.ID.String() + "/INV-0003.html"
	store.On("PutObject", mock.Anything, key, "text/html; charset=utf-8", mock.MatchedBy(func(b []byte) bool {
		return strings.Contains(string(b), "INV-0003") && strings.Contains(string(b), "Asha Rao")
	})).Return(nil).Once()
	store.On("PresignGetURL", mock.Anything, key, cfg.InvoiceDocumentLinkTTL).Return("https://s3.example/signed", nil)

	ref, err := svc.CreateAndUpload(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, key, ref.Key)
	assert.Equal(t, "https://s3.example/signed", ref.URL)
	assert.EqualValues(t, 1, countDocs(t, database, invoicesCollection, bson.M{"_id": inv.ID, "document_key": key}))

	// already stored: only a new link is signed
	ref, err = svc.DocumentLink(ctx, inv.ID, &client.ID)
	require.NoError(t, err)
	assert.Equal(t, key, ref.Key)

	stranger := utils.NewSixID()
	_, err = svc.DocumentLink(ctx, inv.ID, &stranger)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.CreateAndUpload(ctx, utils.NewSixID())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	store.AssertExpectations(t)
}

func TestInvoiceService_UploadFailureIsInternal(t *testing.T) {
	database := setupLedgerDB(t, "invoice_document_fail")
	cfg := testConfig()
	store := new(mockStorage)
	svc := NewInvoiceService(database, cfg, store, NewSettingsService(database, cfg, nil))

	client := &models.Client{Base: models.NewBase(), Name: "Asha Rao"}
	insertDoc(t, database, clientsCollection, client)
	inv := &models.Invoice{Base: models.NewBase(), InvoiceNumber: "INV-0004", ClientID: client.ID, Status: models.InvoiceStatusSent, CreatedAt: time.Now()}
	insertDoc(t, database, invoicesCollection, inv)

	store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
	_, err := svc.CreateAndUpload(context.Background(), inv.ID)
	assert.ErrorIs(t, err, apperrors.ErrInternal)
	assert.EqualValues(t, 0, countDocs(t, database, invoicesCollection, bson.M{"document_key": bson.M{"$exists": true}}))
}

func TestInvoiceService_OverdueReminders(t *testing.T) {
	database := setupLedgerDB(t, "invoice_overdue")
	cfg := testConfig()
	svc := NewInvoiceService(database, cfg, new(mockStorage), testSettings(database))
	ctx := context.Background()

	client := &models.Client{Base: models.NewBase(), Name: "Asha Rao", Email: "asha@example.com", Timestamps: models.NewTimestamps(time.Now())}
	insertDoc(t, database, clientsCollection, client)
	now := time.Now().UTC()
	seed := func(number string, status models.InvoiceStatus, due time.Time) *models.Invoice {
		inv := &models.Invoice{
			Base: models.NewBase(), InvoiceNumber: number, ClientID: client.ID,
			Subtotal: 5000, Total: 5000, Status: status, IssueDate: now.AddDate(0, 0, -14), DueDate: due, CreatedAt: now,
		}
		insertDoc(t, database, invoicesCollection, inv)
		return inv
	}
	late := seed("INV-0001", models.InvoiceStatusSent, now.AddDate(0, 0, -2))
	notDue := seed("INV-0002", models.InvoiceStatusSent, now.AddDate(0, 0, 3))
	paid := seed("INV-0003", models.InvoiceStatusPaid, now.AddDate(0, 0, -5))

	moved, err := svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, moved)
	assert.EqualValues(t, 1, countDocs(t, database, invoicesCollection, bson.M{"_id": late.ID, "status": models.InvoiceStatusOverdue, "overdue_at": bson.M{"$exists": true}}))
	assert.EqualValues(t, 1, countDocs(t, database, invoicesCollection, bson.M{"_id": notDue.ID, "status": models.InvoiceStatusSent}))
	assert.EqualValues(t, 1, countDocs(t, database, invoicesCollection, bson.M{"_id": paid.ID, "status": models.InvoiceStatusPaid}))

	moved, err = svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, moved)

	claimed, err := svc.ClaimOverdueReminders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, late.ID, claimed[0].Invoice.ID)
	assert.Equal(t, "asha@example.com", claimed[0].Client.Email)

	again, err := svc.ClaimOverdueReminders(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	// a released reminder is claimed on the next run
	require.NoError(t, svc.ReleaseOverdueReminder(ctx, late.ID))
	claimed, err = svc.ClaimOverdueReminders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, late.ID, claimed[0].Invoice.ID)
}
