package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/config"
	"github.com/mpiyush15/pixels-official-sub001/internal/invoicedoc"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/storage"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// DocumentRef locates a stored invoice document.
type DocumentRef struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// OverdueReminder is an overdue invoice whose reminder has been claimed for sending.
type OverdueReminder struct {
	Invoice models.Invoice
	Client  models.Client
}

// IInvoiceService renders invoice documents and hands out links to them.
type IInvoiceService interface {
	// CreateAndUpload renders the invoice, stores it and records the key and link on the invoice.
	CreateAndUpload(ctx context.Context, invoiceID utils.SixID) (*DocumentRef, error)
	// DocumentLink returns a fresh download link, rendering the document first if it was never stored.
	// A non-nil clientID restricts access to that client's invoices.
	DocumentLink(ctx context.Context, invoiceID utils.SixID, clientID *utils.SixID) (*DocumentRef, error)
	// InvoiceWithClient returns the invoice and its client, for composing emails.
	InvoiceWithClient(ctx context.Context, invoiceID utils.SixID) (*models.Invoice, *models.Client, error)
	// MarkOverdue moves sent invoices past their due date to overdue and returns how many moved.
	MarkOverdue(ctx context.Context) (int64, error)
	// ClaimOverdueReminders flags up to limit overdue invoices as notified and returns them.
	// An invoice is claimed at most once.
	ClaimOverdueReminders(ctx context.Context, limit int) ([]OverdueReminder, error)
	// ReleaseOverdueReminder clears the notified flag so the next run retries the reminder.
	ReleaseOverdueReminder(ctx context.Context, invoiceID utils.SixID) error
}

type invoiceService struct {
	db       *mongo.Database
	cfg      *config.Config
	storage  storage.IS3Storage
	settings ISettingsService
	now      func() time.Time
}

func NewInvoiceService(database *mongo.Database, cfg *config.Config, store storage.IS3Storage, settings ISettingsService) IInvoiceService {
	return &invoiceService{
		db:       database,
		cfg:      cfg,
		storage:  store,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *invoiceService) InvoiceWithClient(ctx context.Context, invoiceID utils.SixID) (*models.Invoice, *models.Client, error) {
	var inv models.Invoice
	if err := s.db.Collection(invoicesCollection).FindOne(ctx, bson.M{"_id": invoiceID}).Decode(&inv); err != nil {
		return nil, nil, notFoundOr("find invoice", err)
	}
	var client models.Client
	if err := s.db.Collection(clientsCollection).FindOne(ctx, bson.M{"_id": inv.ClientID}).Decode(&client); err != nil {
		return nil, nil, notFoundOr("find client", err)
	}
	return &inv, &client, nil
}

func (s *invoiceService) render(ctx context.Context, inv *models.Invoice, client *models.Client) ([]byte, error) {
	biz, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return invoicedoc.Generate(invoicedoc.Document{
		Invoice: *inv,
		From: invoicedoc.Party{
			Name:    biz.Name,
			Address: biz.Address,
			Email:   biz.Email,
			Phone:   biz.Phone,
			TaxID:   biz.TaxID,
		},
		To: invoicedoc.Party{
			Name:    client.Name,
			Company: client.Company,
			Address: client.Address,
			Email:   client.Email,
			Phone:   client.Phone,
		},
		Currency: inv.CurrencyCode,
	})
}

func (s *invoiceService) CreateAndUpload(ctx context.Context, invoiceID utils.SixID) (*DocumentRef, error) {
	inv, client, err := s.InvoiceWithClient(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.upload(ctx, inv, client)
}

func (s *invoiceService) upload(ctx context.Context, inv *models.Invoice, client *models.Client) (*DocumentRef, error) {
	body, err := s.render(ctx, inv, client)
	if err != nil {
		return nil, internalErr("render invoice", err)
	}
	key := storage.InvoiceDocumentKey(inv.ClientID.String(), inv.InvoiceNumber)
	if err := s.storage.PutObject(ctx, key, "text/html; charset=utf-8", body); err != nil {
		return nil, internalErr("upload invoice document", err)
	}
	url, err := s.storage.PresignGetURL(ctx, key, s.cfg.InvoiceDocumentLinkTTL)
	if err != nil {
		return nil, internalErr("sign invoice document link", err)
	}
	_, err = s.db.Collection(invoicesCollection).UpdateOne(ctx,
		bson.M{"_id": inv.ID},
		bson.M{"$set": bson.M{"document_key": key, "document_url": url}},
	)
	if err != nil {
		return nil, internalErr("record invoice document", err)
	}
	slog.InfoContext(ctx, "invoice document stored", "invoice_number", inv.InvoiceNumber, "key", key)
	return &DocumentRef{Key: key, URL: url}, nil
}

func (s *invoiceService) DocumentLink(ctx context.Context, invoiceID utils.SixID, clientID *utils.SixID) (*DocumentRef, error) {
	inv, client, err := s.InvoiceWithClient(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if clientID != nil && *clientID != inv.ClientID {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrNotFound)
	}
	if inv.DocumentKey == "" {
		return s.upload(ctx, inv, client)
	}
	url, err := s.storage.PresignGetURL(ctx, inv.DocumentKey, s.cfg.InvoiceDocumentLinkTTL)
	if err != nil {
		return nil, internalErr("sign invoice document link", err)
	}
	return &DocumentRef{Key: inv.DocumentKey, URL: url}, nil
}

func (s *invoiceService) MarkOverdue(ctx context.Context) (int64, error) {
	now := s.now()
	r, err := s.db.Collection(invoicesCollection).UpdateMany(ctx,
		bson.M{"status": models.InvoiceStatusSent, "due_date": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": models.InvoiceStatusOverdue, "overdue_at": now}},
	)
	if err != nil {
		return 0, internalErr("mark invoices overdue", err)
	}
	if r.ModifiedCount > 0 {
		slog.InfoContext(ctx, "invoices marked overdue", "count", r.ModifiedCount)
	}
	return r.ModifiedCount, nil
}

func (s *invoiceService) ClaimOverdueReminders(ctx context.Context, limit int) ([]OverdueReminder, error) {
	invoices := s.db.Collection(invoicesCollection)
	pending := bson.M{"status": models.InvoiceStatusOverdue, "overdue_notified": bson.M{"$ne": true}}
	found, err := findAll[models.Invoice](ctx, invoices, pending,
		options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}

	out := make([]OverdueReminder, 0, len(found))
	for _, inv := range found {
		// another worker may have claimed it, or it was paid in the meantime
		r, err := invoices.UpdateOne(ctx,
			bson.M{"_id": inv.ID, "status": models.InvoiceStatusOverdue, "overdue_notified": bson.M{"$ne": true}},
			bson.M{"$set": bson.M{"overdue_notified": true}},
		)
		if err != nil {
			return out, internalErr("claim overdue reminder", err)
		}
		if r.ModifiedCount == 0 {
			continue
		}
		var client models.Client
		if err := s.db.Collection(clientsCollection).FindOne(ctx, bson.M{"_id": inv.ClientID}).Decode(&client); err != nil {
			slog.WarnContext(ctx, "skipping overdue reminder, client not found",
				"invoice_number", inv.InvoiceNumber, "client_id", inv.ClientID, "error", err)
			continue
		}
		inv.OverdueNotified = true
		out = append(out, OverdueReminder{Invoice: inv, Client: client})
	}
	return out, nil
}

func (s *invoiceService) ReleaseOverdueReminder(ctx context.Context, invoiceID utils.SixID) error {
	_, err := s.db.Collection(invoicesCollection).UpdateOne(ctx,
		bson.M{"_id": invoiceID},
		bson.M{"$unset": bson.M{"overdue_notified": ""}},
	)
	if err != nil {
		return internalErr("release overdue reminder", err)
	}
	return nil
}
