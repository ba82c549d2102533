package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/config"
	"github.com/mpiyush15/pixels-official-sub001/internal/db"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// PaymentKind selects what a payment settles.
type PaymentKind string

const (
	PaymentKindInvoice PaymentKind = "invoice"
	PaymentKindPhase   PaymentKind = "phase"
	PaymentKindVideo   PaymentKind = "video"
)

// PaymentRequest targets an invoice, or a (project, phase) or (project, video) pair.
type PaymentRequest struct {
	Kind          PaymentKind
	InvoiceID     utils.SixID
	ProjectID     utils.SixID
	PhaseID       string
	VideoID       string
	ClientID      utils.SixID
	Amount        float64
	PaymentMethod string
}

type PaymentResult struct {
	InvoiceID     utils.SixID `json:"invoiceId"`
	InvoiceNumber string      `json:"invoiceNumber"`
	PaymentID     utils.SixID `json:"paymentId"`
	Amount        float64     `json:"amount"`
	// InvoiceCreated is false when an existing invoice was settled.
	InvoiceCreated bool `json:"invoiceCreated"`
}

// IPaymentService settles invoices, phases and videos.
type IPaymentService interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}

type paymentService struct {
	db       *mongo.Database
	cfg      *config.Config
	tx       db.TxRunner
	settings ISettingsService
	now      func() time.Time
}

func NewPaymentService(database *mongo.Database, cfg *config.Config, tx db.TxRunner, settings ISettingsService) IPaymentService {
	return &paymentService{
		db:       database,
		cfg:      cfg,
		tx:       tx,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// ProcessPayment records a completed payment. For phases and videos it also creates the paid
// invoice and flips the unit to paid through a conditional write, so a second payment for the
// same unit fails with ErrAlreadyPaid instead of double-invoicing.
func (s *paymentService) ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", apperrors.ErrBadRequest)
	}
	if req.ClientID.IsZero() {
		return nil, apperrors.ErrUnauthorized
	}

	var (
		res *PaymentResult
		err error
	)
	switch req.Kind {
	case PaymentKindInvoice:
		res, err = s.payInvoice(ctx, req)
	case PaymentKindPhase, PaymentKindVideo:
		res, err = s.payUnit(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported payment type %q: %w", req.Kind, apperrors.ErrBadRequest)
	}
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "payment processed",
		"kind", req.Kind,
		"client_id", req.ClientID.String(),
		"invoice_number", res.InvoiceNumber,
		"amount", res.Amount,
	)
	return res, nil
}

func sameAmount(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
}

func (s *paymentService) payInvoice(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	invoices := s.db.Collection(invoicesCollection)

	var inv models.Invoice
	err := invoices.FindOne(ctx, bson.M{"_id": req.InvoiceID, "client_id": req.ClientID}).Decode(&inv)
	if err != nil {
		return nil, notFoundOr("find invoice", err)
	}
	switch inv.Status {
	case models.InvoiceStatusPaid:
		return nil, fmt.Errorf("invoice %s: %w", inv.InvoiceNumber, apperrors.ErrAlreadyPaid)
	case models.InvoiceStatusCancelled:
		return nil, fmt.Errorf("invoice %s is cancelled: %w", inv.InvoiceNumber, apperrors.ErrBadRequest)
	}
	if !sameAmount(req.Amount, inv.Total) {
		return nil, fmt.Errorf("amount %.2f does not match invoice total %.2f: %w", req.Amount, inv.Total, apperrors.ErrBadRequest)
	}

	now := s.now()
	payment := &models.Payment{
		Base:          models.NewBase(),
		InvoiceID:     inv.ID,
		ClientID:      req.ClientID,
		ProjectID:     inv.ProjectID,
		PhaseID:       inv.PhaseID,
		VideoID:       inv.VideoID,
		Amount:        inv.Total,
		PaymentMethod: req.PaymentMethod,
		PaymentDate:   now,
		Status:        models.PaymentStatusCompleted,
		CreatedAt:     now,
	}

	err = runSteps(ctx, s.tx,
		step{
			name: "mark invoice paid",
			apply: func(ctx context.Context) error {
				r, err := invoices.UpdateOne(ctx,
					bson.M{"_id": inv.ID, "client_id": req.ClientID, "status": bson.M{"$nin": bson.A{models.InvoiceStatusPaid, models.InvoiceStatusCancelled}}},
					bson.M{"$set": bson.M{"status": models.InvoiceStatusPaid, "paid_at": now}},
				)
				if err != nil {
					return internalErr("mark invoice paid", err)
				}
				if r.MatchedCount == 0 {
					return fmt.Errorf("invoice %s: %w", inv.InvoiceNumber, apperrors.ErrAlreadyPaid)
				}
				return nil
			},
			undo: func(ctx context.Context) error {
				_, err := invoices.UpdateOne(ctx,
					bson.M{"_id": inv.ID, "status": models.InvoiceStatusPaid, "paid_at": now},
					bson.M{"$set": bson.M{"status": inv.Status}, "$unset": bson.M{"paid_at": ""}},
				)
				return err
			},
		},
		step{
			name:  "insert payment",
			apply: s.insertPayment(payment),
		},
	)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		PaymentID:     payment.ID,
		Amount:        inv.Total,
	}, nil
}

// unitTarget abstracts over the phases and videos arrays of a project.
type unitTarget struct {
	field       string // "phases" or "videos"
	id          string
	name        string
	amount      float64
	paid        bool
	prevStatus  string
	unlockState string // status written on payment, empty to leave it untouched
}

func (s *paymentService) resolveUnit(project *models.Project, req PaymentRequest) (*unitTarget, error) {
	if req.Kind == PaymentKindPhase {
		if req.PhaseID == "" {
			return nil, fmt.Errorf("phaseId is required: %w", apperrors.ErrBadRequest)
		}
		ph := project.FindPhase(req.PhaseID)
		if ph == nil {
			return nil, fmt.Errorf("phase %s: %w", req.PhaseID, apperrors.ErrNotFound)
		}
		return &unitTarget{
			field:       "phases",
			id:          ph.ID,
			name:        ph.Name,
			amount:      ph.Amount,
			paid:        ph.PaymentStatus == models.PaymentStatePaid,
			prevStatus:  string(ph.Status),
			unlockState: string(models.PhaseStatusUnlocked),
		}, nil
	}

	if req.VideoID == "" {
		return nil, fmt.Errorf("videoId is required: %w", apperrors.ErrBadRequest)
	}
	v := project.FindVideo(req.VideoID)
	if v == nil {
		return nil, fmt.Errorf("video %s: %w", req.VideoID, apperrors.ErrNotFound)
	}
	return &unitTarget{
		field:      "videos",
		id:         v.ID,
		name:       v.Title,
		amount:     v.Amount,
		paid:       v.PaymentStatus == models.PaymentStatePaid,
		prevStatus: string(v.Status),
	}, nil
}

func (s *paymentService) payUnit(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	projects := s.db.Collection(projectsCollection)

	var project models.Project
	if err := projects.FindOne(ctx, bson.M{"_id": req.ProjectID, "client_id": req.ClientID}).Decode(&project); err != nil {
		return nil, notFoundOr("find project", err)
	}
	unit, err := s.resolveUnit(&project, req)
	if err != nil {
		return nil, err
	}
	if unit.paid {
		return nil, fmt.Errorf("%s %s: %w", req.Kind, unit.id, apperrors.ErrAlreadyPaid)
	}
	if !sameAmount(req.Amount, unit.amount) {
		return nil, fmt.Errorf("amount %.2f does not match %s amount %.2f: %w", req.Amount, req.Kind, unit.amount, apperrors.ErrBadRequest)
	}

	var res *PaymentResult
	// A collision on invoice_number rolls back (or compensates) the whole attempt and re-allocates.
	err = db.Try(func() error {
		var err error
		res, err = s.settleUnit(ctx, &project, unit, req)
		return err
	})
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, internalErr("allocate invoice number", err)
		}
		return nil, err
	}
	return res, nil
}

func (s *paymentService) settleUnit(ctx context.Context, project *models.Project, unit *unitTarget, req PaymentRequest) (*PaymentResult, error) {
	invoices := s.db.Collection(invoicesCollection)
	projects := s.db.Collection(projectsCollection)
	biz, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	projectID := project.ID

	invoice := &models.Invoice{
		Base:      models.NewBase(),
		ClientID:  req.ClientID,
		ProjectID: &projectID,
		Items: []models.InvoiceLineItem{{
			Description: fmt.Sprintf("%s - %s", project.Name, unit.name),
			Quantity:    1,
			Rate:        unit.amount,
			Amount:      unit.amount,
		}},
		// Unit invoices carry no tax: the total must equal the unit amount.
		CurrencyCode: biz.CurrencyCode,
		Subtotal:     unit.amount,
		Total:        unit.amount,
		Status:       models.InvoiceStatusPaid,
		IssueDate:    now,
		DueDate:      now,
		PaidAt:       &now,
		CreatedAt:    now,
	}
	payment := &models.Payment{
		Base:          models.NewBase(),
		InvoiceID:     invoice.ID,
		ClientID:      req.ClientID,
		ProjectID:     &projectID,
		Amount:        unit.amount,
		PaymentMethod: req.PaymentMethod,
		PaymentDate:   now,
		Status:        models.PaymentStatusCompleted,
		CreatedAt:     now,
	}
	if req.Kind == PaymentKindPhase {
		invoice.PhaseID, payment.PhaseID = unit.id, unit.id
	} else {
		invoice.VideoID, payment.VideoID = unit.id, unit.id
	}

	elem := unit.field + ".$"
	err = runSteps(ctx, s.tx,
		step{
			name: "allocate invoice number",
			apply: func(ctx context.Context) error {
				number, err := allocateInvoiceNumber(ctx, invoices)
				invoice.InvoiceNumber = number
				return err
			},
		},
		step{
			name: "claim " + string(req.Kind),
			apply: func(ctx context.Context) error {
				set := bson.M{
					elem + ".payment_status": models.PaymentStatePaid,
					elem + ".invoice_id":     invoice.ID,
					"updated_at":             now,
				}
				if unit.unlockState != "" {
					set[elem+".status"] = unit.unlockState
				}
				r, err := projects.UpdateOne(ctx,
					bson.M{
						"_id":       projectID,
						"client_id": req.ClientID,
						unit.field:  bson.M{"$elemMatch": bson.M{"id": unit.id, "payment_status": bson.M{"$ne": models.PaymentStatePaid}}},
					},
					bson.M{"$set": set},
				)
				if err != nil {
					return internalErr("claim unit", err)
				}
				if r.MatchedCount == 0 {
					return fmt.Errorf("%s %s: %w", req.Kind, unit.id, apperrors.ErrAlreadyPaid)
				}
				return nil
			},
			undo: func(ctx context.Context) error {
				set := bson.M{elem + ".payment_status": models.PaymentStateUnpaid}
				if unit.unlockState != "" {
					set[elem+".status"] = unit.prevStatus
				}
				_, err := projects.UpdateOne(ctx,
					bson.M{
						"_id":      projectID,
						unit.field: bson.M{"$elemMatch": bson.M{"id": unit.id, "invoice_id": invoice.ID}},
					},
					bson.M{"$set": set, "$unset": bson.M{elem + ".invoice_id": ""}},
				)
				return err
			},
		},
		step{
			name: "insert invoice",
			apply: func(ctx context.Context) error {
				if err := db.InsertWithID(ctx, invoices, invoice); err != nil {
					if db.IsMongoDuplicateKeyError(err) {
						return err
					}
					return internalErr("insert invoice", err)
				}
				return nil
			},
			undo: func(ctx context.Context) error {
				_, err := invoices.DeleteOne(ctx, bson.M{"_id": invoice.ID})
				return err
			},
		},
		step{
			name:  "insert payment",
			apply: s.insertPayment(payment),
		},
	)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{
		InvoiceID:      invoice.ID,
		InvoiceNumber:  invoice.InvoiceNumber,
		PaymentID:      payment.ID,
		Amount:         unit.amount,
		InvoiceCreated: true,
	}, nil
}

func (s *paymentService) insertPayment(payment *models.Payment) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		// nothing references the payment id yet, so it may be regenerated on collision
		if _, err := db.InsertOne(ctx, s.db.Collection(paymentsCollection), payment); err != nil {
			return internalErr("insert payment", err)
		}
		return nil
	}
}
