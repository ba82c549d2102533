package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
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

type PhaseInput struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type VideoInput struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
}

// ConvertSubmissionInput describes the project an approved submission becomes.
type ConvertSubmissionInput struct {
	Name           string       `json:"name"`
	Phases         []PhaseInput `json:"phases"`
	Videos         []VideoInput `json:"videos"`
	TotalAmount    float64      `json:"totalAmount"`
	DepositAmount  float64      `json:"depositAmount"`
	DepositDueDays *int         `json:"depositDueDays"`
}

type ConversionResult struct {
	Project        *models.Project `json:"project"`
	DepositInvoice *models.Invoice `json:"depositInvoice,omitempty"`
}

// ISubmissionService turns client work submissions into projects.
type ISubmissionService interface {
	ConvertSubmission(ctx context.Context, submissionID utils.SixID, in ConvertSubmissionInput) (*ConversionResult, error)
}

type submissionService struct {
	db       *mongo.Database
	cfg      *config.Config
	tx       db.TxRunner
	settings ISettingsService
	now      func() time.Time
}

func NewSubmissionService(database *mongo.Database, cfg *config.Config, tx db.TxRunner, settings ISettingsService) ISubmissionService {
	return &submissionService{
		db:       database,
		cfg:      cfg,
		tx:       tx,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// applyTax returns the tax on subtotal at ratePercent and the resulting total, both rounded to paise.
func applyTax(subtotal, ratePercent float64) (tax, total float64) {
	sub := decimal.NewFromFloat(subtotal)
	t := sub.Mul(decimal.NewFromFloat(ratePercent)).Div(decimal.NewFromInt(100)).Round(2)
	return t.InexactFloat64(), sub.Add(t).Round(2).InexactFloat64()
}

func validateConversion(in ConvertSubmissionInput, projectType models.ProjectType) error {
	if in.TotalAmount <= 0 {
		return fmt.Errorf("total amount must be positive: %w", apperrors.ErrBadRequest)
	}
	if in.DepositAmount < 0 {
		return fmt.Errorf("deposit must not be negative: %w", apperrors.ErrBadRequest)
	}
	if decimal.NewFromFloat(in.DepositAmount).GreaterThan(decimal.NewFromFloat(in.TotalAmount)) {
		return fmt.Errorf("deposit %.2f exceeds total %.2f: %w", in.DepositAmount, in.TotalAmount, apperrors.ErrBadRequest)
	}
	if in.DepositDueDays != nil && *in.DepositDueDays < 0 {
		return fmt.Errorf("deposit due days must not be negative: %w", apperrors.ErrBadRequest)
	}

	switch projectType {
	case models.ProjectTypeDevelopment:
		if len(in.Videos) > 0 || len(in.Phases) == 0 {
			return fmt.Errorf("development projects need phases and no videos: %w", apperrors.ErrBadRequest)
		}
	case models.ProjectTypeVideo:
		if len(in.Phases) > 0 || len(in.Videos) == 0 {
			return fmt.Errorf("video projects need videos and no phases: %w", apperrors.ErrBadRequest)
		}
	default:
		return fmt.Errorf("unknown project type %q: %w", projectType, apperrors.ErrBadRequest)
	}

	seen := map[string]bool{}
	check := func(id, label string, amount float64) error {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("every unit needs a name: %w", apperrors.ErrBadRequest)
		}
		if amount < 0 {
			return fmt.Errorf("unit %q has a negative amount: %w", label, apperrors.ErrBadRequest)
		}
		if id != "" {
			if seen[id] {
				return fmt.Errorf("duplicate unit id %q: %w", id, apperrors.ErrBadRequest)
			}
			seen[id] = true
		}
		return nil
	}
	for _, p := range in.Phases {
		if err := check(p.ID, p.Name, p.Amount); err != nil {
			return err
		}
	}
	for _, v := range in.Videos {
		if err := check(v.ID, v.Title, v.Amount); err != nil {
			return err
		}
	}
	return nil
}

func unitID(prefix, given string) string {
	if given != "" {
		return given
	}
	return prefix + strings.ToLower(utils.NewSixID().String())
}

// ConvertSubmission creates a project from a pending or approved submission. A positive deposit
// also issues a sent invoice for it, settled later through the invoice payment path.
func (s *submissionService) ConvertSubmission(ctx context.Context, submissionID utils.SixID, in ConvertSubmissionInput) (*ConversionResult, error) {
	submissions := s.db.Collection(workSubmissionsCollection)

	var sub models.WorkSubmission
	if err := submissions.FindOne(ctx, bson.M{"_id": submissionID}).Decode(&sub); err != nil {
		return nil, notFoundOr("find submission", err)
	}
	if sub.Status != models.SubmissionStatusPending && sub.Status != models.SubmissionStatusApproved {
		return nil, fmt.Errorf("submission %s is %s: %w", submissionID, sub.Status, apperrors.ErrBadRequest)
	}
	if err := validateConversion(in, sub.ProjectType); err != nil {
		return nil, err
	}

	var res *ConversionResult
	err := db.Try(func() error {
		var err error
		res, err = s.convert(ctx, &sub, in)
		return err
	})
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, internalErr("allocate invoice number", err)
		}
		return nil, err
	}
	slog.InfoContext(ctx, "submission converted",
		"submission_id", submissionID.String(),
		"project_id", res.Project.ID.String(),
		"deposit", in.DepositAmount,
	)
	return res, nil
}

func (s *submissionService) convert(ctx context.Context, sub *models.WorkSubmission, in ConvertSubmissionInput) (*ConversionResult, error) {
	submissions := s.db.Collection(workSubmissionsCollection)
	projects := s.db.Collection(projectsCollection)
	invoices := s.db.Collection(invoicesCollection)
	now := s.now()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = sub.Title
	}
	sourceID := sub.ID
	project := &models.Project{
		Base:               models.NewBase(),
		ClientID:           sub.ClientID,
		Name:               name,
		Type:               sub.ProjectType,
		Status:             models.ProjectStatusPending,
		TotalAmount:        in.TotalAmount,
		SourceSubmissionID: &sourceID,
		Timestamps:         models.NewTimestamps(now),
	}
	for _, p := range in.Phases {
		project.Phases = append(project.Phases, models.Phase{
			ID:            unitID("ph-", p.ID),
			Name:          strings.TrimSpace(p.Name),
			Description:   p.Description,
			Amount:        p.Amount,
			Status:        models.PhaseStatusLocked,
			PaymentStatus: models.PaymentStateUnpaid,
			Updates:       []models.PhaseUpdate{},
		})
	}
	for _, v := range in.Videos {
		project.Videos = append(project.Videos, models.Video{
			ID:            unitID("v-", v.ID),
			Title:         strings.TrimSpace(v.Title),
			Amount:        v.Amount,
			Status:        models.VideoStatusPending,
			PaymentStatus: models.PaymentStateUnpaid,
		})
	}

	var deposit *models.Invoice
	if in.DepositAmount > 0 {
		biz, err := s.settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		tax, total := applyTax(in.DepositAmount, biz.TaxRate)
		dueDays := s.cfg.InvoicePaymentDueDays
		if in.DepositDueDays != nil {
			dueDays = *in.DepositDueDays
		}
		projectID := project.ID
		deposit = &models.Invoice{
			Base:      models.NewBase(),
			ClientID:  sub.ClientID,
			ProjectID: &projectID,
			Items: []models.InvoiceLineItem{{
				Description: fmt.Sprintf("%s - Deposit", name),
				Quantity:    1,
				Rate:        in.DepositAmount,
				Amount:      in.DepositAmount,
			}},
			CurrencyCode: biz.CurrencyCode,
			Subtotal:     in.DepositAmount,
			Tax:          tax,
			Total:        total,
			Status:       models.InvoiceStatusSent,
			IssueDate:    now,
			DueDate:      now.AddDate(0, 0, dueDays),
			CreatedAt:    now,
		}
	}

	steps := []step{
		{
			name: "claim submission",
			apply: func(ctx context.Context) error {
				r, err := submissions.UpdateOne(ctx,
					bson.M{"_id": sub.ID, "status": bson.M{"$in": bson.A{models.SubmissionStatusPending, models.SubmissionStatusApproved}}},
					bson.M{"$set": bson.M{
						"status":       models.SubmissionStatusConverted,
						"project_id":   project.ID,
						"converted_at": now,
						"updated_at":   now,
					}},
				)
				if err != nil {
					return internalErr("claim submission", err)
				}
				if r.MatchedCount == 0 {
					return fmt.Errorf("submission %s is already converted: %w", sub.ID, apperrors.ErrBadRequest)
				}
				return nil
			},
			undo: func(ctx context.Context) error {
				_, err := submissions.UpdateOne(ctx,
					bson.M{"_id": sub.ID, "project_id": project.ID},
					bson.M{
						"$set":   bson.M{"status": sub.Status, "updated_at": sub.UpdatedAt},
						"$unset": bson.M{"project_id": "", "converted_at": ""},
					},
				)
				return err
			},
		},
		{
			name: "insert project",
			apply: func(ctx context.Context) error {
				if err := db.InsertWithID(ctx, projects, project); err != nil {
					return internalErr("insert project", err)
				}
				return nil
			},
			undo: func(ctx context.Context) error {
				_, err := projects.DeleteOne(ctx, bson.M{"_id": project.ID})
				return err
			},
		},
	}
	if deposit != nil {
		steps = append(steps,
			step{
				name: "allocate invoice number",
				apply: func(ctx context.Context) error {
					number, err := allocateInvoiceNumber(ctx, invoices)
					deposit.InvoiceNumber = number
					return err
				},
			},
			step{
				name: "insert deposit invoice",
				apply: func(ctx context.Context) error {
					if err := db.InsertWithID(ctx, invoices, deposit); err != nil {
						if db.IsMongoDuplicateKeyError(err) {
							return err
						}
						return internalErr("insert deposit invoice", err)
					}
					return nil
				},
			},
		)
	}
	if err := runSteps(ctx, s.tx, steps...); err != nil {
		return nil, err
	}
	return &ConversionResult{Project: project, DepositInvoice: deposit}, nil
}
