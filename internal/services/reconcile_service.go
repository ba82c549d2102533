package services

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mpiyush15/pixels-official-sub001/internal/config"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// ReconcileReport counts the repairs made by one pass.
type ReconcileReport struct {
	SalariesChecked       int       `json:"salariesChecked"`
	CashFlowCreated       int       `json:"cashFlowCreated"`
	PersonalCreated       int       `json:"personalCreated"`
	OrphanCashFlowRemoved int       `json:"orphanCashFlowRemoved"`
	OrphanPersonalRemoved int       `json:"orphanPersonalRemoved"`
	UnitClaimsReleased    int       `json:"unitClaimsReleased"`
	StartedAt             time.Time `json:"startedAt"`
	Duration              string    `json:"duration"`
}

// IReconcileService repairs ledgers left inconsistent by an interrupted multi-collection write.
type IReconcileService interface {
	Reconcile(ctx context.Context) (*ReconcileReport, error)
}

type reconcileService struct {
	db  *mongo.Database
	cfg *config.Config
	now func() time.Time
	// claimGrace is how old a unit claim without an invoice must be before it is released.
	claimGrace time.Duration
}

func NewReconcileService(database *mongo.Database, cfg *config.Config) IReconcileService {
	return &reconcileService{
		db:         database,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
		claimGrace: 10 * time.Minute,
	}
}

func (s *reconcileService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	rep := &ReconcileReport{StartedAt: s.now()}
	if err := s.reconcileSalaries(ctx, rep); err != nil {
		return nil, err
	}
	if err := s.removeOrphans(ctx, cashflowCollection, false, &rep.OrphanCashFlowRemoved); err != nil {
		return nil, err
	}
	if err := s.removeOrphans(ctx, personalAccountsCollection, true, &rep.OrphanPersonalRemoved); err != nil {
		return nil, err
	}
	if err := s.releaseUnitClaims(ctx, rep); err != nil {
		return nil, err
	}
	rep.Duration = s.now().Sub(rep.StartedAt).String()
	slog.InfoContext(ctx, "ledger reconciliation finished",
		"salaries", rep.SalariesChecked,
		"cashflow_created", rep.CashFlowCreated,
		"personal_created", rep.PersonalCreated,
		"cashflow_removed", rep.OrphanCashFlowRemoved,
		"personal_removed", rep.OrphanPersonalRemoved,
		"claims_released", rep.UnitClaimsReleased,
	)
	return rep, nil
}

// reconcileSalaries creates missing entries for paid salaries and drops personal entries
// whose salary no longer has an owner-level role.
func (s *reconcileService) reconcileSalaries(ctx context.Context, rep *ReconcileReport) error {
	paid, err := findAll[models.Salary](ctx, s.db.Collection(salariesCollection), bson.M{"status": models.SalaryStatusPaid})
	if err != nil {
		return err
	}
	cashflow := s.db.Collection(cashflowCollection)
	personal := s.db.Collection(personalAccountsCollection)
	now := s.now()

	for i := range paid {
		sal := &paid[i]
		rep.SalariesChecked++

		n, err := cashflow.CountDocuments(ctx, bson.M{"salary_id": sal.ID})
		if err != nil {
			return internalErr("count cashflow entries", err)
		}
		if n == 0 {
			if err := upsertSalaryEntry(ctx, cashflow, sal, models.EntryTypeExpense, now); err != nil {
				return internalErr("repair cashflow entry", err)
			}
			rep.CashFlowCreated++
		}

		if sal.PayeeRole.MirrorsToPersonalAccount() {
			n, err := personal.CountDocuments(ctx, bson.M{"salary_id": sal.ID})
			if err != nil {
				return internalErr("count personal entries", err)
			}
			if n == 0 {
				if err := upsertSalaryEntry(ctx, personal, sal, models.EntryTypeIncome, now); err != nil {
					return internalErr("repair personal entry", err)
				}
				rep.PersonalCreated++
			}
		}
	}
	return nil
}

// removeOrphans deletes salary-generated entries whose salary is gone or not paid. For the
// personal ledger an entry is also an orphan when the salary role no longer mirrors.
func (s *reconcileService) removeOrphans(ctx context.Context, collName string, personalLedger bool, removed *int) error {
	coll := s.db.Collection(collName)
	entries, err := findAll[models.LedgerEntry](ctx, coll, bson.M{"salary_id": bson.M{"$exists": true, "$ne": nil}})
	if err != nil {
		return err
	}
	salaries := s.db.Collection(salariesCollection)
	for _, e := range entries {
		var sal models.Salary
		err := salaries.FindOne(ctx, bson.M{"_id": e.SalaryID}).Decode(&sal)
		orphan := false
		switch {
		case err == mongo.ErrNoDocuments:
			orphan = true
		case err != nil:
			return internalErr("find salary", err)
		case sal.Status != models.SalaryStatusPaid:
			orphan = true
		case personalLedger && !sal.PayeeRole.MirrorsToPersonalAccount():
			orphan = true
		}
		if !orphan {
			continue
		}
		if _, err := coll.DeleteOne(ctx, bson.M{"_id": e.ID}); err != nil {
			return internalErr("delete orphan entry", err)
		}
		*removed++
	}
	return nil
}

// releaseUnitClaims resets phases and videos marked paid against an invoice that never got
// written, once the claim is older than the grace period.
func (s *reconcileService) releaseUnitClaims(ctx context.Context, rep *ReconcileReport) error {
	projects := s.db.Collection(projectsCollection)
	invoices := s.db.Collection(invoicesCollection)
	cutoff := s.now().Add(-s.claimGrace)

	claimed, err := findAll[models.Project](ctx, projects, bson.M{
		"updated_at": bson.M{"$lte": cutoff},
		"$or": bson.A{
			bson.M{"phases.payment_status": models.PaymentStatePaid},
			bson.M{"videos.payment_status": models.PaymentStatePaid},
		},
	})
	if err != nil {
		return err
	}

	release := func(p *models.Project, field, unitID string, invoiceID utils.SixID, lockedStatus string) error {
		n, err := invoices.CountDocuments(ctx, bson.M{"_id": invoiceID})
		if err != nil {
			return internalErr("count invoices", err)
		}
		if n > 0 {
			return nil
		}
		elem := field + ".$"
		set := bson.M{elem + ".payment_status": models.PaymentStateUnpaid}
		if lockedStatus != "" {
			set[elem+".status"] = lockedStatus
		}
		r, err := projects.UpdateOne(ctx,
			bson.M{"_id": p.ID, field: bson.M{"$elemMatch": bson.M{"id": unitID, "invoice_id": invoiceID}}},
			bson.M{"$set": set, "$unset": bson.M{elem + ".invoice_id": ""}},
		)
		if err != nil {
			return internalErr("release unit claim", err)
		}
		if r.ModifiedCount > 0 {
			slog.WarnContext(ctx, "released unit claim without invoice", "project_id", p.ID.String(), "unit", unitID)
			rep.UnitClaimsReleased++
		}
		return nil
	}

	for i := range claimed {
		p := &claimed[i]
		for _, ph := range p.Phases {
			if ph.PaymentStatus == models.PaymentStatePaid && ph.InvoiceID != nil {
				if err := release(p, "phases", ph.ID, *ph.InvoiceID, string(models.PhaseStatusLocked)); err != nil {
					return err
				}
			}
		}
		for _, v := range p.Videos {
			if v.PaymentStatus == models.PaymentStatePaid && v.InvoiceID != nil {
				if err := release(p, "videos", v.ID, *v.InvoiceID, ""); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
