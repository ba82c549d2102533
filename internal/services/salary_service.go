package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/config"
	"github.com/mpiyush15/pixels-official-sub001/internal/db"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// SalaryInput creates a salary record.
type SalaryInput struct {
	EmployeeID     string              `json:"employeeId" validate:"required,max=64"`
	EmployeeName   string              `json:"employeeName" validate:"required,max=200"`
	Designation    string              `json:"designation" validate:"max=200"`
	Month          string              `json:"month" validate:"required,month"`
	Year           int                 `json:"year" validate:"required,gte=2000,lte=2100"`
	Amount         float64             `json:"amount" validate:"gte=0"`
	Deductions     float64             `json:"deductions" validate:"gte=0"`
	Bonus          float64             `json:"bonus" validate:"gte=0"`
	Status         models.SalaryStatus `json:"status" validate:"omitempty,oneof=pending paid"`
	PaymentMethod  string              `json:"paymentMethod" validate:"max=100"`
	BankName       string              `json:"bankName" validate:"max=200"`
	AccountNumber  string              `json:"accountNumber" validate:"max=64"`
	TransactionRef string              `json:"transactionRef" validate:"max=200"`
	PaymentDate    *time.Time          `json:"paymentDate"`
	Notes          string              `json:"notes" validate:"max=2000"`
}

// SalaryPatch is the allow-list of fields an update may touch. Nil fields are left unchanged.
type SalaryPatch struct {
	EmployeeName   *string              `json:"employeeName" validate:"omitempty,min=1,max=200"`
	Designation    *string              `json:"designation" validate:"omitempty,max=200"`
	Month          *string              `json:"month" validate:"omitempty,month"`
	Year           *int                 `json:"year" validate:"omitempty,gte=2000,lte=2100"`
	Amount         *float64             `json:"amount" validate:"omitempty,gte=0"`
	Deductions     *float64             `json:"deductions" validate:"omitempty,gte=0"`
	Bonus          *float64             `json:"bonus" validate:"omitempty,gte=0"`
	Status         *models.SalaryStatus `json:"status" validate:"omitempty,oneof=pending paid"`
	PaymentMethod  *string              `json:"paymentMethod" validate:"omitempty,max=100"`
	BankName       *string              `json:"bankName" validate:"omitempty,max=200"`
	AccountNumber  *string              `json:"accountNumber" validate:"omitempty,max=64"`
	TransactionRef *string              `json:"transactionRef" validate:"omitempty,max=200"`
	PaymentDate    *time.Time           `json:"paymentDate"`
	Notes          *string              `json:"notes" validate:"omitempty,max=2000"`
}

type SalaryFilter struct {
	EmployeeID string
	Month      string
	Year       int
	Status     models.SalaryStatus
}

// ISalaryService keeps salaries, their cash-flow entries and personal-account entries in step.
type ISalaryService interface {
	CreateSalary(ctx context.Context, in SalaryInput) (*models.Salary, error)
	GetSalary(ctx context.Context, id utils.SixID) (*models.Salary, error)
	ListSalaries(ctx context.Context, filter SalaryFilter) ([]models.Salary, error)
	UpdateSalary(ctx context.Context, id utils.SixID, patch SalaryPatch) (*models.Salary, error)
	DeleteSalary(ctx context.Context, id utils.SixID) error
}

var monthNames = []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}

// NewValidator returns a validator with the month tag registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		return normalizeMonth(fl.Field().String()) != ""
	})
	return v
}

// normalizeMonth accepts full or three-letter English month names in any case and returns the full name.
func normalizeMonth(m string) string {
	m = strings.TrimSpace(m)
	for _, name := range monthNames {
		if strings.EqualFold(m, name) || (len(m) == 3 && strings.EqualFold(m, name[:3])) {
			return name
		}
	}
	return ""
}

// ResolvePayeeRole derives the stored payee role from a designation. adminEmployeeID, when set,
// marks one employee as admin regardless of designation.
func ResolvePayeeRole(designation, employeeID, adminEmployeeID string) models.PayeeRole {
	d := strings.ToLower(designation)
	switch {
	case strings.Contains(d, "owner"):
		return models.PayeeRoleOwner
	case strings.Contains(d, "director"):
		return models.PayeeRoleDirector
	case strings.Contains(d, "admin"):
		return models.PayeeRoleAdmin
	case adminEmployeeID != "" && employeeID == adminEmployeeID:
		return models.PayeeRoleAdmin
	}
	return models.PayeeRoleStaff
}

// SalaryReference is the human-readable reference written on generated ledger entries.
func SalaryReference(s *models.Salary) string {
	return fmt.Sprintf("Salary - %s (%s %d)", s.EmployeeName, s.Month, s.Year)
}

type salaryService struct {
	db       *mongo.Database
	cfg      *config.Config
	tx       db.TxRunner
	validate *validator.Validate
	now      func() time.Time
}

func NewSalaryService(database *mongo.Database, cfg *config.Config, tx db.TxRunner) ISalaryService {
	return &salaryService{
		db:       database,
		cfg:      cfg,
		tx:       tx,
		validate: NewValidator(),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// validationError converts validator failures into ErrBadRequest naming the offending fields.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid fields %s: %w", strings.Join(fields, ", "), apperrors.ErrBadRequest)
	}
	return fmt.Errorf("%v: %w", err, apperrors.ErrBadRequest)
}

func (s *salaryService) CreateSalary(ctx context.Context, in SalaryInput) (*models.Salary, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	now := s.now()
	status := in.Status
	if status == "" {
		status = models.SalaryStatusPending
	}
	salary := &models.Salary{
		Base:           models.NewBase(),
		EmployeeID:     in.EmployeeID,
		EmployeeName:   strings.TrimSpace(in.EmployeeName),
		Designation:    strings.TrimSpace(in.Designation),
		PayeeRole:      ResolvePayeeRole(in.Designation, in.EmployeeID, s.cfg.AdminEmployeeID),
		Month:          normalizeMonth(in.Month),
		Year:           in.Year,
		Amount:         in.Amount,
		Deductions:     in.Deductions,
		Bonus:          in.Bonus,
		NetAmount:      models.ComputeNetAmount(in.Amount, in.Deductions, in.Bonus),
		Status:         status,
		PaymentMethod:  in.PaymentMethod,
		BankName:       in.BankName,
		AccountNumber:  in.AccountNumber,
		TransactionRef: in.TransactionRef,
		PaymentDate:    in.PaymentDate,
		Notes:          in.Notes,
		Timestamps:     models.NewTimestamps(now),
	}
	if salary.Status == models.SalaryStatusPaid && salary.PaymentDate == nil {
		salary.PaymentDate = &now
	}

	steps := []step{{
		name: "insert salary",
		apply: func(ctx context.Context) error {
			if err := db.InsertWithID(ctx, s.db.Collection(salariesCollection), salary); err != nil {
				return internalErr("insert salary", err)
			}
			return nil
		},
		undo: func(ctx context.Context) error {
			_, err := s.db.Collection(salariesCollection).DeleteOne(ctx, bson.M{"_id": salary.ID})
			return err
		},
	}}
	steps = append(steps, s.ledgerSteps(nil, salary)...)
	if err := runSteps(ctx, s.tx, steps...); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "salary created", "salary_id", salary.ID.String(), "status", salary.Status, "payee_role", salary.PayeeRole)
	return salary, nil
}

func (s *salaryService) GetSalary(ctx context.Context, id utils.SixID) (*models.Salary, error) {
	var salary models.Salary
	if err := s.db.Collection(salariesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&salary); err != nil {
		return nil, notFoundOr("find salary", err)
	}
	return &salary, nil
}

func (s *salaryService) ListSalaries(ctx context.Context, f SalaryFilter) ([]models.Salary, error) {
	filter := bson.M{}
	if f.EmployeeID != "" {
		filter["employee_id"] = f.EmployeeID
	}
	if m := normalizeMonth(f.Month); m != "" {
		filter["month"] = m
	}
	if f.Year != 0 {
		filter["year"] = f.Year
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(salariesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, internalErr("list salaries", err)
	}
	defer cursor.Close(ctx)

	salaries := []models.Salary{}
	if err := cursor.All(ctx, &salaries); err != nil {
		return nil, internalErr("decode salaries", err)
	}
	return salaries, nil
}

// applyPatch returns a copy of old with patch applied. The payee role is re-resolved only when
// the designation changes.
func (s *salaryService) applyPatch(old *models.Salary, p SalaryPatch, now time.Time) *models.Salary {
	next := *old
	if p.EmployeeName != nil {
		next.EmployeeName = strings.TrimSpace(*p.EmployeeName)
	}
	if p.Designation != nil && strings.TrimSpace(*p.Designation) != old.Designation {
		next.Designation = strings.TrimSpace(*p.Designation)
		next.PayeeRole = ResolvePayeeRole(next.Designation, next.EmployeeID, s.cfg.AdminEmployeeID)
	}
	if p.Month != nil {
		next.Month = normalizeMonth(*p.Month)
	}
	if p.Year != nil {
		next.Year = *p.Year
	}
	if p.Amount != nil {
		next.Amount = *p.Amount
	}
	if p.Deductions != nil {
		next.Deductions = *p.Deductions
	}
	if p.Bonus != nil {
		next.Bonus = *p.Bonus
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.PaymentMethod != nil {
		next.PaymentMethod = *p.PaymentMethod
	}
	if p.BankName != nil {
		next.BankName = *p.BankName
	}
	if p.AccountNumber != nil {
		next.AccountNumber = *p.AccountNumber
	}
	if p.TransactionRef != nil {
		next.TransactionRef = *p.TransactionRef
	}
	if p.PaymentDate != nil {
		d := p.PaymentDate.UTC()
		next.PaymentDate = &d
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	next.NetAmount = models.ComputeNetAmount(next.Amount, next.Deductions, next.Bonus)
	if next.Status == models.SalaryStatusPaid && next.PaymentDate == nil {
		next.PaymentDate = &now
	}
	next.UpdatedAt = now
	return &next
}

func (s *salaryService) UpdateSalary(ctx context.Context, id utils.SixID, patch SalaryPatch) (*models.Salary, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, validationError(err)
	}
	old, err := s.GetSalary(ctx, id)
	if err != nil {
		return nil, err
	}
	next := s.applyPatch(old, patch, s.now())

	salaries := s.db.Collection(salariesCollection)
	steps := []step{{
		name: "update salary",
		apply: func(ctx context.Context) error {
			r, err := salaries.ReplaceOne(ctx, unchangedSince(id, old.UpdatedAt), next)
			if err != nil {
				return internalErr("update salary", err)
			}
			if r.MatchedCount == 0 {
				return fmt.Errorf("salary %s was modified concurrently: %w", id, apperrors.ErrBadRequest)
			}
			return nil
		},
		undo: func(ctx context.Context) error {
			_, err := salaries.ReplaceOne(ctx, unchangedSince(id, next.UpdatedAt), old)
			return err
		},
	}}
	steps = append(steps, s.ledgerSteps(old, next)...)
	if err := runSteps(ctx, s.tx, steps...); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "salary updated", "salary_id", id.String(), "from", old.Status, "to", next.Status)
	return next, nil
}

// unchangedSince matches the salary only while updated_at still holds the value that was read.
// Records imported without updated_at decode to the zero time; they match on a missing or null field.
func unchangedSince(id utils.SixID, updatedAt time.Time) bson.M {
	if updatedAt.IsZero() {
		return bson.M{"_id": id, "updated_at": bson.M{"$in": bson.A{nil, updatedAt}}}
	}
	return bson.M{"_id": id, "updated_at": updatedAt}
}

func (s *salaryService) DeleteSalary(ctx context.Context, id utils.SixID) error {
	old, err := s.GetSalary(ctx, id)
	if err != nil {
		return err
	}
	steps := s.ledgerSteps(old, nil)
	steps = append(steps, step{
		name: "delete salary",
		apply: func(ctx context.Context) error {
			r, err := s.db.Collection(salariesCollection).DeleteOne(ctx, bson.M{"_id": id})
			if err != nil {
				return internalErr("delete salary", err)
			}
			if r.DeletedCount == 0 {
				return fmt.Errorf("salary %s: %w", id, apperrors.ErrNotFound)
			}
			return nil
		},
	})
	if err := runSteps(ctx, s.tx, steps...); err != nil {
		return err
	}
	slog.InfoContext(ctx, "salary deleted", "salary_id", id.String(), "was", old.Status)
	return nil
}

// ledgerSteps returns the cash-flow and personal-account writes that move the ledgers from
// reflecting prev to reflecting next. A nil salary means the record does not exist.
func (s *salaryService) ledgerSteps(prev, next *models.Salary) []step {
	prevPaid := prev != nil && prev.Status == models.SalaryStatusPaid
	nextPaid := next != nil && next.Status == models.SalaryStatusPaid
	if !prevPaid && !nextPaid {
		return nil
	}

	cashflow := s.db.Collection(cashflowCollection)
	personal := s.db.Collection(personalAccountsCollection)
	prevPersonal := prevPaid && prev.PayeeRole.MirrorsToPersonalAccount()
	nextPersonal := nextPaid && next.PayeeRole.MirrorsToPersonalAccount()

	var steps []step
	steps = append(steps, ledgerStep("cashflow", cashflow, prev, next, prevPaid, nextPaid, models.EntryTypeExpense, s.now))
	if prevPersonal || nextPersonal {
		steps = append(steps, ledgerStep("personal account", personal, prev, next, prevPersonal, nextPersonal, models.EntryTypeIncome, s.now))
	}
	return steps
}

func ledgerStep(name string, coll *mongo.Collection, prev, next *models.Salary, had, want bool, typ models.EntryType, now func() time.Time) step {
	var salaryID utils.SixID
	if next != nil {
		salaryID = next.ID
	} else {
		salaryID = prev.ID
	}
	var snapshot *models.LedgerEntry

	return step{
		name: name,
		apply: func(ctx context.Context) error {
			if had {
				snapshot = &models.LedgerEntry{}
				err := coll.FindOne(ctx, bson.M{"salary_id": salaryID}).Decode(snapshot)
				if errors.Is(err, mongo.ErrNoDocuments) {
					snapshot = nil
				} else if err != nil {
					return internalErr("read "+name+" entry", err)
				}
			}
			if want {
				if err := upsertSalaryEntry(ctx, coll, next, typ, now()); err != nil {
					return internalErr("write "+name+" entry", err)
				}
				return nil
			}
			if _, err := coll.DeleteOne(ctx, bson.M{"salary_id": salaryID}); err != nil {
				return internalErr("delete "+name+" entry", err)
			}
			return nil
		},
		undo: func(ctx context.Context) error {
			if snapshot != nil {
				_, err := coll.ReplaceOne(ctx, bson.M{"salary_id": salaryID}, snapshot, options.Replace().SetUpsert(true))
				return err
			}
			_, err := coll.DeleteOne(ctx, bson.M{"salary_id": salaryID})
			return err
		},
	}
}

// upsertSalaryEntry creates the entry for salary or updates the existing one in place,
// keeping its _id and created_at.
func upsertSalaryEntry(ctx context.Context, coll *mongo.Collection, salary *models.Salary, typ models.EntryType, now time.Time) error {
	txDate := now
	if salary.PaymentDate != nil {
		txDate = *salary.PaymentDate
	}
	desc := fmt.Sprintf("Salary payment for %s", salary.EmployeeName)
	if salary.Designation != "" {
		desc += " - " + salary.Designation
	}
	if salary.Notes != "" {
		desc += ". " + salary.Notes
	}
	_, err := coll.UpdateOne(ctx,
		bson.M{"salary_id": salary.ID},
		bson.M{
			"$set": bson.M{
				"type":             typ,
				"category":         models.CategorySalary,
				"amount":           salary.NetAmount,
				"payment_method":   salary.PaymentMethod,
				"bank_name":        salary.BankName,
				"reference":        SalaryReference(salary),
				"description":      desc,
				"transaction_date": txDate,
				"employee_id":      salary.EmployeeID,
				"updated_at":       now,
			},
			"$setOnInsert": bson.M{
				"_id":        utils.NewSixID(),
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
