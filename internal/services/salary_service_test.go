package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

func ptr[T any](v T) *T { return &v }

func TestResolvePayeeRole(t *testing.T) {
	cases := []struct {
		designation, employeeID string
		want                    models.PayeeRole
	}{
		{"Director", "E1", models.PayeeRoleDirector},
		{"Managing DIRECTOR", "E1", models.PayeeRoleDirector},
		{"Co-Owner", "E1", models.PayeeRoleOwner},
		{"System Administrator", "E1", models.PayeeRoleAdmin},
		{"Video Editor", "E1", models.PayeeRoleStaff},
		{"", "E1", models.PayeeRoleStaff},
		{"Video Editor", "EMP-ADMIN", models.PayeeRoleAdmin},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ResolvePayeeRole(tc.designation, tc.employeeID, "EMP-ADMIN"), tc.designation)
	}
	assert.Equal(t, models.PayeeRoleStaff, ResolvePayeeRole("Editor", "", ""))
	assert.True(t, models.PayeeRoleDirector.MirrorsToPersonalAccount())
	assert.False(t, models.PayeeRoleStaff.MirrorsToPersonalAccount())
}

func TestComputeNetAmount(t *testing.T) {
	assert.Equal(t, 50000.0, models.ComputeNetAmount(48000, 3000, 5000))
	assert.Equal(t, 0.3, models.ComputeNetAmount(0.1, 0, 0.2))
}

func TestSalaryPatchValidation(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Struct(SalaryPatch{}))
	assert.NoError(t, v.Struct(SalaryPatch{Month: ptr("nov"), Status: ptr(models.SalaryStatusPaid)}))
	assert.Error(t, v.Struct(SalaryPatch{Month: ptr("Smarch")}))
	assert.Error(t, v.Struct(SalaryPatch{Amount: ptr(-1.0)}))
	assert.Error(t, v.Struct(SalaryPatch{Status: ptr(models.SalaryStatus("void"))}))
	assert.Equal(t, "November", normalizeMonth(" nov "))
}

// assertSalaryLedgers checks that a paid salary has exactly one cash-flow entry and, for
// owner-level roles, exactly one personal-account entry, and that an unpaid one has neither.
func assertSalaryLedgers(t *testing.T, database *mongo.Database, id utils.SixID, paid, personal bool, net float64) {
	t.Helper()
	wantCash, wantPersonal := int64(0), int64(0)
	if paid {
		wantCash = 1
		if personal {
			wantPersonal = 1
		}
	}
	assert.Equal(t, wantCash, countDocs(t, database, cashflowCollection, bson.M{"salary_id": id}))
	assert.Equal(t, wantPersonal, countDocs(t, database, personalAccountsCollection, bson.M{"salary_id": id}))
	if wantCash == 1 {
		assert.Equal(t, int64(1), countDocs(t, database, cashflowCollection, bson.M{"salary_id": id, "amount": net, "type": models.EntryTypeExpense, "category": models.CategorySalary}))
	}
	if wantPersonal == 1 {
		assert.Equal(t, int64(1), countDocs(t, database, personalAccountsCollection, bson.M{"salary_id": id, "amount": net, "type": models.EntryTypeIncome, "category": models.CategorySalary}))
	}
}

func directorInput() SalaryInput {
	return SalaryInput{
		EmployeeID:    "E-17",
		EmployeeName:  "Meera Iyer",
		Designation:   "Director",
		Month:         "November",
		Year:          2024,
		Amount:        50000,
		PaymentMethod: "Bank Transfer",
		BankName:      "HDFC",
	}
}

func TestSalaryService_DirectorPaidAndReverted(t *testing.T) {
	database := setupLedgerDB(t, "salary_director")
	svc := NewSalaryService(database, testConfig(), directTx())
	ctx := context.Background()

	s1, err := svc.CreateSalary(ctx, directorInput())
	require.NoError(t, err)
	assert.Equal(t, models.SalaryStatusPending, s1.Status)
	assert.Equal(t, models.PayeeRoleDirector, s1.PayeeRole)
	assert.Equal(t, 50000.0, s1.NetAmount)
	assertSalaryLedgers(t, database, s1.ID, false, true, 0)

	paidOn := time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC)
	_, err = svc.UpdateSalary(ctx, s1.ID, SalaryPatch{Status: ptr(models.SalaryStatusPaid), PaymentDate: &paidOn})
	require.NoError(t, err)
	assertSalaryLedgers(t, database, s1.ID, true, true, 50000)

	var entry models.CashFlowEntry
	require.NoError(t, database.Collection(cashflowCollection).FindOne(ctx, bson.M{"salary_id": s1.ID}).Decode(&entry))
	assert.Equal(t, "Salary - Meera Iyer (November 2024)", entry.Reference)
	assert.Equal(t, "Bank Transfer", entry.PaymentMethod)
	assert.Equal(t, "HDFC", entry.BankName)
	assert.True(t, paidOn.Equal(entry.TransactionDate))

	var personal models.PersonalAccountEntry
	require.NoError(t, database.Collection(personalAccountsCollection).FindOne(ctx, bson.M{"salary_id": s1.ID}).Decode(&personal))
	assert.Equal(t, "E-17", personal.EmployeeID)

	_, err = svc.UpdateSalary(ctx, s1.ID, SalaryPatch{Status: ptr(models.SalaryStatusPending)})
	require.NoError(t, err)
	assertSalaryLedgers(t, database, s1.ID, false, true, 0)
}

func TestSalaryService_StaffSalaryOnlyHitsCashFlow(t *testing.T) {
	database := setupLedgerDB(t, "salary_staff")
	svc := NewSalaryService(database, testConfig(), directTx())
	ctx := context.Background()

	in := directorInput()
	in.Designation = "Motion Designer"
	in.Deductions = 2000
	in.Bonus = 500
	in.Status = models.SalaryStatusPaid
	s, err := svc.CreateSalary(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.PayeeRoleStaff, s.PayeeRole)
	assert.NotNil(t, s.PaymentDate)
	assertSalaryLedgers(t, database, s.ID, true, false, 48500)
}

func TestSalaryService_PaidEditUpdatesInPlace(t *testing.T) {
	database := setupLedgerDB(t, "salary_inplace")
	svc := NewSalaryService(database, testConfig(), directTx())
	ctx := context.Background()

	in := directorInput()
	in.Status = models.SalaryStatusPaid
	s, err := svc.CreateSalary(ctx, in)
	require.NoError(t, err)

	var before models.CashFlowEntry
	require.NoError(t, database.Collection(cashflowCollection).FindOne(ctx, bson.M{"salary_id": s.ID}).Decode(&before))
	var personalBefore models.PersonalAccountEntry
	require.NoError(t, database.Collection(personalAccountsCollection).FindOne(ctx, bson.M{"salary_id": s.ID}).Decode(&personalBefore))

	_, err = svc.UpdateSalary(ctx, s.ID, SalaryPatch{Bonus: ptr(5000.0), PaymentMethod: ptr("UPI")})
	require.NoError(t, err)
	assertSalaryLedgers(t, database, s.ID, true, true, 55000)

	var after models.CashFlowEntry
	require.NoError(t, database.Collection(cashflowCollection).FindOne(ctx, bson.M{"salary_id": s.ID}).Decode(&after))
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "UPI", after.PaymentMethod)
	var personalAfter models.PersonalAccountEntry
	require.NoError(t, database.Collection(personalAccountsCollection).FindOne(ctx, bson.M{"salary_id": s.ID}).Decode(&personalAfter))
	assert.Equal(t, personalBefore.ID, personalAfter.ID)
}

func TestSalaryService_UpdateRecordWithoutUpdatedAt(t *testing.T) {
	database := setupLedgerDB(t, "salary_legacy")
	svc := NewSalaryService(database, testConfig(), directTx())
	ctx := context.Background()

	s, err := svc.CreateSalary(ctx, directorInput())
	require.NoError(t, err)
	_, err = database.Collection(salariesCollection).UpdateOne(ctx, bson.M{"_id": s.ID}, bson.M{"$unset": bson.M{"updated_at": ""}})
	require.NoError(t, err)

	got, err := svc.UpdateSalary(ctx, s.ID, SalaryPatch{Status: ptr(models.SalaryStatusPaid)})
	require.NoError(t, err)
	assert.False(t, got.UpdatedAt.IsZero())
	assertSalaryLedgers(t, database, s.ID, true, true, 50000)

	// a stale read still loses against the now-stamped record
	stale := unchangedSince(s.ID, time.Time{})
	assert.EqualValues(t, 0, countDocs(t, database, salariesCollection, stale))
	assert.EqualValues(t, 1, countDocs(t, database, salariesCollection, unchangedSince(s.ID, got.UpdatedAt)))
}

func TestSalaryService_RoleChangeWhilePaid(t *testing.T) {
	database := setupLedgerDB(t, "salary_role_change")
	svc := NewSalaryService(database, testConfig(), directTx())
	ctx := context.Background()

	in := directorInput()
	in.Status = models.SalaryStatusPaid
	s, err := svc.CreateSalary(ctx, in)
	require.NoError(t, err)
	assertSalaryLedgers(t, database, s.ID, true, true, 50000)

	updated, err := svc.UpdateSalary(ctx, s.ID, SalaryPatch{Designation: ptr("Senior Editor")})
	require.NoError(t, err)
	assert.Equal(t, models.PayeeRoleStaff, updated.PayeeRole)
	assertSalaryLedgers(t, database, s.ID, true, false, 50000)

	updated, err = svc.UpdateSalary(ctx, s.ID, SalaryPatch{Designation: ptr("Owner")})
	require.NoError(t, err)
	assert.Equal(t, models.PayeeRoleOwner, updated.PayeeRole)
	assertSalaryLedgers(t, database, s.ID, true, true, 50000)
}

func TestSalaryService_DeleteCascades(t *testing.T) {
	database := setupLedgerDB(t, "salary_delete")
	svc := NewSalaryService(database, testConfig(), directTx())
	ctx := context.Background()

	in := directorInput()
	in.Status = models.SalaryStatusPaid
	s, err := svc.CreateSalary(ctx, in)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSalary(ctx, s.ID))
	assertSalaryLedgers(t, database, s.ID, false, true, 0)
	assert.EqualValues(t, 0, countDocs(t, database, salariesCollection, bson.M{"_id": s.ID}))

	assert.ErrorIs(t, svc.DeleteSalary(ctx, s.ID), apperrors.ErrNotFound)
	_, err = svc.UpdateSalary(ctx, s.ID, SalaryPatch{Notes: ptr("x")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSalaryService_InvalidInput(t *testing.T) {
	database := setupLedgerDB(t, "salary_invalid")
	svc := NewSalaryService(database, testConfig(), directTx())
	ctx := context.Background()

	in := directorInput()
	in.Month = "Thermidor"
	_, err := svc.CreateSalary(ctx, in)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	s, err := svc.CreateSalary(ctx, directorInput())
	require.NoError(t, err)
	_, err = svc.UpdateSalary(ctx, s.ID, SalaryPatch{Deductions: ptr(-5.0)})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assertSalaryLedgers(t, database, s.ID, false, true, 0)
}

func TestSalaryService_ListFilters(t *testing.T) {
	database := setupLedgerDB(t, "salary_list")
	svc := NewSalaryService(database, testConfig(), directTx())
	ctx := context.Background()

	_, err := svc.CreateSalary(ctx, directorInput())
	require.NoError(t, err)
	other := directorInput()
	other.EmployeeID = "E-18"
	other.Month = "Dec"
	other.Status = models.SalaryStatusPaid
	_, err = svc.CreateSalary(ctx, other)
	require.NoError(t, err)

	all, err := svc.ListSalaries(ctx, SalaryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	dec, err := svc.ListSalaries(ctx, SalaryFilter{Month: "december"})
	require.NoError(t, err)
	require.Len(t, dec, 1)
	assert.Equal(t, "E-18", dec[0].EmployeeID)

	paid, err := svc.ListSalaries(ctx, SalaryFilter{Status: models.SalaryStatusPaid, Year: 2024})
	require.NoError(t, err)
	assert.Len(t, paid, 1)
}

func TestRunSteps_CompensatesInReverse(t *testing.T) {
	var log []string
	mk := func(name string, fail bool) step {
		return step{
			name: name,
			apply: func(ctx context.Context) error {
				log = append(log, "apply "+name)
				if fail {
					return assert.AnError
				}
				return nil
			},
			undo: func(ctx context.Context) error {
				log = append(log, "undo "+name)
				return nil
			},
		}
	}
	err := runSteps(context.Background(), directTx(), mk("a", false), mk("b", false), mk("c", true), mk("d", false))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"apply a", "apply b", "apply c", "undo b", "undo a"}, log)
}
