package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalaryStatus string

const (
	SalaryStatusPending SalaryStatus = "pending"
	SalaryStatusPaid    SalaryStatus = "paid"
)

// PayeeRole is resolved once from the designation and stored on the salary.
type PayeeRole string

const (
	PayeeRoleOwner    PayeeRole = "owner"
	PayeeRoleDirector PayeeRole = "director"
	PayeeRoleAdmin    PayeeRole = "admin"
	PayeeRoleStaff    PayeeRole = "staff"
)

// MirrorsToPersonalAccount reports whether paid salaries for this role also land in the personal ledger.
func (r PayeeRole) MirrorsToPersonalAccount() bool {
	switch r {
	case PayeeRoleOwner, PayeeRoleDirector, PayeeRoleAdmin:
		return true
	}
	return false
}

type Salary struct {
	Base           `bson:",inline"`
	EmployeeID     string       `bson:"employee_id" json:"employee_id"`
	EmployeeName   string       `bson:"employee_name" json:"employee_name"`
	Designation    string       `bson:"designation" json:"designation"`
	PayeeRole      PayeeRole    `bson:"payee_role" json:"payee_role"`
	Month          string       `bson:"month" json:"month"`
	Year           int          `bson:"year" json:"year"`
	Amount         float64      `bson:"amount" json:"amount"`
	Deductions     float64      `bson:"deductions" json:"deductions"`
	Bonus          float64      `bson:"bonus" json:"bonus"`
	NetAmount      float64      `bson:"net_amount" json:"net_amount"`
	Status         SalaryStatus `bson:"status" json:"status"`
	PaymentMethod  string       `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	BankName       string       `bson:"bank_name,omitempty" json:"bank_name,omitempty"`
	AccountNumber  string       `bson:"account_number,omitempty" json:"account_number,omitempty"`
	TransactionRef string       `bson:"transaction_ref,omitempty" json:"transaction_ref,omitempty"`
	PaymentDate    *time.Time   `bson:"payment_date,omitempty" json:"payment_date,omitempty"`
	Notes          string       `bson:"notes,omitempty" json:"notes,omitempty"`
	Timestamps     `bson:",inline"`
}

// ComputeNetAmount returns amount - deductions + bonus, rounded to paise.
func ComputeNetAmount(amount, deductions, bonus float64) float64 {
	net := decimal.NewFromFloat(amount).
		Sub(decimal.NewFromFloat(deductions)).
		Add(decimal.NewFromFloat(bonus)).
		Round(2)
	f, _ := net.Float64()
	return f
}
