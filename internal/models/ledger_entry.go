package models

import (
	"time"

	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

type EntryType string

const (
	EntryTypeExpense EntryType = "expense"
	EntryTypeIncome  EntryType = "income"
)

// CategorySalary tags entries generated from a paid salary.
const CategorySalary = "salary"

// LedgerEntry is the shared shape of cash-flow and personal-account entries.
// SalaryID is set only on entries generated from a salary.
type LedgerEntry struct {
	Base            `bson:",inline"`
	Type            EntryType    `bson:"type" json:"type"`
	Category        string       `bson:"category" json:"category"`
	Amount          float64      `bson:"amount" json:"amount"`
	PaymentMethod   string       `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	BankName        string       `bson:"bank_name,omitempty" json:"bank_name,omitempty"`
	Reference       string       `bson:"reference,omitempty" json:"reference,omitempty"`
	Description     string       `bson:"description,omitempty" json:"description,omitempty"`
	TransactionDate time.Time    `bson:"transaction_date" json:"transaction_date"`
	SalaryID        *utils.SixID `bson:"salary_id,omitempty" json:"salary_id,omitempty"`
	EmployeeID      string       `bson:"employee_id,omitempty" json:"employee_id,omitempty"`
	Timestamps      `bson:",inline"`
}

// CashFlowEntry is a business-wide money movement.
type CashFlowEntry = LedgerEntry

// PersonalAccountEntry is a money movement scoped to an individual.
type PersonalAccountEntry = LedgerEntry
