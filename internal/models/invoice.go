package models

import (
	"time"

	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// InvoiceStatus is the billing status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
)

// InvoiceLineItem represents a single line item within an invoice.
type InvoiceLineItem struct {
	Description string  `bson:"description" json:"description"`
	Quantity    float64 `bson:"quantity" json:"quantity"`
	Rate        float64 `bson:"rate" json:"rate"`
	Amount      float64 `bson:"amount" json:"amount"`
}

// Invoice represents a bill issued to a client.
type Invoice struct {
	Base          `bson:",inline"`
	InvoiceNumber string            `bson:"invoice_number" json:"invoice_number"` // INV-0001 style, unique
	ClientID      utils.SixID       `bson:"client_id" json:"client_id"`
	ProjectID     *utils.SixID      `bson:"project_id,omitempty" json:"project_id,omitempty"`
	PhaseID       string            `bson:"phase_id,omitempty" json:"phase_id,omitempty"`
	VideoID       string            `bson:"video_id,omitempty" json:"video_id,omitempty"`
	Items         []InvoiceLineItem `bson:"items" json:"items"`
	CurrencyCode  string            `bson:"currency_code" json:"currency_code"`
	Subtotal      float64           `bson:"subtotal" json:"subtotal"`
	Tax           float64           `bson:"tax" json:"tax"`
	Total         float64           `bson:"total" json:"total"`
	Status        InvoiceStatus     `bson:"status" json:"status"`
	IssueDate     time.Time         `bson:"issue_date" json:"issue_date"`
	DueDate       time.Time         `bson:"due_date" json:"due_date"`
	PaidAt        *time.Time        `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	OverdueAt     *time.Time        `bson:"overdue_at,omitempty" json:"overdue_at,omitempty"`
	// Set once the overdue reminder has been queued for this invoice.
	OverdueNotified bool      `bson:"overdue_notified,omitempty" json:"-"`
	DocumentKey     string    `bson:"document_key,omitempty" json:"document_key,omitempty"`
	DocumentURL     string    `bson:"document_url,omitempty" json:"document_url,omitempty"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}
