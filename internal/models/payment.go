package models

import (
	"time"

	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is append-only evidence that money moved. Unit lock state lives on the phase or video.
type Payment struct {
	Base          `bson:",inline"`
	InvoiceID     utils.SixID   `bson:"invoice_id" json:"invoice_id"`
	ClientID      utils.SixID   `bson:"client_id" json:"client_id"`
	ProjectID     *utils.SixID  `bson:"project_id,omitempty" json:"project_id,omitempty"`
	PhaseID       string        `bson:"phase_id,omitempty" json:"phase_id,omitempty"`
	VideoID       string        `bson:"video_id,omitempty" json:"video_id,omitempty"`
	Amount        float64       `bson:"amount" json:"amount"`
	PaymentMethod string        `bson:"payment_method" json:"payment_method"`
	PaymentDate   time.Time     `bson:"payment_date" json:"payment_date"`
	Status        PaymentStatus `bson:"status" json:"status"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
}
