package models

import (
	"time"

	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// ProjectType decides which billable unit a project carries.
type ProjectType string

const (
	ProjectTypeDevelopment ProjectType = "development" // billed by phases
	ProjectTypeVideo       ProjectType = "video"       // billed by videos
)

// ProjectStatus is the overall status of a project.
type ProjectStatus string

const (
	ProjectStatusPending   ProjectStatus = "pending"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on-hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// PhaseStatus is the lifecycle status of a phase.
type PhaseStatus string

const (
	PhaseStatusLocked     PhaseStatus = "locked"
	PhaseStatusUnlocked   PhaseStatus = "unlocked"
	PhaseStatusInProgress PhaseStatus = "in-progress"
	PhaseStatusCompleted  PhaseStatus = "completed"
)

// VideoStatus is the production status of a video.
type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusInProgress VideoStatus = "in-progress"
	VideoStatusCompleted  VideoStatus = "completed"
)

// PaymentState is the pay state shared by phases and videos.
type PaymentState string

const (
	PaymentStateUnpaid PaymentState = "unpaid"
	PaymentStatePaid   PaymentState = "paid"
)

// PhaseUpdate is a progress note posted on a phase.
type PhaseUpdate struct {
	Message   string    `bson:"message" json:"message"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Phase is a sequential billable unit of a development project.
// PaymentStatus only ever becomes paid through the payment processor.
type Phase struct {
	ID            string        `bson:"id" json:"id"`
	Name          string        `bson:"name" json:"name"`
	Description   string        `bson:"description,omitempty" json:"description,omitempty"`
	Amount        float64       `bson:"amount" json:"amount"`
	Status        PhaseStatus   `bson:"status" json:"status"`
	PaymentStatus PaymentState  `bson:"payment_status" json:"payment_status"`
	InvoiceID     *utils.SixID  `bson:"invoice_id,omitempty" json:"invoice_id,omitempty"`
	Updates       []PhaseUpdate `bson:"updates" json:"updates"`
}

// Video is an independent billable unit of a video project.
type Video struct {
	ID             string       `bson:"id" json:"id"`
	Title          string       `bson:"title" json:"title"`
	Amount         float64      `bson:"amount" json:"amount"`
	Status         VideoStatus  `bson:"status" json:"status"`
	PaymentStatus  PaymentState `bson:"payment_status" json:"payment_status"`
	InvoiceID      *utils.SixID `bson:"invoice_id,omitempty" json:"invoice_id,omitempty"`
	DeliverableURL string       `bson:"deliverable_url,omitempty" json:"deliverable_url,omitempty"`
}

// Project is a client engagement. It carries Phases or Videos depending on Type, never both.
type Project struct {
	Base               `bson:",inline"`
	ClientID           utils.SixID   `bson:"client_id" json:"client_id"`
	Name               string        `bson:"name" json:"name"`
	Type               ProjectType   `bson:"type" json:"type"`
	Status             ProjectStatus `bson:"status" json:"status"`
	Phases             []Phase       `bson:"phases,omitempty" json:"phases,omitempty"`
	Videos             []Video       `bson:"videos,omitempty" json:"videos,omitempty"`
	TotalAmount        float64       `bson:"total_amount" json:"total_amount"`
	ContractAccepted   bool          `bson:"contract_accepted" json:"contract_accepted"`
	ContractAcceptedAt *time.Time    `bson:"contract_accepted_at,omitempty" json:"contract_accepted_at,omitempty"`
	StatusChangedAt    *time.Time    `bson:"status_changed_at,omitempty" json:"status_changed_at,omitempty"`
	SourceSubmissionID *utils.SixID  `bson:"source_submission_id,omitempty" json:"source_submission_id,omitempty"`
	Timestamps         `bson:",inline"`
}

// FindPhase returns the phase with the given id, or nil.
func (p *Project) FindPhase(id string) *Phase {
	for i := range p.Phases {
		if p.Phases[i].ID == id {
			return &p.Phases[i]
		}
	}
	return nil
}

// FindVideo returns the video with the given id, or nil.
func (p *Project) FindVideo(id string) *Video {
	for i := range p.Videos {
		if p.Videos[i].ID == id {
			return &p.Videos[i]
		}
	}
	return nil
}
