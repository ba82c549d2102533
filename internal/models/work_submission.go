package models

import (
	"time"

	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusApproved  SubmissionStatus = "approved"
	SubmissionStatusRejected  SubmissionStatus = "rejected"
	SubmissionStatusConverted SubmissionStatus = "converted"
)

// WorkSubmission is a client's request for new work, optionally with uploaded files.
type WorkSubmission struct {
	Base        `bson:",inline"`
	ClientID    utils.SixID      `bson:"client_id" json:"client_id"`
	Title       string           `bson:"title" json:"title"`
	Description string           `bson:"description,omitempty" json:"description,omitempty"`
	ProjectType ProjectType      `bson:"project_type" json:"project_type"`
	FileKeys    []string         `bson:"file_keys,omitempty" json:"file_keys,omitempty"`
	Status      SubmissionStatus `bson:"status" json:"status"`
	ProjectID   *utils.SixID     `bson:"project_id,omitempty" json:"project_id,omitempty"`
	ConvertedAt *time.Time       `bson:"converted_at,omitempty" json:"converted_at,omitempty"`
	Timestamps  `bson:",inline"`
}
