package models

import (
	"time"

	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

type Lead struct {
	Base              `bson:",inline"`
	Name              string       `bson:"name" json:"name"`
	Email             string       `bson:"email" json:"email"`
	Phone             string       `bson:"phone,omitempty" json:"phone,omitempty"`
	Company           string       `bson:"company,omitempty" json:"company,omitempty"`
	Source            string       `bson:"source,omitempty" json:"source,omitempty"`
	Notes             string       `bson:"notes,omitempty" json:"notes,omitempty"`
	Status            LeadStatus   `bson:"status" json:"status"`
	ConvertedClientID *utils.SixID `bson:"converted_client_id,omitempty" json:"converted_client_id,omitempty"`
	ConvertedAt       *time.Time   `bson:"converted_at,omitempty" json:"converted_at,omitempty"`
	Timestamps        `bson:",inline"`
}
