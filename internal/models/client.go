package models

import (
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

type Client struct {
	Base         `bson:",inline"`
	Name         string       `bson:"name" json:"name"`
	Email        string       `bson:"email" json:"email"`
	Phone        string       `bson:"phone,omitempty" json:"phone,omitempty"`
	Company      string       `bson:"company,omitempty" json:"company,omitempty"`
	Address      string       `bson:"address,omitempty" json:"address,omitempty"`
	Status       string       `bson:"status" json:"status"`
	SourceLeadID *utils.SixID `bson:"source_lead_id,omitempty" json:"source_lead_id,omitempty"`
	Timestamps   `bson:",inline"`
}

const ClientStatusActive = "active"
