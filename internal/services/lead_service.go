package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/db"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// ILeadService promotes leads to clients.
type ILeadService interface {
	ConvertLead(ctx context.Context, leadID utils.SixID) (*models.Client, error)
}

type leadService struct {
	db  *mongo.Database
	tx  db.TxRunner
	now func() time.Time
}

func NewLeadService(database *mongo.Database, tx db.TxRunner) ILeadService {
	return &leadService{
		db:  database,
		tx:  tx,
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// ConvertLead creates a client from the lead and marks the lead converted. A lead converts once.
func (s *leadService) ConvertLead(ctx context.Context, leadID utils.SixID) (*models.Client, error) {
	leads := s.db.Collection(leadsCollection)
	clients := s.db.Collection(clientsCollection)

	var lead models.Lead
	if err := leads.FindOne(ctx, bson.M{"_id": leadID}).Decode(&lead); err != nil {
		return nil, notFoundOr("find lead", err)
	}
	if lead.Status == models.LeadStatusConverted {
		return nil, fmt.Errorf("lead %s is already converted: %w", leadID, apperrors.ErrBadRequest)
	}
	if strings.TrimSpace(lead.Name) == "" || strings.TrimSpace(lead.Email) == "" {
		return nil, fmt.Errorf("lead %s needs a name and email before conversion: %w", leadID, apperrors.ErrBadRequest)
	}

	now := s.now()
	client := &models.Client{
		Base:         models.NewBase(),
		Name:         strings.TrimSpace(lead.Name),
		Email:        strings.ToLower(strings.TrimSpace(lead.Email)),
		Phone:        lead.Phone,
		Company:      lead.Company,
		Status:       models.ClientStatusActive,
		SourceLeadID: &lead.ID,
		Timestamps:   models.NewTimestamps(now),
	}

	err := runSteps(ctx, s.tx,
		step{
			name: "claim lead",
			apply: func(ctx context.Context) error {
				r, err := leads.UpdateOne(ctx,
					bson.M{"_id": leadID, "status": bson.M{"$ne": models.LeadStatusConverted}},
					bson.M{"$set": bson.M{
						"status":              models.LeadStatusConverted,
						"converted_client_id": client.ID,
						"converted_at":        now,
						"updated_at":          now,
					}},
				)
				if err != nil {
					return internalErr("claim lead", err)
				}
				if r.MatchedCount == 0 {
					return fmt.Errorf("lead %s is already converted: %w", leadID, apperrors.ErrBadRequest)
				}
				return nil
			},
			undo: func(ctx context.Context) error {
				_, err := leads.UpdateOne(ctx,
					bson.M{"_id": leadID, "converted_client_id": client.ID},
					bson.M{
						"$set":   bson.M{"status": lead.Status, "updated_at": lead.UpdatedAt},
						"$unset": bson.M{"converted_client_id": "", "converted_at": ""},
					},
				)
				return err
			},
		},
		step{
			name: "insert client",
			apply: func(ctx context.Context) error {
				if err := db.InsertWithID(ctx, clients, client); err != nil {
					return internalErr("insert client", err)
				}
				return nil
			},
		},
	)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "lead converted", "lead_id", leadID.String(), "client_id", client.ID.String())
	return client, nil
}
