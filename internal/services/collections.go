package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
)

const (
	clientsCollection           = "clients"
	projectsCollection          = "projects"
	invoicesCollection          = "invoices"
	paymentsCollection          = "payments"
	salariesCollection          = "salaries"
	cashflowCollection          = "cashflow"
	personalAccountsCollection  = "personal_accounts"
	leadsCollection             = "leads"
	workSubmissionsCollection   = "work_submissions"
	tasksCollection             = "tasks"
	readNotificationsCollection = "read_notifications"
	settingsCollection          = "settings"
	emailTemplatesCollection    = "email_templates"
)

// EnsureIndexes creates the indexes the services rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		invoicesCollection: {
			{Keys: bson.D{{Key: "invoice_number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "client_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}}},
		},
		paymentsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "payment_date", Value: -1}}},
		},
		projectsCollection: {
			{Keys: bson.D{{Key: "client_id", Value: 1}}},
			{Keys: bson.D{{Key: "contract_accepted_at", Value: -1}}},
			{Keys: bson.D{{Key: "status_changed_at", Value: -1}}},
		},
		salariesCollection: {
			{Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "year", Value: -1}, {Key: "month", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		cashflowCollection: {
			{Keys: bson.D{{Key: "salary_id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "transaction_date", Value: -1}}},
		},
		personalAccountsCollection: {
			{Keys: bson.D{{Key: "salary_id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		workSubmissionsCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		tasksCollection: {
			{Keys: bson.D{{Key: "assignee_id", Value: 1}}},
		},
		readNotificationsCollection: {
			{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "actor_kind", Value: 1}, {Key: "notification_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		emailTemplatesCollection: {
			{Keys: bson.D{{Key: "template_id", Value: 1}, {Key: "locale", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, idx := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	slog.Info("ensured MongoDB indexes", "collections", len(specs))
	return nil
}

// internalErr tags a store failure as ErrInternal while keeping the cause inspectable.
func internalErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(apperrors.ErrInternal, err))
}

// notFoundOr maps mongo.ErrNoDocuments to ErrNotFound and anything else to ErrInternal.
func notFoundOr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	return internalErr(op, err)
}
