package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
)

// Built-in templates, used when no override is stored for the id and locale.
var defaultEmailTemplates = map[string]models.EmailTemplate{
	models.TemplateWelcome: {
		TemplateID: models.TemplateWelcome,
		Locale:     models.DefaultLocale,
		Subject:    "Welcome to {{.app_name}}",
		Body:       "Hi {{.name}},\n\nYour client account with {{.app_name}} is ready. You can now follow your projects, approve phases and pay invoices from the client portal.\n\nThanks,\n{{.app_name}}",
	},
	models.TemplatePaymentConfirmation: {
		TemplateID: models.TemplatePaymentConfirmation,
		Locale:     models.DefaultLocale,
		Subject:    "Payment received for invoice {{.invoice_number}}",
		Body:       "Hi {{.name}},\n\nWe received your payment of {{.amount}} for invoice {{.invoice_number}}.{{if .document_url}}\n\nDownload the invoice: {{.document_url}}{{end}}\n\nThanks,\n{{.app_name}}",
	},
	models.TemplatePaymentReminder: {
		TemplateID: models.TemplatePaymentReminder,
		Locale:     models.DefaultLocale,
		Subject:    "Reminder: invoice {{.invoice_number}} is overdue",
		Body:       "Hi {{.name}},\n\nInvoice {{.invoice_number}} for {{.amount}} was due on {{.due_date}} and is still unpaid.\n{{if .document_url}}\nYou can view it here: {{.document_url}}\n{{end}}\nThanks,\n{{.app_name}}",
	},
	models.TemplateInvoice: {
		TemplateID: models.TemplateInvoice,
		Locale:     models.DefaultLocale,
		Subject:    "Invoice {{.invoice_number}} from {{.app_name}}",
		Body:       "Hi {{.name}},\n\nInvoice {{.invoice_number}} for {{.amount}} has been issued.{{if .document_url}}\n\nView it here: {{.document_url}}{{end}}\n\nThanks,\n{{.app_name}}",
	},
	models.TemplateProjectUpdate: {
		TemplateID: models.TemplateProjectUpdate,
		Locale:     models.DefaultLocale,
		Subject:    "Update on {{.project_name}}",
		Body:       "Hi {{.name}},\n\n{{.message}}\n\nThanks,\n{{.app_name}}",
	},
}

// IEmailTemplateService resolves email templates, preferring stored overrides.
type IEmailTemplateService interface {
	GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error)
	SaveTemplate(ctx context.Context, template *models.EmailTemplate) error
	DeleteTemplate(ctx context.Context, templateID, locale string) error
}

type emailTemplateService struct {
	db *mongo.Database
}

func NewEmailTemplateService(database *mongo.Database) IEmailTemplateService {
	return &emailTemplateService{db: database}
}

// GetTemplate returns the stored override for id and locale, falling back to the built-in.
func (s *emailTemplateService) GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error) {
	if locale == "" {
		locale = models.DefaultLocale
	}
	var template models.EmailTemplate
	err := s.db.Collection(emailTemplatesCollection).
		FindOne(ctx, bson.M{"template_id": templateID, "locale": locale}).
		Decode(&template)
	if err == nil {
		return &template, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, internalErr("find email template", err)
	}
	if def, ok := defaultEmailTemplates[templateID]; ok {
		return &def, nil
	}
	return nil, fmt.Errorf("template %s (locale %s): %w", templateID, locale, apperrors.ErrNotFound)
}

func (s *emailTemplateService) SaveTemplate(ctx context.Context, template *models.EmailTemplate) error {
	if template.TemplateID == "" {
		return fmt.Errorf("template id is required: %w", apperrors.ErrBadRequest)
	}
	if template.Locale == "" {
		template.Locale = models.DefaultLocale
	}
	template.GenIDIfEmpty()
	filter := bson.M{"template_id": template.TemplateID, "locale": template.Locale}
	update := bson.M{
		"$set":         bson.M{"subject": template.Subject, "body": template.Body},
		"$setOnInsert": bson.M{"_id": template.ID},
	}
	if _, err := s.db.Collection(emailTemplatesCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return internalErr("save email template", err)
	}
	return nil
}

func (s *emailTemplateService) DeleteTemplate(ctx context.Context, templateID, locale string) error {
	if locale == "" {
		locale = models.DefaultLocale
	}
	if _, err := s.db.Collection(emailTemplatesCollection).DeleteOne(ctx, bson.M{"template_id": templateID, "locale": locale}); err != nil {
		return internalErr("delete email template", err)
	}
	return nil
}
