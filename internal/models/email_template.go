package models

// EmailTemplate is an admin-editable override of a built-in email. Subject and Body are
// text/template sources rendered with the task payload data.
type EmailTemplate struct {
	Base       `bson:",inline"`
	TemplateID string `bson:"template_id" json:"template_id"` // e.g. "payment_confirmation"
	Locale     string `bson:"locale" json:"locale"`           // e.g. "en-IN"
	Subject    string `bson:"subject" json:"subject"`
	Body       string `bson:"body" json:"body"`
}

// Built-in template ids.
const (
	TemplateWelcome             = "welcome"
	TemplatePaymentConfirmation = "payment_confirmation"
	TemplatePaymentReminder     = "payment_reminder"
	TemplateInvoice             = "invoice"
	TemplateProjectUpdate       = "project_update"
)

// DefaultLocale is used when a payload names none.
const DefaultLocale = "en-IN"
