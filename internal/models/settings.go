package models

import "time"

// BusinessSettingsKey is the _id of the single business settings document.
const BusinessSettingsKey = "business"

// BusinessSettings is the agency identity printed on invoices.
type BusinessSettings struct {
	Key          string    `bson:"_id" json:"-"`
	Name         string    `bson:"name" json:"name"`
	Address      string    `bson:"address" json:"address"`
	Email        string    `bson:"email" json:"email"`
	Phone        string    `bson:"phone" json:"phone"`
	TaxID        string    `bson:"tax_id" json:"taxId"`
	TaxRate      float64   `bson:"tax_rate" json:"taxRate"` // percent, applied to manually issued invoices
	CurrencyCode string    `bson:"currency_code" json:"currencyCode"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}
