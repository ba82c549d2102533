// Package invoicedoc renders invoices as standalone HTML documents.
package invoicedoc

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/mpiyush15/pixels-official-sub001/internal/models"
)

// Party is a bill-from or bill-to block.
type Party struct {
	Name    string
	Company string
	Address string
	Email   string
	Phone   string
	TaxID   string
}

// Document is everything needed to render one invoice.
type Document struct {
	Invoice  models.Invoice
	From     Party
	To       Party
	Currency string // falls back to Invoice.CurrencyCode, then INR
}

var ErrEmptyInvoice = errors.New("invoice has no number")

type lineView struct {
	Description string
	Quantity    string
	Rate        string
	Amount      string
}

type view struct {
	Number    string
	Status    string
	Watermark string
	IssueDate string
	DueDate   string
	PaidDate  string
	From      Party
	To        Party
	Lines     []lineView
	Subtotal  string
	Tax       string
	Total     string
	HasTax    bool
}

var watermarks = map[models.InvoiceStatus]string{
	models.InvoiceStatusPaid:      "PAID",
	models.InvoiceStatusDraft:     "DRAFT",
	models.InvoiceStatusSent:      "SENT",
	models.InvoiceStatusOverdue:   "OVERDUE",
	models.InvoiceStatusCancelled: "CANCELLED",
}

const dateLayout = "02 Jan 2006"

// Generate renders doc as HTML. The output depends only on doc.
func Generate(doc Document) ([]byte, error) {
	inv := doc.Invoice
	if inv.InvoiceNumber == "" {
		return nil, ErrEmptyInvoice
	}
	currency := doc.Currency
	if currency == "" {
		currency = inv.CurrencyCode
	}
	if currency == "" {
		currency = "INR"
	}

	v := view{
		Number:    inv.InvoiceNumber,
		Status:    string(inv.Status),
		Watermark: watermarks[inv.Status],
		IssueDate: formatDate(inv.IssueDate),
		DueDate:   formatDate(inv.DueDate),
		From:      doc.From,
		To:        doc.To,
		Subtotal:  FormatMoney(inv.Subtotal, currency),
		Tax:       FormatMoney(inv.Tax, currency),
		Total:     FormatMoney(inv.Total, currency),
		HasTax:    inv.Tax != 0,
	}
	if inv.PaidAt != nil {
		v.PaidDate = formatDate(*inv.PaidAt)
	}
	for _, it := range inv.Items {
		v.Lines = append(v.Lines, lineView{
			Description: it.Description,
			Quantity:    formatQuantity(it.Quantity),
			Rate:        FormatMoney(it.Rate, currency),
			Amount:      FormatMoney(it.Amount, currency),
		})
	}

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Invoice {{.Number}}</title>
<style>
body{font-family:Helvetica,Arial,sans-serif;color:#1f2937;margin:0;padding:40px;position:relative}
.watermark{position:fixed;top:40%;left:50%;transform:translate(-50%,-50%) rotate(-30deg);font-size:120px;font-weight:700;opacity:.08;pointer-events:none}
.status-paid .watermark{color:#16a34a}.status-overdue .watermark{color:#dc2626}.status-draft .watermark,.status-sent .watermark{color:#6b7280}
header{display:flex;justify-content:space-between;margin-bottom:32px}
.parties{display:flex;justify-content:space-between;margin-bottom:32px}
.party h3{margin:0 0 6px;font-size:12px;text-transform:uppercase;color:#6b7280}
table{width:100%;border-collapse:collapse}
th,td{padding:10px;border-bottom:1px solid #e5e7eb;text-align:left}
td.num,th.num{text-align:right}
.totals{margin-top:24px;width:40%;margin-left:auto}
.totals td{border:none}
.grand td{font-weight:700;border-top:2px solid #111827}
</style>
</head>
<body class="status-{{.Status}}">
{{if .Watermark}}<div class="watermark">{{.Watermark}}</div>{{end}}
<header>
<div><h1>INVOICE</h1><div>{{.Number}}</div></div>
<div>
<div>Issue date: {{.IssueDate}}</div>
{{if .DueDate}}<div>Due date: {{.DueDate}}</div>{{end}}
{{if .PaidDate}}<div>Paid on: {{.PaidDate}}</div>{{end}}
</div>
</header>
<section class="parties">
<div class="party from"><h3>Bill from</h3>
<div>{{.From.Name}}</div>{{with .From.Company}}<div>{{.}}</div>{{end}}{{with .From.Address}}<div>{{.}}</div>{{end}}{{with .From.Email}}<div>{{.}}</div>{{end}}{{with .From.Phone}}<div>{{.}}</div>{{end}}{{with .From.TaxID}}<div>Tax ID: {{.}}</div>{{end}}
</div>
<div class="party to"><h3>Bill to</h3>
<div>{{.To.Name}}</div>{{with .To.Company}}<div>{{.}}</div>{{end}}{{with .To.Address}}<div>{{.}}</div>{{end}}{{with .To.Email}}<div>{{.}}</div>{{end}}{{with .To.Phone}}<div>{{.}}</div>{{end}}
</div>
</section>
<table>
<thead><tr><th>Description</th><th class="num">Qty</th><th class="num">Rate</th><th class="num">Amount</th></tr></thead>
<tbody>
{{range .Lines}}<tr><td>{{.Description}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.Rate}}</td><td class="num">{{.Amount}}</td></tr>
{{end}}</tbody>
</table>
<table class="totals">
<tr><td>Subtotal</td><td class="num">{{.Subtotal}}</td></tr>
{{if .HasTax}}<tr><td>Tax</td><td class="num">{{.Tax}}</td></tr>{{end}}
<tr class="grand"><td>Total</td><td class="num">{{.Total}}</td></tr>
</table>
</body>
</html>
`))
