package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/gits-cloud/billing/internal/money"
)

// DocumentLine is a billing line as shown in an outgoing email.
type DocumentLine struct {
	ProductName string
	AmountIdr   int64
}

// DocumentEmailData feeds the quotation and invoice email templates.
type DocumentEmailData struct {
	ClientName  string
	Number      string
	PeriodLabel string
	Lines       []DocumentLine
	SubtotalIdr int64
	TaxIdr      int64
	TotalIdr    int64
	DueDate     string
}

var templateFuncs = template.FuncMap{
	"idr": money.FormatIDR,
}

var quotationTemplate = template.Must(template.New("quotation").Funcs(templateFuncs).Parse(`<p>Dear {{.ClientName}},</p>
<p>Please find attached quotation <strong>{{.Number}}</strong> for the billing period {{.PeriodLabel}}.</p>
<table>
{{range .Lines}}<tr><td>{{.ProductName}}</td><td>{{idr .AmountIdr}}</td></tr>
{{end}}</table>
<p>Subtotal: {{idr .SubtotalIdr}}<br>
PPN: {{idr .TaxIdr}}<br>
<strong>Total: {{idr .TotalIdr}}</strong></p>
<p>Kindly confirm so we can proceed with the invoice.</p>`))

var invoiceTemplate = template.Must(template.New("invoice").Funcs(templateFuncs).Parse(`<p>Dear {{.ClientName}},</p>
<p>Please find attached invoice <strong>{{.Number}}</strong> for the billing period {{.PeriodLabel}}.</p>
<p><strong>Total due: {{idr .TotalIdr}}</strong>{{if .DueDate}}, payable by {{.DueDate}}{{end}}.</p>
<p>The tax invoice (faktur pajak) is attached where available.</p>`))

// BuildQuotationEmail composes the default subject and body for sending a
// quotation.
func BuildQuotationEmail(data DocumentEmailData) (subject, html string, err error) {
	subject = fmt.Sprintf("Quotation %s - %s", data.Number, data.PeriodLabel)
	html, err = render(quotationTemplate, data)
	return subject, html, err
}

// BuildInvoiceEmail composes the default subject and body for sending an
// invoice.
func BuildInvoiceEmail(data DocumentEmailData) (subject, html string, err error) {
	subject = fmt.Sprintf("Invoice %s - %s", data.Number, data.PeriodLabel)
	html, err = render(invoiceTemplate, data)
	return subject, html, err
}

func render(tpl *template.Template, data DocumentEmailData) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return buf.String(), nil
}
