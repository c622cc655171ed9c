package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/gits-cloud/billing/internal/money"
	"github.com/gits-cloud/billing/internal/shared"
)

// DocumentLine is a billing line as rendered on a PDF document.
type DocumentLine struct {
	ProductName   string
	PricingType   string
	QuantityTotal string
	AmountUsd     string
	AmountIdr     int64
}

// DocumentData feeds the quotation and invoice PDF templates.
type DocumentData struct {
	Title         string
	Number        string
	IssuedAt      string
	DueDate       string
	ClientName    string
	ClientAddress string
	ClientNPWP    string
	PeriodLabel   string
	FxRate        string
	TaxLabel      string
	Lines         []DocumentLine
	SubtotalUsd   string
	SubtotalIdr   int64
	TaxIdr        int64
	TotalIdr      int64
}

var documentTemplate = template.Must(template.New("document").Funcs(template.FuncMap{
	"idr": money.FormatIDR,
}).Parse(`<html>
<head><style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th, td { border: 1px solid #444; padding: 6px 8px; text-align: left; }
td.num, th.num { text-align: right; }
.totals td { border: none; }
</style></head>
<body>
<h1>{{.Title}} {{.Number}}</h1>
<p>Date: {{.IssuedAt}}{{if .DueDate}}<br>Due: {{.DueDate}}{{end}}</p>
<p><strong>{{.ClientName}}</strong><br>{{.ClientAddress}}{{if .ClientNPWP}}<br>NPWP: {{.ClientNPWP}}{{end}}</p>
<p>Billing period: {{.PeriodLabel}}<br>Exchange rate: USD 1 = IDR {{.FxRate}}</p>
<table>
<tr><th>Product</th><th>Model</th><th class="num">Qty</th><th class="num">USD</th><th class="num">IDR</th></tr>
{{range .Lines}}<tr><td>{{.ProductName}}</td><td>{{.PricingType}}</td><td class="num">{{.QuantityTotal}}</td><td class="num">{{.AmountUsd}}</td><td class="num">{{idr .AmountIdr}}</td></tr>
{{end}}</table>
<table class="totals">
<tr><td>Subtotal (USD)</td><td class="num">{{.SubtotalUsd}}</td></tr>
<tr><td>Subtotal (IDR)</td><td class="num">{{idr .SubtotalIdr}}</td></tr>
<tr><td>PPN {{.TaxLabel}}</td><td class="num">{{idr .TaxIdr}}</td></tr>
<tr><td><strong>Total (IDR)</strong></td><td class="num"><strong>{{idr .TotalIdr}}</strong></td></tr>
</table>
</body>
</html>`))

// Renderer turns billing documents into stored PDF files.
type Renderer struct {
	client     *Client
	storageDir string
}

// NewRenderer builds a Renderer writing under storageDir.
func NewRenderer(client *Client, storageDir string) *Renderer {
	return &Renderer{client: client, storageDir: storageDir}
}

// RenderQuotation renders and stores a quotation PDF, returning its path.
func (r *Renderer) RenderQuotation(ctx context.Context, data DocumentData) (string, error) {
	data.Title = "Quotation"
	return r.render(ctx, "quotations", data)
}

// RenderInvoice renders and stores an invoice PDF, returning its path.
func (r *Renderer) RenderInvoice(ctx context.Context, data DocumentData) (string, error) {
	data.Title = "Invoice"
	return r.render(ctx, "invoices", data)
}

func (r *Renderer) render(ctx context.Context, subdir string, data DocumentData) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render document html: %w", err)
	}
	pdf, err := r.client.RenderHTML(ctx, buf.String())
	if err != nil {
		return "", shared.ExternalError("render pdf", err)
	}
	dir := filepath.Join(r.storageDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}
	path := filepath.Join(dir, data.Number+".pdf")
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", fmt.Errorf("store pdf: %w", err)
	}
	return path, nil
}
