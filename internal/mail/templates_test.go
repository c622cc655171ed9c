package mail

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildQuotationEmail(t *testing.T) {
	subject, html, err := BuildQuotationEmail(DocumentEmailData{
		ClientName:  "PT Maju Jaya",
		Number:      "Q-20250201-1A2B",
		PeriodLabel: "January 2025",
		Lines: []DocumentLine{
			{ProductName: "GWS Flexible", AmountIdr: 1760000},
		},
		SubtotalIdr: 1760000,
		TaxIdr:      193600,
		TotalIdr:    1953600,
	})
	require.NoError(t, err)
	require.Equal(t, "Quotation Q-20250201-1A2B - January 2025", subject)
	require.Contains(t, html, "PT Maju Jaya")
	require.Contains(t, html, "Rp 1.953.600")
	require.Contains(t, html, "GWS Flexible")
}

func TestBuildInvoiceEmail(t *testing.T) {
	subject, html, err := BuildInvoiceEmail(DocumentEmailData{
		ClientName:  "PT Maju Jaya",
		Number:      "INV-20250201-00FF",
		PeriodLabel: "January 2025",
		TotalIdr:    1953600,
		DueDate:     "2025-03-03",
	})
	require.NoError(t, err)
	require.Equal(t, "Invoice INV-20250201-00FF - January 2025", subject)
	require.Contains(t, html, "Rp 1.953.600")
	require.Contains(t, html, "2025-03-03")
}

func TestTemplatesEscapeClientInput(t *testing.T) {
	_, html, err := BuildQuotationEmail(DocumentEmailData{
		ClientName: "<script>alert(1)</script>",
		Number:     "Q-20250201-1A2B",
	})
	require.NoError(t, err)
	require.NotContains(t, html, "<script>")
}
