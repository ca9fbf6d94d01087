package render

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/andy/invoicer/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice() domain.Invoice {
	issued, _ := domain.ParseDate("2024-01-15")
	due, _ := domain.ParseDate("2024-02-14")
	return domain.Invoice{
		ID:         12,
		Number:     "INV-0012",
		ClientID:   3,
		IssuedDate: issued,
		DueDate:    due,
		Items: []domain.InvoiceItem{
			{Description: "Design", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50), Amount: decimal.NewFromInt(100)},
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(25), Amount: decimal.NewFromInt(25)},
		},
		Subtotal: decimal.NewFromInt(125),
		Tax:      decimal.NewFromInt(10),
		Total:    decimal.RequireFromString("137.5"),
		Status:   domain.InvoiceStatusSent,
		Notes:    "Net 30",
	}
}

func TestNewDocument(t *testing.T) {
	inv := sampleInvoice()

	doc := NewDocument(inv, Party{Name: "Me"}, nil, "")
	assert.Equal(t, "Client #3", doc.BillTo.Name)
	assert.Equal(t, "NGN", doc.Currency)

	inv.Client = &domain.Client{Name: "Embedded"}
	doc = NewDocument(inv, Party{}, nil, "USD")
	assert.Equal(t, "Embedded", doc.BillTo.Name)
	assert.Equal(t, "USD", doc.Currency)

	inv.Currency = "EUR"
	doc = NewDocument(inv, Party{}, &domain.Client{Name: "Acme Corp"}, "USD")
	assert.Equal(t, "Acme Corp", doc.BillTo.Name)
	assert.Equal(t, "EUR", doc.Currency)
}

func TestFileName(t *testing.T) {
	doc := NewDocument(sampleInvoice(), Party{}, &domain.Client{Name: "Acme Corp & Sons"}, "")
	assert.Equal(t, "INV-0012-acme-corp-and-sons.pdf", FileName(doc, "pdf"))
	assert.Equal(t, "INV-0012-acme-corp-and-sons.txt", FileName(doc, ".txt"))
	assert.Equal(t, filepath.Join("out", "INV-0012-acme-corp-and-sons.pdf"), OutputPath("out", doc, "pdf"))

	inv := sampleInvoice()
	inv.Number = "2024/07 A"
	doc = NewDocument(inv, Party{}, &domain.Client{}, "")
	assert.Equal(t, "2024-07-A", FileName(doc, ""))

	inv.Number = ""
	doc = NewDocument(inv, Party{}, &domain.Client{Name: "Globex"}, "")
	assert.Equal(t, "INV-12-globex.pdf", FileName(doc, "pdf"))
}

func TestText(t *testing.T) {
	doc := NewDocument(sampleInvoice(),
		Party{Name: "Ada Lovelace", Email: "ada@example.test", Address: "1 Engine Way\nLondon"},
		&domain.Client{Name: "Acme Corp", Email: "ap@acme.test"},
		"USD",
	)

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, doc))
	out := buf.String()

	assert.Contains(t, out, "Invoice: INV-0012")
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "London")
	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "Design")
	assert.Contains(t, out, "$50.00")
	assert.Contains(t, out, "Tax (10%):")
	assert.Contains(t, out, "$12.50")
	assert.Contains(t, out, "$137.50")
	assert.Contains(t, out, "Net 30")
}

func TestPDF(t *testing.T) {
	doc := NewDocument(sampleInvoice(), Party{Name: "Ada"}, &domain.Client{Name: "Acme Corp"}, "USD")

	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, doc))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestExportText(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	doc := NewDocument(sampleInvoice(), Party{Name: "Me"}, &domain.Client{ID: 3, Name: "Acme Corp"}, "USD")

	path, err := Export(doc, FormatText, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "INV-0012-acme-corp.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INV-0012")
	assert.Contains(t, string(data), "Acme Corp")
}
