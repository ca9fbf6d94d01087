package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/andy/invoicer/internal/format"
)

const textWidth = 80

// Text writes doc as a fixed-width plain text invoice
func Text(w io.Writer, doc Document) error {
	inv := doc.Invoice
	bw := bufio.NewWriter(w)

	rule := strings.Repeat("=", textWidth)
	thin := strings.Repeat("-", textWidth)

	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Invoice: %s\n", doc.Number())
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Issued: %s    Due: %s    Status: %s\n",
		format.Date(inv.IssuedDate), format.Date(inv.DueDate), inv.Status)
	fmt.Fprintln(bw)

	from, billTo := doc.From.lines(), doc.BillTo.lines()
	fmt.Fprintf(bw, "%-40s%s\n", "From:", "Bill To:")
	for i := 0; i < max(len(from), len(billTo)); i++ {
		var left, right string
		if i < len(from) {
			left = format.Truncate(from[i], 38)
		}
		if i < len(billTo) {
			right = billTo[i]
		}
		fmt.Fprintf(bw, "%-40s%s\n", left, right)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, thin)
	fmt.Fprintf(bw, "%-40s %8s %14s %14s\n", "Description", "Qty", "Unit Price", "Amount")
	fmt.Fprintln(bw, thin)
	for _, item := range inv.Items {
		fmt.Fprintf(bw, "%-40s %8s %14s %14s\n",
			format.Truncate(item.Description, 40),
			format.Number(item.Quantity),
			format.Money(item.UnitPrice, doc.Currency),
			format.Money(item.Amount, doc.Currency),
		)
	}
	fmt.Fprintln(bw, thin)

	fmt.Fprintf(bw, "%64s %15s\n", "Subtotal:", format.Money(inv.Subtotal, doc.Currency))
	fmt.Fprintf(bw, "%64s %15s\n", "Tax ("+format.Percent(inv.Tax)+"):", format.Money(inv.TaxAmount(), doc.Currency))
	fmt.Fprintf(bw, "%64s %15s\n", "Total:", format.Money(inv.Total, doc.Currency))
	fmt.Fprintln(bw, rule)

	if inv.Notes != "" {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "Notes:")
		fmt.Fprintln(bw, inv.Notes)
	}
	if inv.PaymentLink != "" {
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "Pay online: %s\n", inv.PaymentLink)
	}

	return bw.Flush()
}
