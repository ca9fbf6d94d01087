package render

import (
	"fmt"
	"io"

	"github.com/andy/invoicer/internal/format"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// PDF writes doc as an A4 PDF. Amounts use the currency code since the
// built-in fonts have no glyphs for most currency symbols.
func PDF(w io.Writer, doc Document) error {
	inv := doc.Invoice

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, "Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, doc.Number(), props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
			Top:   3,
		}),
	)

	// Meta
	m.AddRow(16,
		col.New(6).Add(
			text.New("Date of issue: "+format.Date(inv.IssuedDate), props.Text{Top: 0}),
			text.New("Date due: "+format.Date(inv.DueDate), props.Text{Top: 5}),
			text.New("Status: "+string(inv.Status), props.Text{Top: 10}),
		),
		col.New(6),
	)

	// Parties
	from, billTo := doc.From.lines(), doc.BillTo.lines()
	height := float64(8 + 5*max(len(from), len(billTo)))
	m.AddRow(height,
		partyCol("From", from),
		col.New(2),
		partyCol("Bill to", billTo),
	)

	m.AddRow(15,
		text.NewCol(12, format.MoneyCode(inv.Total, doc.Currency)+" due "+format.Date(inv.DueDate), props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	// Table header
	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range inv.Items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, format.Number(item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, format.MoneyCode(item.UnitPrice, doc.Currency), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, format.MoneyCode(item.Amount, doc.Currency), props.Text{Size: 9, Align: align.Right}),
		)
	}

	// Totals
	m.AddRow(8,
		col.New(7),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(3, format.MoneyCode(inv.Subtotal, doc.Currency), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(7),
		text.NewCol(2, "Tax ("+format.Percent(inv.Tax)+")", props.Text{Size: 9}),
		text.NewCol(3, format.MoneyCode(inv.TaxAmount(), doc.Currency), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(7),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(3, format.MoneyCode(inv.Total, doc.Currency), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	if inv.Notes != "" {
		m.AddRow(8, text.NewCol(12, "Notes", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}))
		m.AddRow(20, text.NewCol(12, inv.Notes, props.Text{Size: 9}))
	}
	if inv.PaymentLink != "" {
		m.AddRow(10, text.NewCol(12, "Pay online: "+inv.PaymentLink, props.Text{Size: 9, Top: 3}))
	}

	out, err := m.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate pdf: %w", err)
	}
	if _, err := w.Write(out.GetBytes()); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func partyCol(title string, lines []string) core.Col {
	components := []core.Component{text.New(title, props.Text{Style: fontstyle.Bold})}
	for i, line := range lines {
		components = append(components, text.New(line, props.Text{Top: float64(5 * (i + 1))}))
	}
	return col.New(5).Add(components...)
}
