package tui

import (
	"fmt"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
	"github.com/shopspring/decimal"
)

// currencyFor returns the invoice's currency, falling back to the configured one
func currencyFor(a *app.App, inv *domain.Invoice) string {
	if inv != nil && inv.Currency != "" {
		return inv.Currency
	}
	return a.Config.Invoice.Currency
}

func formatMoney(a *app.App, inv *domain.Invoice, amount decimal.Decimal) string {
	return format.Money(amount, currencyFor(a, inv))
}

func statusLine(msg string) string {
	if msg == "" {
		return ""
	}
	return statusStyle.Render("  "+msg) + "\n\n"
}

func errorLine(err error) string {
	if err == nil {
		return ""
	}
	return errorStyle.Render(fmt.Sprintf("  Error: %v", err)) + "\n\n"
}

func staleLine(stale bool) string {
	if !stale {
		return ""
	}
	return warnStyle.Render("  Offline: showing cached data") + "\n\n"
}
