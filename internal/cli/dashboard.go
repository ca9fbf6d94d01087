package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/invoicer/internal/format"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show revenue and invoice counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		currency := appInstance.Config.Invoice.Currency

		stats, err := appInstance.DashboardService.Stats(ctx, 5)
		if err != nil {
			return fmt.Errorf("failed to load dashboard: %w", err)
		}
		printStale(stats.Stale)

		fmt.Printf("Revenue:      %s\n", format.Money(stats.Revenue, currency))
		fmt.Printf("Outstanding:  %s\n", format.Money(stats.Outstanding, currency))
		fmt.Printf("Clients:      %d\n", stats.TotalClients)
		fmt.Printf("Invoices:     %d (%d paid, %d unpaid, %d overdue)\n",
			stats.TotalInvoices, stats.Paid, stats.Unpaid, stats.Overdue)

		if len(stats.Recent) > 0 {
			now := time.Now()
			fmt.Println("\nRecent invoices:")
			for _, inv := range stats.Recent {
				fmt.Printf("  %-15s %-24s %15s  %-8s due %s\n",
					inv.Number,
					format.Truncate(inv.ClientName(), 24),
					format.Money(inv.Total, currencyOf(&inv)),
					inv.Status,
					format.Relative(inv.DueDate, now),
				)
			}
		}
		return nil
	},
}
