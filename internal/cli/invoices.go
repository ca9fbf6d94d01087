package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/draft"
	"github.com/andy/invoicer/internal/format"
	"github.com/andy/invoicer/internal/render"
	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage invoices",
	Long:  `Create, list, and manage invoices.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Parse filters
		params := domain.InvoiceListParams{}
		if cmd.Flags().Changed("client") {
			id, _ := cmd.Flags().GetInt64("client")
			params.ClientID = &id
		}
		if cmd.Flags().Changed("status") {
			statusStr, _ := cmd.Flags().GetString("status")
			s, err := domain.ParseInvoiceStatus(statusStr)
			if err != nil {
				return err
			}
			params.Status = &s
		}
		if cmd.Flags().Changed("after") {
			cursor, _ := cmd.Flags().GetInt64("after")
			params.Cursor = &cursor
		}
		params.Limit, _ = cmd.Flags().GetInt("limit")

		var (
			invoices []domain.Invoice
			next     *int64
		)
		if all, _ := cmd.Flags().GetBool("all"); all {
			var err error
			invoices, err = appInstance.InvoiceService.ListAll(ctx, params.ClientID, params.Status)
			if err != nil {
				return fmt.Errorf("failed to list invoices: %w", err)
			}
		} else {
			page, err := appInstance.InvoiceService.List(ctx, params)
			if err != nil {
				return fmt.Errorf("failed to list invoices: %w", err)
			}
			printStale(page.Stale)
			invoices, next = page.Invoices, page.NextCursor
		}

		if len(invoices) == 0 {
			fmt.Println("No invoices found")
			return nil
		}

		// Print table header
		fmt.Printf("%-5s %-15s %-24s %-12s %15s %-8s\n", "ID", "Number", "Client", "Due", "Total", "Status")
		fmt.Println(strings.Repeat("-", 84))

		for _, inv := range invoices {
			fmt.Printf("%-5d %-15s %-24s %-12s %15s %-8s\n",
				inv.ID,
				format.Truncate(inv.Number, 15),
				format.Truncate(inv.ClientName(), 24),
				format.Date(inv.DueDate),
				format.Money(inv.Total, currencyOf(&inv)),
				inv.Status,
			)
		}

		fmt.Printf("\nTotal: %d invoice(s)\n", len(invoices))
		if next != nil && params.Limit > 0 && len(invoices) == params.Limit {
			fmt.Printf("More: invoicer invoices list --after %d\n", *next)
		}
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show invoice details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		doc, err := loadDocument(ctx, args[0])
		if err != nil {
			return err
		}
		return render.Text(os.Stdout, doc)
	},
}

var invoicesCreateCmd = &cobra.Command{
	Use:   "create [client_id_or_name]",
	Short: "Create an invoice",
	Long: `Create an invoice from line items given on the command line.

Examples:
  invoicer invoices create acme --item "Design:2:50" --item "Hosting:1:25" --tax 7.5
  invoicer invoices create 4 --item "Consulting:10:120" --due 2024-03-01 --notes "Net 30"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Resolve client
		clientID, err := resolveClientID(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve client: %w", err)
		}

		svc := appInstance.InvoiceService
		d := svc.NewDraft(clientID)

		f := draftFlags{DueDays: svc.Defaults().DueDays}
		f.Items, _ = cmd.Flags().GetStringArray("item")
		f.Tax, _ = cmd.Flags().GetString("tax")
		f.TaxSet = cmd.Flags().Changed("tax")
		f.Issued, _ = cmd.Flags().GetString("issued")
		f.Due, _ = cmd.Flags().GetString("due")
		f.Notes, _ = cmd.Flags().GetString("notes")

		warnings, err := applyDraftFlags(d, f, time.Now())
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %v\n", w)
		}

		inv, err := d.Submit(ctx, svc)
		if err != nil {
			var verr draft.ValidationError
			if errors.As(err, &verr) {
				printValidation(os.Stderr, verr)
				return fmt.Errorf("invoice not created")
			}
			return err
		}

		fmt.Printf("✓ Invoice created: %s (ID: %d)\n", inv.Number, inv.ID)
		fmt.Printf("  Total: %s\n", format.Money(inv.Total, currencyOf(inv)))
		fmt.Printf("  Due:   %s\n", format.Date(inv.DueDate))
		return nil
	},
}

var invoicesStatusCmd = &cobra.Command{
	Use:   "status [id] [draft|sent|paid|overdue]",
	Short: "Change an invoice's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}
		status, err := domain.ParseInvoiceStatus(strings.ToLower(args[1]))
		if err != nil {
			return err
		}

		inv, err := appInstance.InvoiceService.UpdateStatus(ctx, id, status)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Invoice %s marked as %s\n", inv.Number, inv.Status)
		return nil
	},
}

var invoicesNotesCmd = &cobra.Command{
	Use:   "notes [id] [text]",
	Short: "Replace the notes of a draft invoice",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		inv, err := appInstance.InvoiceService.UpdateNotes(context.Background(), id, args[1])
		if err != nil {
			return err
		}

		fmt.Printf("✓ Notes updated on %s\n", inv.Number)
		return nil
	},
}

var invoicesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirmPrompt(fmt.Sprintf("Delete invoice #%d?", id)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := appInstance.InvoiceService.Delete(context.Background(), id); err != nil {
			return err
		}

		fmt.Printf("✓ Invoice #%d deleted\n", id)
		return nil
	},
}

var invoicesRemindCmd = &cobra.Command{
	Use:   "remind [id]",
	Short: "Email a payment reminder to the client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		res, err := appInstance.InvoiceService.SendReminder(context.Background(), id)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Reminder %s for invoice #%d\n", res.Status, id)
		return nil
	},
}

var invoicesExportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Render an invoice to a PDF or text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		kind, _ := cmd.Flags().GetString("format")
		dir, _ := cmd.Flags().GetString("output")
		if dir == "" {
			dir = appInstance.Config.Invoice.OutputDir
		}

		f, err := render.ParseFormat(kind)
		if err != nil {
			return err
		}

		doc, err := loadDocument(ctx, args[0])
		if err != nil {
			return err
		}

		path, err := render.Export(doc, f, dir)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Exported to %s\n", path)
		return nil
	},
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesCreateCmd)
	invoicesCmd.AddCommand(invoicesStatusCmd)
	invoicesCmd.AddCommand(invoicesNotesCmd)
	invoicesCmd.AddCommand(invoicesDeleteCmd)
	invoicesCmd.AddCommand(invoicesRemindCmd)
	invoicesCmd.AddCommand(invoicesExportCmd)

	// List flags
	invoicesListCmd.Flags().Int64("client", 0, "Filter by client ID")
	invoicesListCmd.Flags().String("status", "", "Filter by status (draft, sent, paid, overdue)")
	invoicesListCmd.Flags().Int("limit", 50, "Page size (max 100)")
	invoicesListCmd.Flags().Int64("after", 0, "Start after this invoice ID")
	invoicesListCmd.Flags().Bool("all", false, "Load every page")

	// Create flags
	invoicesCreateCmd.Flags().StringArray("item", nil, `Line item as "description:quantity:price" (repeatable)`)
	invoicesCreateCmd.Flags().String("tax", "", "Tax rate in percent (e.g. 7.5)")
	invoicesCreateCmd.Flags().String("issued", "", "Issued date (YYYY-MM-DD, defaults to today)")
	invoicesCreateCmd.Flags().String("due", "", "Due date (YYYY-MM-DD, defaults to issued + due days)")
	invoicesCreateCmd.Flags().String("notes", "", "Notes printed on the invoice")

	invoicesDeleteCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")

	// Export flags
	invoicesExportCmd.Flags().String("format", "pdf", "Output format (pdf or text)")
	invoicesExportCmd.Flags().StringP("output", "o", "", "Output directory (defaults to invoice.output_dir)")
}

func loadDocument(ctx context.Context, arg string) (render.Document, error) {
	id, err := parseID(arg, "invoice")
	if err != nil {
		return render.Document{}, err
	}
	return appInstance.Document(ctx, id)
}
