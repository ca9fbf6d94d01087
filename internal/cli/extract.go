package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andy/invoicer/internal/api"
	"github.com/andy/invoicer/internal/draft"
	"github.com/andy/invoicer/internal/format"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Draft an invoice from a job description or document",
	Long: `Send free text or a document (PDF, image, DOCX) to the extraction service
and print the invoice it suggests. With --create the suggestion is submitted.

Examples:
  invoicer extract "Website redesign for TechCorp, $1500, due March 1"
  invoicer extract --file brief.pdf --create
  invoicer extract "Logo design, 3 concepts" --set 1.qty=3 --set 1.price=200`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var text string
		if len(args) == 1 {
			text = args[0]
		}

		var upload *api.Upload
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()
			upload = &api.Upload{Name: filepath.Base(path), Reader: f}
		}

		data, err := appInstance.ExtractionService.Extract(ctx, text, upload)
		if err != nil {
			return err
		}

		seeded, err := appInstance.ExtractionService.Seed(ctx, *data)
		if err != nil {
			return err
		}
		d := seeded.Draft

		if cmd.Flags().Changed("client") {
			id, _ := cmd.Flags().GetInt64("client")
			if err := d.SetClient(id); err != nil {
				return err
			}
		}

		edits, _ := cmd.Flags().GetStringArray("set")
		warnings, err := applyItemEdits(d, edits)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %v\n", w)
		}

		currency := data.Currency
		if currency == "" {
			currency = appInstance.Config.Invoice.Currency
		}
		clientName := data.Client.Name
		if seeded.Client != nil {
			clientName = seeded.Client.Name
		}
		printSeededDraft(d.View(), seeded.Client != nil, seeded.ClientCreated, clientName, data.Confidence, currency)

		if create, _ := cmd.Flags().GetBool("create"); !create {
			fmt.Println("\nRun again with --create to submit this invoice.")
			return nil
		}

		inv, err := d.Submit(ctx, appInstance.InvoiceService)
		if err != nil {
			var verr draft.ValidationError
			if errors.As(err, &verr) {
				printValidation(os.Stderr, verr)
				return fmt.Errorf("invoice not created")
			}
			return err
		}
		fmt.Printf("\n✓ Invoice created: %s (ID: %d)\n", inv.Number, inv.ID)
		return nil
	},
}

func printSeededDraft(v draft.View, hasClient, created bool, clientName string, confidence float64, currency string) {
	switch {
	case hasClient && created:
		fmt.Printf("Client:  %s (new, #%d)\n", clientName, v.ClientID)
	case hasClient:
		fmt.Printf("Client:  %s (#%d)\n", clientName, v.ClientID)
	case v.ClientID > 0:
		fmt.Printf("Client:  #%d\n", v.ClientID)
	default:
		fmt.Println("Client:  (none found, pass --client)")
	}
	fmt.Printf("Issued:  %s\n", format.Date(v.Issued))
	fmt.Printf("Due:     %s\n", format.Date(v.Due))
	if confidence > 0 {
		fmt.Printf("Confidence: %.0f%%\n", confidence*100)
	}
	fmt.Println()

	fmt.Printf("%-40s %8s %14s %14s\n", "Description", "Qty", "Unit Price", "Amount")
	fmt.Println(strings.Repeat("-", 80))
	for _, item := range v.Items {
		fmt.Printf("%-40s %8g %14s %14s\n",
			format.Truncate(item.Description, 40),
			item.Quantity,
			format.MoneyFloat(item.UnitPrice, currency),
			format.MoneyFloat(item.Amount, currency),
		)
	}
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("%64s %15s\n", "Subtotal:", format.MoneyFloat(v.Totals.Subtotal, currency))
	fmt.Printf("%64s %15s\n", fmt.Sprintf("Tax (%g%%):", v.TaxRate), format.MoneyFloat(v.Totals.TaxAmount, currency))
	fmt.Printf("%64s %15s\n", "Total:", format.MoneyFloat(v.Totals.Total, currency))
	if v.Notes != "" {
		fmt.Printf("\nNotes: %s\n", v.Notes)
	}
}

func init() {
	extractCmd.Flags().StringP("file", "f", "", "Document to extract from")
	extractCmd.Flags().Int64("client", 0, "Bill this client instead of the extracted one")
	extractCmd.Flags().Bool("create", false, "Submit the extracted invoice")
	extractCmd.Flags().StringArray("set", nil, `Edit an extracted item as "N.field=value" (field: desc, qty or price; repeatable)`)
}
