package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
	"github.com/spf13/cobra"
)

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Manage your subscription",
}

var billingStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show your subscription",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := appInstance.BillingService.Status(context.Background())
		if err != nil {
			return err
		}

		plan := "free"
		if status.Active() {
			plan = "pro"
		}
		fmt.Printf("Plan:     %s\n", plan)
		if status.SubscriptionProvider != nil {
			fmt.Printf("Provider: %s\n", *status.SubscriptionProvider)
		}
		if status.SubscriptionEndDate != nil {
			fmt.Printf("Ends:     %s\n", status.SubscriptionEndDate.Format("2006-01-02"))
		}
		if status.DaysRemaining != nil {
			fmt.Printf("Days left: %d\n", *status.DaysRemaining)
		}
		return nil
	},
}

var billingSubscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Start a pro subscription checkout",
	RunE: func(cmd *cobra.Command, args []string) error {
		providerStr, _ := cmd.Flags().GetString("provider")
		currency, _ := cmd.Flags().GetString("currency")
		callback, _ := cmd.Flags().GetString("callback")

		provider, err := domain.ParsePaymentProvider(providerStr)
		if err != nil {
			return err
		}

		checkout, err := appInstance.BillingService.Subscribe(context.Background(), provider, currency, callback)
		if err != nil {
			return err
		}

		fmt.Println("Open this link to complete payment:")
		fmt.Printf("  %s\n", checkout.PaymentURL)
		fmt.Printf("\nThen run: invoicer billing verify %s --provider %s\n", checkout.Reference, provider)
		return nil
	},
}

var billingVerifyCmd = &cobra.Command{
	Use:   "verify [reference]",
	Short: "Confirm a completed checkout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		providerStr, _ := cmd.Flags().GetString("provider")
		provider, err := domain.ParsePaymentProvider(providerStr)
		if err != nil {
			return err
		}

		res, err := appInstance.BillingService.Verify(context.Background(), args[0], provider)
		if err != nil {
			return err
		}

		fmt.Printf("✓ %s\n", res.Message)
		return nil
	},
}

var billingHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List past payments",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		payments, err := appInstance.BillingService.History(context.Background(), limit, 0)
		if err != nil {
			return err
		}
		if len(payments) == 0 {
			fmt.Println("No payments found")
			return nil
		}

		fmt.Printf("%-12s %-10s %15s %-10s %s\n", "Date", "Provider", "Amount", "Status", "Description")
		fmt.Println(strings.Repeat("-", 80))
		for _, p := range payments {
			fmt.Printf("%-12s %-10s %15s %-10s %s\n",
				p.CreatedAt.Format("2006-01-02"),
				p.Provider,
				format.Money(p.Amount, p.Currency),
				p.Status,
				format.Truncate(p.Description, 30),
			)
		}
		return nil
	},
}

func init() {
	billingCmd.AddCommand(billingStatusCmd)
	billingCmd.AddCommand(billingSubscribeCmd)
	billingCmd.AddCommand(billingVerifyCmd)
	billingCmd.AddCommand(billingHistoryCmd)

	billingSubscribeCmd.Flags().String("provider", string(domain.ProviderPaystack), "Payment provider (paystack or stripe)")
	billingSubscribeCmd.Flags().String("currency", "", "Currency (defaults to NGN for paystack, USD for stripe)")
	billingSubscribeCmd.Flags().String("callback", "", "URL to return to after payment")

	billingVerifyCmd.Flags().String("provider", string(domain.ProviderPaystack), "Payment provider (paystack or stripe)")

	billingHistoryCmd.Flags().Int("limit", 20, "Number of payments to show")
}
