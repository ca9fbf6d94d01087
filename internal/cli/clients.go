package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage clients",
	Long:  `List, add, edit, and delete clients.`,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		refresh, _ := cmd.Flags().GetBool("refresh")

		list, err := appInstance.ClientService.List(ctx, refresh)
		if err != nil {
			return fmt.Errorf("failed to list clients: %w", err)
		}

		if len(list.Clients) == 0 {
			fmt.Println("No clients found")
			return nil
		}
		printStale(list.Stale)

		// Print table header
		fmt.Printf("%-5s %-30s %-30s %-15s\n", "ID", "Name", "Email", "Phone")
		fmt.Println(strings.Repeat("-", 82))

		for _, client := range list.Clients {
			fmt.Printf("%-5d %-30s %-30s %-15s\n",
				client.ID,
				format.Truncate(client.Name, 30),
				format.Truncate(client.Email, 30),
				format.Truncate(client.Phone, 15),
			)
		}

		fmt.Printf("\nTotal: %d client(s)\n", len(list.Clients))
		return nil
	},
}

var clientsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		email, _ := cmd.Flags().GetString("email")
		phone, _ := cmd.Flags().GetString("phone")
		address, _ := cmd.Flags().GetString("address")

		client, err := appInstance.ClientService.Create(ctx, domain.ClientInput{
			Name:    args[0],
			Email:   email,
			Phone:   phone,
			Address: address,
		})
		if err != nil {
			return err
		}

		fmt.Printf("✓ Client created: %s (ID: %d)\n", client.Name, client.ID)
		return nil
	},
}

var clientsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show client details and invoices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "client")
		if err != nil {
			return err
		}

		client, err := appInstance.ClientService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get client: %w", err)
		}

		fmt.Printf("Name:    %s\n", client.Name)
		fmt.Printf("Email:   %s\n", client.Email)
		if client.Phone != "" {
			fmt.Printf("Phone:   %s\n", client.Phone)
		}
		if client.Address != "" {
			fmt.Printf("Address: %s\n", client.Address)
		}

		invoices, err := appInstance.InvoiceService.ListAll(ctx, &client.ID, nil)
		if err != nil {
			fmt.Printf("\n(could not load invoices: %v)\n", err)
			return nil
		}
		fmt.Printf("\n%d invoice(s)\n", len(invoices))
		for _, inv := range invoices {
			fmt.Printf("  %-15s %-10s %15s  due %s\n",
				inv.Number, inv.Status, format.Money(inv.Total, currencyOf(&inv)), format.Date(inv.DueDate))
		}
		return nil
	},
}

var clientsEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit an existing client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "client")
		if err != nil {
			return err
		}

		client, err := appInstance.ClientService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get client: %w", err)
		}

		// Update fields if flags provided
		in := client.Input()
		if cmd.Flags().Changed("name") {
			in.Name, _ = cmd.Flags().GetString("name")
		}
		if cmd.Flags().Changed("email") {
			in.Email, _ = cmd.Flags().GetString("email")
		}
		if cmd.Flags().Changed("phone") {
			in.Phone, _ = cmd.Flags().GetString("phone")
		}
		if cmd.Flags().Changed("address") {
			in.Address, _ = cmd.Flags().GetString("address")
		}

		updated, err := appInstance.ClientService.Update(ctx, id, in)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Client updated: %s\n", updated.Name)
		return nil
	},
}

var clientsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "client")
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirmPrompt(fmt.Sprintf("Delete client #%d?", id)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := appInstance.ClientService.Delete(ctx, id); err != nil {
			return err
		}

		fmt.Printf("✓ Client #%d deleted\n", id)
		return nil
	},
}

func init() {
	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsAddCmd)
	clientsCmd.AddCommand(clientsShowCmd)
	clientsCmd.AddCommand(clientsEditCmd)
	clientsCmd.AddCommand(clientsDeleteCmd)

	// List flags
	clientsListCmd.Flags().Bool("refresh", false, "Bypass the local cache")

	// Add flags
	clientsAddCmd.Flags().String("email", "", "Client email (required)")
	clientsAddCmd.MarkFlagRequired("email")
	clientsAddCmd.Flags().String("phone", "", "Client phone")
	clientsAddCmd.Flags().String("address", "", "Client address")

	// Edit flags
	clientsEditCmd.Flags().String("name", "", "New name")
	clientsEditCmd.Flags().String("email", "", "New email")
	clientsEditCmd.Flags().String("phone", "", "New phone")
	clientsEditCmd.Flags().String("address", "", "New address")

	clientsDeleteCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
}

// resolveClientID accepts a client ID or a case-insensitive name
func resolveClientID(ctx context.Context, arg string) (int64, error) {
	list, err := appInstance.ClientService.List(ctx, false)
	if err != nil {
		return 0, err
	}
	if id, err := parseID(arg, "client"); err == nil {
		for _, c := range list.Clients {
			if c.ID == id {
				return id, nil
			}
		}
		return 0, fmt.Errorf("client #%d not found", id)
	}
	for _, c := range list.Clients {
		if c.Matches(arg, "") {
			return c.ID, nil
		}
	}
	return 0, fmt.Errorf("client '%s' not found", arg)
}
