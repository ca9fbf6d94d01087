package cli

import (
	"errors"

	"github.com/andy/invoicer/internal/app"
	"github.com/spf13/cobra"
)

var appInstance *app.App

var errNoApp = errors.New("application not initialized")

var rootCmd = &cobra.Command{
	Use:   "invoicer",
	Short: "Create and track invoices from the terminal",
	Long: `Invoicer manages clients and invoices on your hosted invoicing account.

By default, running invoicer without arguments launches the interactive TUI.
Use subcommands for CLI operations.`,
	Version:       app.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appInstance == nil && cmd.Name() != "help" {
			return errNoApp
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Default behavior: launch TUI
		launchTUI(cmd, args)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

func init() {
	// Add all subcommands
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(billingCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(tuiCmd)
}
