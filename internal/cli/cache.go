package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local encrypted cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached record and sign out",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirmPrompt("This will delete ALL cached clients, invoices and your session. Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := appInstance.ClearCache(context.Background()); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		fmt.Println("Cache cleared. Run 'invoicer auth login' to sign in again.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheClearCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
}
