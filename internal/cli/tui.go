package cli

import (
	"fmt"
	"os"

	"github.com/andy/invoicer/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the terminal UI",
	Long:  `Launch the interactive terminal user interface for invoicer.`,
	Run:   launchTUI,
}

func launchTUI(cmd *cobra.Command, args []string) {
	if !appInstance.Session.Current().Authenticated() {
		fmt.Println("Not signed in. Run 'invoicer auth login' first.")
		return
	}
	if err := tui.Run(appInstance); err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		os.Exit(1)
	}
}
