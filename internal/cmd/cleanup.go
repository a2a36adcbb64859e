package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove sessions completed more than 24 hours ago",
	RunE:  runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	removed, err := app.store.CleanupOldSessions()
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d session(s)\n", removed)
	return nil
}
