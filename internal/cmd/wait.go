package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{
	Use:   "wait <sessionId>",
	Short: "Block until a session needs review or is fully approved",
	Long: `Watch the shared state file until either every agent in the session is
approved, or at least one agent has submitted work and awaits review.
Prints a snapshot of the agents pending review.`,
	Args: cobra.ExactArgs(1),
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
}

func runWait(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	result, err := app.manager.WaitForReview(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if result.AllApproved {
		fmt.Println("All agents approved")
		return nil
	}

	fmt.Printf("%d agent(s) awaiting review:\n", len(result.Pending))
	printAgents(result.Pending)
	return nil
}
