package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var completeTimeoutMinutes int

var completeCmd = &cobra.Command{
	Use:   "complete <agentId> [message]",
	Short: "Submit an agent's work and wait for the verdict",
	Long: `Move the agent to pending verification, optionally recording a return
message, then block until a reviewer accepts the work or requests
changes. Times out (default 30 minutes) with the agent still awaiting
verification.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runComplete,
}

func init() {
	completeCmd.Flags().IntVar(&completeTimeoutMinutes, "timeout-minutes", 0, "how long to wait for a verdict (default from config)")
	rootCmd.AddCommand(completeCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	message := ""
	if len(args) > 1 {
		message = args[1]
	}

	timeout := app.cfg.Lifecycle.CompleteTimeout()
	if completeTimeoutMinutes > 0 {
		timeout = time.Duration(completeTimeoutMinutes) * time.Minute
	}

	result, err := app.manager.CompleteAndWait(cmd.Context(), args[0], message, timeout)
	if err != nil {
		return err
	}

	if result.Approved {
		fmt.Println("Approved")
		return nil
	}
	fmt.Printf("Feedback received:\n%s\n", result.Feedback)
	return nil
}
