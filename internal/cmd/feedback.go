package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <agentId> <message>",
	Short: "Request changes on an agent's submitted work",
	Args:  cobra.ExactArgs(2),
	RunE:  runFeedback,
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.manager.Feedback(args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Feedback recorded for agent %s\n", args[0])
	return nil
}
