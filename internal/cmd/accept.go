package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var acceptCmd = &cobra.Command{
	Use:   "accept <agentId>",
	Short: "Approve an agent's submitted work",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccept,
}

func init() {
	rootCmd.AddCommand(acceptCmd)
}

func runAccept(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.manager.Accept(args[0]); err != nil {
		return err
	}
	fmt.Printf("Agent %s approved\n", args[0])
	return nil
}
