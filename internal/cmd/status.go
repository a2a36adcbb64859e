package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mkendall/drover/internal/errors"
	"github.com/mkendall/drover/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status [sessionId]",
	Short: "Show a snapshot of tracked sessions and agents",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	reg := app.store.Load()

	if len(args) == 1 {
		session := reg.Session(args[0])
		if session == nil {
			return errors.NewNotFoundError("session", args[0])
		}
		printSession(args[0], session)
		return nil
	}

	if len(reg.Sessions) == 0 {
		fmt.Println("No tracked sessions")
		return nil
	}

	ids := make([]string, 0, len(reg.Sessions))
	for id := range reg.Sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		printSession(id, reg.Sessions[id])
		fmt.Println()
	}
	return nil
}

func printSession(id string, session *state.Session) {
	fmt.Printf("Session %s (created %s)\n", id, session.CreatedAt)
	if session.CompletedAt != "" {
		fmt.Printf("  completed %s\n", session.CompletedAt)
	}
	printAgents(session.Agents)
}
