package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var spawnRepository string

var spawnCmd = &cobra.Command{
	Use:   "spawn <prompt> [prompt...]",
	Short: "Spawn detached assistant sessions, one per prompt",
	Long: `Register a new session with one agent per prompt and schedule the
background automation that opens and seeds each assistant conversation.
The command returns immediately; the automation runs detached on the
computed schedule.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSpawn,
}

func init() {
	spawnCmd.Flags().StringVar(&spawnRepository, "repo", "", "repository the agents work in (recorded on each agent)")
	rootCmd.AddCommand(spawnCmd)
}

func runSpawn(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	spawner, err := app.spawner()
	if err != nil {
		return err
	}

	sessionID, agentIDs, err := spawner.SpawnSessions(args, spawnRepository)
	if err != nil {
		return err
	}

	fmt.Printf("Session: %s\n", sessionID)
	for i, id := range agentIDs {
		fmt.Printf("  agent %s: %s\n", id, summarize(args[i]))
	}
	return nil
}
