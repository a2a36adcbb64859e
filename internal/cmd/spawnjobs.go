package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var spawnJobsRepository string

var spawnJobsCmd = &cobra.Command{
	Use:   "spawn-jobs <jobId> [jobId...]",
	Short: "Spawn one detached session per job",
	Long: `Load and validate each job, then spawn a detached session seeded with
the job's kickoff prompt. Any invalid job aborts the spawn before any
automation is scheduled.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSpawnJobs,
}

func init() {
	spawnJobsCmd.Flags().StringVar(&spawnJobsRepository, "repo", "", "repository the agents work in (recorded on each agent)")
	rootCmd.AddCommand(spawnJobsCmd)
}

func runSpawnJobs(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	spawner, err := app.spawner()
	if err != nil {
		return err
	}

	sessionID, agentIDs, err := spawner.SpawnJobs(app.repository(), args, spawnJobsRepository)
	if err != nil {
		return err
	}

	fmt.Printf("Session: %s\n", sessionID)
	for i, id := range agentIDs {
		fmt.Printf("  agent %s: job %s\n", id, args[i])
	}
	return nil
}
