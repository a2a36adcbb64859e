package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <jobId>",
	Short: "Execute a job's tasks sequentially in one assistant window",
	Long: `Validate the whole job up front, then drive every task in order
through one target window with real waits between steps. A job with
unknown task types or missing command files fails before anything is
typed.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	repo := app.repository()
	j, err := repo.LoadJob(args[0])
	if err != nil {
		return err
	}

	executor, err := app.executor()
	if err != nil {
		return err
	}

	fmt.Printf("Running job %s (%d tasks)\n", j.ID, len(j.Tasks))
	if err := executor.RunJob(cmd.Context(), repo, j); err != nil {
		return err
	}
	fmt.Println("Job finished")
	return nil
}
