package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List known jobs across project and global scopes",
	RunE:  runJobs,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	jobs, err := app.repository().ListJobs()
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs defined")
		return nil
	}

	for _, info := range jobs {
		fmt.Printf("  %-24s  [%s]  %s\n", info.ID, info.Scope, info.Path)
	}
	return nil
}
