package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var taskTypesCmd = &cobra.Command{
	Use:   "task-types",
	Short: "Show the merged task-type mapping",
	Long: `Show every task type with its command sequence and the scope it
resolved from. Project entries override global entries with the same
name. Commands with no backing file are marked missing.`,
	RunE: runTaskTypes,
}

func init() {
	rootCmd.AddCommand(taskTypesCmd)
}

func runTaskTypes(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	repo := app.repository()
	types, err := repo.LoadTaskTypes()
	if err != nil {
		return err
	}

	for _, name := range types.Names() {
		tt := types[name]
		fmt.Printf("  %-12s  [%s]  %s\n", name, tt.Scope, strings.Join(tt.Commands, " -> "))
		if missing := repo.ValidateCommandsExist(tt.Commands); len(missing) > 0 {
			fmt.Printf("      missing commands: %s\n", strings.Join(missing, ", "))
		}
	}
	return nil
}
