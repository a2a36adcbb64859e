// Package cmd wires the drover CLI: each subcommand builds its
// collaborators fresh from configuration, runs one operation against the
// shared state, and exits. Nothing is cached between invocations; the
// state file is the only thing commands share.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mkendall/drover/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "drover",
	Short: "Coordinate assistant sessions driven by synthetic input",
	Long: `Drover spawns and tracks multiple long-running assistant sessions,
driving an external chat application through deep links and synthetic
keyboard input, and coordinating an approval workflow over a shared
state file.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/drover/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/drover")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("DROVER")
	// Replace dots with underscores for nested keys in env vars
	// e.g., DROVER_TIMING_SETTLE_MS for timing.settle_ms
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
