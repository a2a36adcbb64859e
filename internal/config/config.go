package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete drover configuration
type Config struct {
	Target    TargetConfig    `mapstructure:"target"`
	Timing    TimingConfig    `mapstructure:"timing"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Paths     PathsConfig     `mapstructure:"paths"`
}

// PromptPlaceholder is the token in a deep-link template that the
// URL-encoded prompt replaces.
const PromptPlaceholder = "{prompt}"

// TargetConfig identifies the external assistant application being driven.
// drover has no feedback channel from the target; these values only shape
// the deep links it opens and the window it tries to activate.
type TargetConfig struct {
	// DeepLinkTemplate is the URL opened to start a new conversation.
	// The literal token {prompt} is replaced with the URL-encoded prompt.
	DeepLinkTemplate string `mapstructure:"deep_link_template"`
	// AppName is the application name used for window activation.
	AppName string `mapstructure:"app_name"`
}

// TimingConfig holds the delay constants used to sequence synthetic input.
// All values are injectable so tests can exercise ordering deterministically.
type TimingConfig struct {
	// TypeCharMs is the estimated time to type one character (default: 10)
	TypeCharMs int `mapstructure:"type_char_ms"`
	// SettleMs is the pause between typing text and pressing enter (default: 500)
	SettleMs int `mapstructure:"settle_ms"`
	// SubmitBaseMs is the minimum pause after submitting text (default: 1000)
	SubmitBaseMs int `mapstructure:"submit_base_ms"`
	// CommandGapMs is the pause between commands within a task (default: 2000)
	CommandGapMs int `mapstructure:"command_gap_ms"`
	// TaskGapMs is the pause between tasks of a job (default: 3000)
	TaskGapMs int `mapstructure:"task_gap_ms"`
	// OpenToEnterSec is the offset from opening the deep link to the first
	// enter press in detached mode (default: 2)
	OpenToEnterSec int `mapstructure:"open_to_enter_sec"`
	// SecondEnterSec is the offset to the second enter press (default: 4)
	SecondEnterSec int `mapstructure:"second_enter_sec"`
	// FollowUpBaseSec is the offset to the first follow-up prompt (default: 6)
	FollowUpBaseSec int `mapstructure:"follow_up_base_sec"`
	// FollowUpSpacingSec is the spacing between follow-up prompts (default: 4)
	FollowUpSpacingSec int `mapstructure:"follow_up_spacing_sec"`
}

// IDMismatchPolicy controls how a mismatch between a job's lookup key and
// the id field inside the job file is treated.
type IDMismatchPolicy string

const (
	// IDMismatchWarn records the mismatch as a warning but loads the job.
	IDMismatchWarn IDMismatchPolicy = "warn"
	// IDMismatchError rejects the job.
	IDMismatchError IDMismatchPolicy = "error"
)

// JobsConfig controls job loading and validation behavior
type JobsConfig struct {
	// IDMismatch is the severity of a job-id mismatch: "warn" or "error" (default: "warn")
	IDMismatch string `mapstructure:"id_mismatch"`
}

// LifecycleConfig controls the blocking approval-wait operations
type LifecycleConfig struct {
	// CompleteTimeoutMinutes bounds the complete-and-wait operation (default: 30)
	CompleteTimeoutMinutes int `mapstructure:"complete_timeout_minutes"`
	// PollIntervalSeconds is the re-check interval backing up the file watch (default: 2)
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// PathsConfig controls where drover stores data
type PathsConfig struct {
	// StateFile is the shared agent registry. If empty, defaults to
	// ~/.local/share/drover/agents.json. Supports ~ expansion.
	StateFile string `mapstructure:"state_file"`
	// LogDir is where debug logs are written. If empty, defaults to
	// ~/.local/share/drover. Supports ~ expansion.
	LogDir string `mapstructure:"log_dir"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Target: TargetConfig{
			DeepLinkTemplate: "assistant://new?prompt={prompt}",
			AppName:          "Assistant",
		},
		Timing: TimingConfig{
			TypeCharMs:         10,
			SettleMs:           500,
			SubmitBaseMs:       1000,
			CommandGapMs:       2000,
			TaskGapMs:          3000,
			OpenToEnterSec:     2,
			SecondEnterSec:     4,
			FollowUpBaseSec:    6,
			FollowUpSpacingSec: 4,
		},
		Jobs: JobsConfig{
			IDMismatch: string(IDMismatchWarn),
		},
		Lifecycle: LifecycleConfig{
			CompleteTimeoutMinutes: 30,
			PollIntervalSeconds:    2,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
		Paths: PathsConfig{
			StateFile: "",
			LogDir:    "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("target.deep_link_template", defaults.Target.DeepLinkTemplate)
	viper.SetDefault("target.app_name", defaults.Target.AppName)

	viper.SetDefault("timing.type_char_ms", defaults.Timing.TypeCharMs)
	viper.SetDefault("timing.settle_ms", defaults.Timing.SettleMs)
	viper.SetDefault("timing.submit_base_ms", defaults.Timing.SubmitBaseMs)
	viper.SetDefault("timing.command_gap_ms", defaults.Timing.CommandGapMs)
	viper.SetDefault("timing.task_gap_ms", defaults.Timing.TaskGapMs)
	viper.SetDefault("timing.open_to_enter_sec", defaults.Timing.OpenToEnterSec)
	viper.SetDefault("timing.second_enter_sec", defaults.Timing.SecondEnterSec)
	viper.SetDefault("timing.follow_up_base_sec", defaults.Timing.FollowUpBaseSec)
	viper.SetDefault("timing.follow_up_spacing_sec", defaults.Timing.FollowUpSpacingSec)

	viper.SetDefault("jobs.id_mismatch", defaults.Jobs.IDMismatch)

	viper.SetDefault("lifecycle.complete_timeout_minutes", defaults.Lifecycle.CompleteTimeoutMinutes)
	viper.SetDefault("lifecycle.poll_interval_seconds", defaults.Lifecycle.PollIntervalSeconds)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)

	viper.SetDefault("paths.state_file", defaults.Paths.StateFile)
	viper.SetDefault("paths.log_dir", defaults.Paths.LogDir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's global config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "drover")
	}
	// Fall back to ~/.config/drover
	home, err := os.UserHomeDir()
	if err != nil {
		return ".drover"
	}
	return filepath.Join(home, ".config", "drover")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir returns the path to the user's data directory
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "drover")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".drover"
	}
	return filepath.Join(home, ".local", "share", "drover")
}

// ProjectDirName is the per-repository scope directory, relative to the
// working directory.
const ProjectDirName = ".drover"

// ResolveStateFile returns the state file path, applying the default and
// ~ expansion.
func (p *PathsConfig) ResolveStateFile() string {
	if p.StateFile == "" {
		return filepath.Join(DataDir(), "agents.json")
	}
	return expandHome(p.StateFile)
}

// ResolveLogDir returns the log directory, applying the default and ~ expansion.
func (p *PathsConfig) ResolveLogDir() string {
	if p.LogDir == "" {
		return DataDir()
	}
	return expandHome(p.LogDir)
}

func expandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// CompleteTimeout returns the complete-and-wait timeout as a time.Duration
func (c *LifecycleConfig) CompleteTimeout() time.Duration {
	return time.Duration(c.CompleteTimeoutMinutes) * time.Minute
}

// PollInterval returns the poll interval as a time.Duration
func (c *LifecycleConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Policy returns the configured id-mismatch policy, defaulting to warn for
// unrecognized values.
func (j *JobsConfig) Policy() IDMismatchPolicy {
	if j.IDMismatch == string(IDMismatchError) {
		return IDMismatchError
	}
	return IDMismatchWarn
}
