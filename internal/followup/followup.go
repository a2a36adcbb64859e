// Package followup resolves the ordered list of follow-up prompts typed
// into each spawned session after its initial prompt.
//
// Resolution priority: environment override, then the project config file,
// then the global config file, then built-in defaults. A source only wins
// when it yields at least one prompt; unreadable or malformed files are
// skipped with a warning rather than failing the spawn.
package followup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkendall/drover/internal/config"
	"github.com/mkendall/drover/internal/logging"
)

// EnvVar overrides the follow-up prompt list. Accepted forms: a JSON array
// of strings, a pipe-delimited list, or a single prompt string.
const EnvVar = "DROVER_FOLLOW_UP_PROMPTS"

// AgentIDPlaceholder is substituted with the agent's id wherever it appears
// in a prompt.
const AgentIDPlaceholder = "{agentId}"

// Source identifies where a prompt list was resolved from.
type Source string

const (
	SourceEnvironment Source = "environment"
	SourceProject     Source = "project"
	SourceGlobal      Source = "global"
	SourceDefault     Source = "default"
)

// configFile is the on-disk shape of a drover config file. Only the prompt
// list matters here; unknown fields are ignored.
type configFile struct {
	FollowUpPrompts []string `json:"followUpPrompts"`
}

// defaultPrompts are used when no other source provides prompts.
var defaultPrompts = []string{
	"You are agent {agentId}. Work through the task autonomously and do not stop to ask questions.",
	"When the work is finished, report back by running: drover complete {agentId} \"<summary of what you did>\". If you receive feedback, address it and complete again.",
}

// Resolver locates the effective follow-up prompt list. The zero value
// resolves against the real environment, the current directory's project
// scope, and the user's global config directory.
type Resolver struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string

	// ProjectDir is the directory whose .drover scope is consulted.
	// Defaults to the current working directory.
	ProjectDir string

	// GlobalDir is the global config directory. Defaults to config.ConfigDir().
	GlobalDir string

	Logger *logging.Logger
}

// DefaultPrompts returns a copy of the built-in prompt templates.
func DefaultPrompts() []string {
	out := make([]string, len(defaultPrompts))
	copy(out, defaultPrompts)
	return out
}

// Resolve returns the effective prompt templates and the source they came
// from. It never fails: the built-in defaults are the final fallback.
func (r *Resolver) Resolve() ([]string, Source) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	if prompts := parseEnvValue(getenv(EnvVar)); len(prompts) > 0 {
		return prompts, SourceEnvironment
	}

	if prompts := r.readFile(r.projectConfigPath(), logger); len(prompts) > 0 {
		return prompts, SourceProject
	}
	if prompts := r.readFile(r.globalConfigPath(), logger); len(prompts) > 0 {
		return prompts, SourceGlobal
	}

	return DefaultPrompts(), SourceDefault
}

// ForAgent resolves the prompt list and substitutes the agent id into each
// template.
func (r *Resolver) ForAgent(agentID string) []string {
	templates, _ := r.Resolve()
	return Substitute(templates, agentID)
}

// Substitute replaces the agent id placeholder in each template.
func Substitute(templates []string, agentID string) []string {
	out := make([]string, len(templates))
	for i, tmpl := range templates {
		out[i] = strings.ReplaceAll(tmpl, AgentIDPlaceholder, agentID)
	}
	return out
}

func (r *Resolver) projectConfigPath() string {
	dir := r.ProjectDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, config.ProjectDirName, "config.json")
}

func (r *Resolver) globalConfigPath() string {
	dir := r.GlobalDir
	if dir == "" {
		dir = config.ConfigDir()
	}
	return filepath.Join(dir, "config.json")
}

// readFile loads the prompt list from one config file. Any failure yields
// nil so resolution falls through to the next source.
func (r *Resolver) readFile(path string, logger *logging.Logger) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("follow-up config unreadable, skipping", "path", path, "error", err.Error())
		}
		return nil
	}

	var cfg configFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		logger.Warn("follow-up config malformed, skipping", "path", path, "error", err.Error())
		return nil
	}
	return cleanPrompts(cfg.FollowUpPrompts)
}

// parseEnvValue interprets the environment override. A JSON array, a
// pipe-delimited list, and a bare string are all accepted.
func parseEnvValue(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if strings.HasPrefix(value, "[") {
		var prompts []string
		if err := json.Unmarshal([]byte(value), &prompts); err == nil {
			return cleanPrompts(prompts)
		}
		// Not valid JSON after all; fall through and treat it literally.
	}

	if strings.Contains(value, "|") {
		return cleanPrompts(strings.Split(value, "|"))
	}
	return []string{value}
}

// cleanPrompts trims entries and drops empties.
func cleanPrompts(prompts []string) []string {
	var out []string
	for _, p := range prompts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
