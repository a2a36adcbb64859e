// Package job loads and validates job definitions and the task-type
// mappings they resolve against.
//
// Jobs, task types, and command files live in two scopes: a per-repository
// .drover directory and the user's global config directory. Project entries
// are additive over global entries and override them on key collisions.
// Everything is read fresh from disk on each call; nothing is cached across
// command invocations.
package job

import "sort"

// Scope identifies where an entry was resolved from.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeGlobal  Scope = "global"
)

// Task is one unit of work within a job. Its type names an entry in the
// merged task-type mapping, which expands to an ordered command sequence.
type Task struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Files  []string `json:"files,omitempty"`
	Prompt string   `json:"prompt"`
}

// Job is a named goal broken into an ordered list of tasks.
type Job struct {
	ID    string `json:"id"`
	Goal  string `json:"goal"`
	Tasks []Task `json:"tasks"`
}

// TaskTypeMapping is the on-disk shape of a task-types file: type name to
// ordered command names.
type TaskTypeMapping map[string][]string

// TaskType is one merged task-type entry, annotated with the scope it
// resolved from.
type TaskType struct {
	Commands []string
	Scope    Scope
}

// Mapping is the effective task-type registry after merging scopes.
type Mapping map[string]TaskType

// Names returns the type names in sorted order, for stable error messages
// and listings.
func (m Mapping) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JobInfo is one entry in a job listing.
type JobInfo struct {
	ID    string
	Scope Scope
	Path  string
}

// DefaultTaskTypes is the mapping written to the global task-types file the
// first time it is needed.
func DefaultTaskTypes() TaskTypeMapping {
	return TaskTypeMapping{
		"feature":  {"plan", "implement", "test", "review"},
		"bugfix":   {"investigate", "implement", "test"},
		"refactor": {"implement", "review"},
		"docs":     {"document"},
	}
}
