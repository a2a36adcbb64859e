package job

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkendall/drover/internal/config"
	"github.com/mkendall/drover/internal/errors"
	"github.com/mkendall/drover/internal/logging"
)

const (
	jobsDirName      = "jobs"
	commandsDirName  = "commands"
	taskTypesFile    = "task-types.json"
	commandExtension = ".md"
)

// Repository resolves jobs, task types, and command files across the
// project and global scopes. The zero value uses the current directory's
// project scope and the user's global config directory.
type Repository struct {
	// ProjectDir is the directory whose .drover scope is consulted.
	// Defaults to the current working directory.
	ProjectDir string

	// GlobalDir is the global scope directory. Defaults to config.ConfigDir().
	GlobalDir string

	// IDMismatch controls whether a job whose id field differs from its
	// lookup key is loaded with a warning or rejected.
	IDMismatch config.IDMismatchPolicy

	Logger *logging.Logger
}

func (r *Repository) projectScope() string {
	dir := r.ProjectDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, config.ProjectDirName)
}

func (r *Repository) globalScope() string {
	if r.GlobalDir != "" {
		return r.GlobalDir
	}
	return config.ConfigDir()
}

func (r *Repository) scopeDir(scope Scope) string {
	if scope == ScopeProject {
		return r.projectScope()
	}
	return r.globalScope()
}

func (r *Repository) logger() *logging.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logging.NopLogger()
}

// LoadTaskTypes returns the effective task-type mapping: the global file
// merged with the optional project file, project entries overriding global
// ones by key. A missing global file is created with the built-in defaults
// so `drover task-types` is useful out of the box.
func (r *Repository) LoadTaskTypes() (Mapping, error) {
	globalPath := filepath.Join(r.globalScope(), taskTypesFile)
	globalTypes, err := readTaskTypesFile(globalPath)
	if err != nil {
		return nil, err
	}
	if globalTypes == nil {
		globalTypes = DefaultTaskTypes()
		if err := writeJSONFile(globalPath, globalTypes); err != nil {
			return nil, errors.Wrapf(err, "create default task types at %s", globalPath)
		}
		r.logger().Info("default task types created", "path", globalPath)
	}

	projectTypes, err := readTaskTypesFile(filepath.Join(r.projectScope(), taskTypesFile))
	if err != nil {
		return nil, err
	}

	merged := make(Mapping, len(globalTypes)+len(projectTypes))
	for name, commands := range globalTypes {
		merged[name] = TaskType{Commands: commands, Scope: ScopeGlobal}
	}
	for name, commands := range projectTypes {
		merged[name] = TaskType{Commands: commands, Scope: ScopeProject}
	}
	return merged, nil
}

// LoadJobRaw resolves a job file by id, project scope first, and parses it
// as untyped JSON. It returns the parsed value and the path it came from so
// validation errors can name the offending file.
func (r *Repository) LoadJobRaw(jobID string) (any, string, error) {
	for _, scope := range []Scope{ScopeProject, ScopeGlobal} {
		path := filepath.Join(r.scopeDir(scope), jobsDirName, jobID+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, path, errors.Wrapf(err, "read job file %s", path)
		}

		var value any
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, path, errors.NewValidationError(
				fmt.Sprintf("job file %s", path),
				fmt.Sprintf("not valid JSON: %v", err),
			)
		}
		return value, path, nil
	}
	return nil, "", errors.NewNotFoundError("job", jobID)
}

// LoadJob loads a job by id and fully validates it: structure, task types,
// and command existence. Any problem yields a ValidationError listing every
// issue found.
func (r *Repository) LoadJob(jobID string) (*Job, error) {
	raw, path, err := r.LoadJobRaw(jobID)
	if err != nil {
		return nil, err
	}

	if problems := r.ValidateJobStructure(raw, jobID); len(problems) > 0 {
		return nil, errors.NewValidationError(fmt.Sprintf("job '%s' (%s)", jobID, path), problems...)
	}

	job, err := decodeJob(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "decode job '%s'", jobID)
	}

	types, err := r.LoadTaskTypes()
	if err != nil {
		return nil, err
	}
	if problems := r.ValidateAllTasks(job, types); len(problems) > 0 {
		return nil, errors.NewValidationError(fmt.Sprintf("job '%s' (%s)", jobID, path), problems...)
	}
	return job, nil
}

// ListJobs returns every known job across both scopes, sorted by id, with a
// project-scoped file shadowing a global one of the same id.
func (r *Repository) ListJobs() ([]JobInfo, error) {
	byID := make(map[string]JobInfo)
	for _, scope := range []Scope{ScopeGlobal, ScopeProject} {
		dir := filepath.Join(r.scopeDir(scope), jobsDirName)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "list jobs in %s", dir)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".json") {
				continue
			}
			id := strings.TrimSuffix(name, ".json")
			byID[id] = JobInfo{ID: id, Scope: scope, Path: filepath.Join(dir, name)}
		}
	}

	jobs := make([]JobInfo, 0, len(byID))
	for _, info := range byID {
		jobs = append(jobs, info)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs, nil
}

// SaveJob writes a job definition into the given scope's jobs directory.
func (r *Repository) SaveJob(job *Job, scope Scope) error {
	if job.ID == "" {
		return errors.NewValidationError("job", "id is required")
	}
	path := filepath.Join(r.scopeDir(scope), jobsDirName, job.ID+".json")
	return writeJSONFile(path, job)
}

// SaveTaskTypes writes a task-type mapping into the given scope.
func (r *Repository) SaveTaskTypes(types TaskTypeMapping, scope Scope) error {
	return writeJSONFile(filepath.Join(r.scopeDir(scope), taskTypesFile), types)
}

// CommandExists reports whether a command file backs the given name in
// either scope. Content is opaque; presence is the whole contract.
func (r *Repository) CommandExists(name string) bool {
	for _, scope := range []Scope{ScopeProject, ScopeGlobal} {
		path := filepath.Join(r.scopeDir(scope), commandsDirName, name+commandExtension)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// ValidateCommandsExist returns the subset of names with no backing command
// file in either scope.
func (r *Repository) ValidateCommandsExist(names []string) []string {
	var missing []string
	for _, name := range names {
		if !r.CommandExists(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// readTaskTypesFile reads one scope's task-types file. A missing file is
// (nil, nil).
func readTaskTypesFile(path string) (TaskTypeMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read task types %s", path)
	}

	var types TaskTypeMapping
	if err := json.Unmarshal(data, &types); err != nil {
		return nil, errors.NewValidationError(
			fmt.Sprintf("task types file %s", path),
			fmt.Sprintf("not valid JSON: %v", err),
		)
	}
	return types, nil
}

// decodeJob narrows an already-validated untyped job value.
func decodeJob(raw any) (*Job, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// writeJSONFile writes indented JSON, creating parent directories.
func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
