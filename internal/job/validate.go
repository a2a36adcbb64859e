package job

import (
	"fmt"
	"strings"

	"github.com/mkendall/drover/internal/config"
)

// ValidateJobStructure checks an untyped job value before any type
// narrowing and returns every problem found as a human-readable string.
// An id field that differs from the lookup key is a problem only under the
// "error" mismatch policy; under "warn" it is logged and the job loads.
func (r *Repository) ValidateJobStructure(value any, expectedID string) []string {
	var problems []string

	obj, ok := value.(map[string]any)
	if !ok {
		return []string{"job must be a JSON object"}
	}

	id, ok := obj["id"].(string)
	switch {
	case obj["id"] == nil:
		problems = append(problems, "missing required field 'id'")
	case !ok:
		problems = append(problems, "field 'id' must be a string")
	case id != expectedID:
		mismatch := fmt.Sprintf("id %q does not match lookup key %q", id, expectedID)
		if r.IDMismatch == config.IDMismatchError {
			problems = append(problems, mismatch)
		} else {
			r.logger().Warn("job id mismatch", "id", id, "key", expectedID)
		}
	}

	if obj["goal"] == nil {
		problems = append(problems, "missing required field 'goal'")
	} else if _, ok := obj["goal"].(string); !ok {
		problems = append(problems, "field 'goal' must be a string")
	}

	tasks, ok := obj["tasks"].([]any)
	switch {
	case obj["tasks"] == nil:
		problems = append(problems, "missing required field 'tasks'")
	case !ok:
		problems = append(problems, "field 'tasks' must be an array")
	case len(tasks) == 0:
		problems = append(problems, "'tasks' must not be empty")
	}

	return problems
}

// ValidateTaskStructure checks one untyped task value against the merged
// task-type mapping. It returns the first problem found (empty string when
// the task is valid); exhaustive per-job accumulation is ValidateAllTasks'
// business. Index is zero-based; messages use one-based positions.
func ValidateTaskStructure(task any, index int, types Mapping) string {
	pos := index + 1

	obj, ok := task.(map[string]any)
	if !ok {
		return fmt.Sprintf("task %d: must be a JSON object", pos)
	}

	name, ok := obj["name"].(string)
	if !ok || name == "" {
		return fmt.Sprintf("task %d: missing or invalid 'name'", pos)
	}

	taskType, ok := obj["type"].(string)
	if !ok || taskType == "" {
		return fmt.Sprintf("task %d (%s): missing or invalid 'type'", pos, name)
	}
	if _, known := types[taskType]; !known {
		return fmt.Sprintf("task %d (%s): unknown type %q (available: %s)",
			pos, name, taskType, strings.Join(types.Names(), ", "))
	}

	if _, ok := obj["prompt"].(string); !ok {
		return fmt.Sprintf("task %d (%s): missing or invalid 'prompt'", pos, name)
	}

	if files, present := obj["files"]; present {
		list, ok := files.([]any)
		if !ok {
			return fmt.Sprintf("task %d (%s): 'files' must be an array of strings", pos, name)
		}
		for _, f := range list {
			if _, ok := f.(string); !ok {
				return fmt.Sprintf("task %d (%s): 'files' must be an array of strings", pos, name)
			}
		}
	}

	return ""
}

// ValidateAllTasks checks every task of a typed job, accumulating all
// problems: unknown task types and missing command files. Used before
// scheduling so a bad job fails fast instead of partially driving the
// target application.
func (r *Repository) ValidateAllTasks(job *Job, types Mapping) []string {
	var problems []string

	for i, task := range job.Tasks {
		pos := i + 1
		if task.Name == "" {
			problems = append(problems, fmt.Sprintf("task %d: missing 'name'", pos))
		}
		if task.Prompt == "" {
			problems = append(problems, fmt.Sprintf("task %d (%s): missing 'prompt'", pos, task.Name))
		}

		taskType, known := types[task.Type]
		if !known {
			problems = append(problems, fmt.Sprintf("task %d (%s): unknown type %q (available: %s)",
				pos, task.Name, task.Type, strings.Join(types.Names(), ", ")))
			continue
		}

		for _, cmd := range r.ValidateCommandsExist(taskType.Commands) {
			problems = append(problems, fmt.Sprintf("task %d (%s): command %q has no backing file in either scope",
				pos, task.Name, cmd))
		}
	}

	return problems
}
