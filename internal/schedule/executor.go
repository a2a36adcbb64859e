package schedule

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkendall/drover/internal/config"
	"github.com/mkendall/drover/internal/errors"
	"github.com/mkendall/drover/internal/job"
	"github.com/mkendall/drover/internal/logging"
	"github.com/mkendall/drover/internal/platform"
)

// Executor runs the sequential mode: one target window driven through many
// ordered steps with real waits between them, so ordering is guaranteed by
// construction.
type Executor struct {
	Adapter platform.Adapter
	Sleeper Sleeper
	Timing  Timing
	Target  config.TargetConfig
	Logger  *logging.Logger
}

// NewExecutor builds an Executor with production timing and sleeping.
func NewExecutor(adapter platform.Adapter, target config.TargetConfig, timing Timing, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Executor{
		Adapter: adapter,
		Sleeper: RealSleeper{},
		Timing:  timing,
		Target:  target,
		Logger:  logger,
	}
}

// RunPrompt opens a new target conversation seeded with the given prompt.
func (e *Executor) RunPrompt(ctx context.Context, prompt string) error {
	link := DeepLink(e.Target.DeepLinkTemplate, prompt)
	if err := e.Adapter.OpenURL(ctx, link); err != nil {
		return errors.Wrapf(err, "open deep link")
	}
	e.Sleeper.Sleep(e.Timing.submitSettle(prompt))
	return nil
}

// RunJob validates the whole job up front and then drives every task in
// order through one target window. Validation failure means nothing was
// typed: a job with unresolvable task types or missing commands must not
// partially execute.
func (e *Executor) RunJob(ctx context.Context, repo *job.Repository, j *job.Job) error {
	types, err := repo.LoadTaskTypes()
	if err != nil {
		return err
	}
	if problems := repo.ValidateAllTasks(j, types); len(problems) > 0 {
		return errors.NewValidationError(fmt.Sprintf("job '%s'", j.ID), problems...)
	}

	logger := e.Logger.WithJob(j.ID)
	logger.Info("job execution started", "tasks", len(j.Tasks))

	if err := e.RunPrompt(ctx, jobKickoff(j)); err != nil {
		return err
	}

	for i, task := range j.Tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Info("task started", "task", task.Name, "position", i+1)

		if err := e.submitText(ctx, taskKickoff(task)); err != nil {
			return errors.Wrapf(err, "task %d (%s) kickoff", i+1, task.Name)
		}
		e.Sleeper.Sleep(e.Timing.CommandGap)

		for _, cmd := range types[task.Type].Commands {
			if err := e.submitCommand(ctx, "/"+cmd); err != nil {
				return errors.Wrapf(err, "task %d (%s) command %s", i+1, task.Name, cmd)
			}
			e.Sleeper.Sleep(e.Timing.CommandGap)
		}

		e.Sleeper.Sleep(e.Timing.TaskGap)
	}

	logger.Info("job execution finished")
	return nil
}

// submitText performs one typed submission: focus, type, settle, enter,
// then a length-dependent pause for the target to process.
func (e *Executor) submitText(ctx context.Context, text string) error {
	e.activate(ctx)

	if err := e.Adapter.TypeText(ctx, text, int(e.Timing.TypeCharDelay.Milliseconds())); err != nil {
		return err
	}
	e.Sleeper.Sleep(e.Timing.Settle)

	if err := e.Adapter.PressEnter(ctx); err != nil {
		return err
	}
	e.Sleeper.Sleep(e.Timing.submitSettle(text))
	return nil
}

// submitCommand submits a command with the two-enter pattern: the first
// enter selects the command in the target's picker, the second submits it.
func (e *Executor) submitCommand(ctx context.Context, command string) error {
	if err := e.submitText(ctx, command); err != nil {
		return err
	}
	if err := e.Adapter.PressEnter(ctx); err != nil {
		return err
	}
	e.Sleeper.Sleep(e.Timing.submitSettle(command))
	return nil
}

// activate focuses the target window. Failure is logged and swallowed: a
// missing window manager tool should not abort a run mid-sequence.
func (e *Executor) activate(ctx context.Context) {
	if err := e.Adapter.ActivateWindow(ctx, e.Target.AppName); err != nil {
		e.Logger.Warn("window activation failed", "app", e.Target.AppName, "error", err.Error())
	}
}

// jobKickoff is the initial prompt submitted when a job starts.
func jobKickoff(j *job.Job) string {
	return fmt.Sprintf("Goal: %s\nThis session will work through %d tasks in order.", j.Goal, len(j.Tasks))
}

// taskKickoff describes one task and its referenced files.
func taskKickoff(t job.Task) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: %s\n%s", t.Name, t.Prompt)
	if len(t.Files) > 0 {
		fmt.Fprintf(&sb, "\nFiles: %s", strings.Join(t.Files, ", "))
	}
	return sb.String()
}
