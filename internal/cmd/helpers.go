package cmd

import (
	"fmt"
	"os"

	"github.com/mkendall/drover/internal/config"
	"github.com/mkendall/drover/internal/followup"
	"github.com/mkendall/drover/internal/job"
	"github.com/mkendall/drover/internal/lifecycle"
	"github.com/mkendall/drover/internal/logging"
	"github.com/mkendall/drover/internal/platform"
	"github.com/mkendall/drover/internal/schedule"
	"github.com/mkendall/drover/internal/state"
	"github.com/mkendall/drover/internal/util"
)

// app bundles the collaborators a subcommand needs, built fresh per
// invocation from the loaded configuration.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	store   *state.FileStore
	manager *lifecycle.Manager
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(cfg.Paths.ResolveLogDir(), cfg.Logging.Level)
		if err != nil {
			return nil, err
		}
	}

	store := state.NewFileStore(cfg.Paths.ResolveStateFile(), logger)
	watch := func() (<-chan struct{}, func(), error) {
		w, err := state.NewWatcher(store.Path(), logger)
		if err != nil {
			return nil, nil, err
		}
		return w.Events(), func() { _ = w.Close() }, nil
	}

	manager := lifecycle.NewManager(store,
		lifecycle.WithLogger(logger),
		lifecycle.WithWatch(watch),
		lifecycle.WithPollInterval(cfg.Lifecycle.PollInterval()),
	)

	return &app{cfg: cfg, logger: logger, store: store, manager: manager}, nil
}

func (a *app) close() {
	_ = a.logger.Close()
}

// repository builds the job repository rooted at the working directory's
// project scope.
func (a *app) repository() *job.Repository {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &job.Repository{
		ProjectDir: cwd,
		IDMismatch: a.cfg.Jobs.Policy(),
		Logger:     a.logger,
	}
}

func (a *app) adapter() (platform.Adapter, error) {
	return platform.New(a.logger)
}

func (a *app) executor() (*schedule.Executor, error) {
	adapter, err := a.adapter()
	if err != nil {
		return nil, err
	}
	return schedule.NewExecutor(adapter, a.cfg.Target, schedule.TimingFromConfig(a.cfg.Timing), a.logger), nil
}

func (a *app) spawner() (*schedule.Spawner, error) {
	adapter, err := a.adapter()
	if err != nil {
		return nil, err
	}
	s := schedule.NewSpawner(adapter, a.manager, a.cfg.Target, schedule.TimingFromConfig(a.cfg.Timing), a.logger)
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	s.FollowUps = &followup.Resolver{ProjectDir: cwd, Logger: a.logger}
	return s, nil
}

// printAgents renders one line per agent, the shared snapshot format of
// wait and status.
func printAgents(agents []state.AgentState) {
	for _, agent := range agents {
		fmt.Printf("  %s  %-22s  %s\n", agent.ID, agent.Status, summarize(agent.Prompt))
		if agent.Feedback != "" {
			fmt.Printf("      feedback: %s\n", summarize(agent.Feedback))
		}
		if agent.ReturnMessage != "" {
			fmt.Printf("      returned: %s\n", summarize(agent.ReturnMessage))
		}
	}
}

func summarize(s string) string {
	return util.TruncateString(util.FirstLine(s), 80)
}
