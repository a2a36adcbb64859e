package schedule

import (
	"time"

	"github.com/mkendall/drover/internal/config"
	"github.com/mkendall/drover/internal/errors"
	"github.com/mkendall/drover/internal/followup"
	"github.com/mkendall/drover/internal/job"
	"github.com/mkendall/drover/internal/lifecycle"
	"github.com/mkendall/drover/internal/logging"
	"github.com/mkendall/drover/internal/platform"
)

// Spawner runs the detached mode: every automation step for every session
// is compiled into an independent sleep-then-act shell command and
// dispatched immediately, fire-and-forget. The call returns as soon as the
// commands are started; the actual typing happens later, in the
// background, ordered only by the computed offsets.
type Spawner struct {
	Adapter   platform.Adapter
	Runner    Runner
	Lifecycle *lifecycle.Manager
	FollowUps *followup.Resolver
	Timing    Timing
	Target    config.TargetConfig
	Logger    *logging.Logger
}

// NewSpawner builds a Spawner with the production detached runner.
func NewSpawner(adapter platform.Adapter, manager *lifecycle.Manager, target config.TargetConfig, timing Timing, logger *logging.Logger) *Spawner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Spawner{
		Adapter:   adapter,
		Runner:    DetachedRunner{},
		Lifecycle: manager,
		FollowUps: &followup.Resolver{Logger: logger},
		Timing:    timing,
		Target:    target,
		Logger:    logger,
	}
}

// SpawnSessions registers one agent per prompt and schedules the detached
// automation for each: open the deep link, two enter presses, then the
// resolved follow-up prompts, each with its own enter. Successive sessions
// are offset by the previous session's total duration so they overlap only
// at the boundaries.
//
// Once dispatched, the delayed commands cannot be cancelled; an error
// partway through scheduling leaves earlier commands running.
func (s *Spawner) SpawnSessions(prompts []string, repository string) (string, []string, error) {
	sessionID, agentIDs, err := s.Lifecycle.Spawn(prompts, repository)
	if err != nil {
		return "", nil, err
	}

	templates, source := s.FollowUps.Resolve()
	logger := s.Logger.WithSession(sessionID)
	logger.Info("detached spawn scheduled",
		"sessions", len(prompts),
		"follow_ups", len(templates),
		"follow_up_source", string(source),
	)

	base := 0
	for i, prompt := range prompts {
		followUps := followup.Substitute(templates, agentIDs[i])
		duration, err := s.scheduleSession(base, prompt, followUps)
		if err != nil {
			return sessionID, agentIDs, errors.Wrapf(err, "schedule session %d", i+1)
		}
		logger.WithAgent(agentIDs[i]).Debug("session scheduled",
			"start_offset_sec", base,
			"duration_sec", duration,
		)
		base += duration
	}

	return sessionID, agentIDs, nil
}

// SpawnJobs loads and validates each job, then spawns one detached session
// per job seeded with the job's kickoff prompt. Any invalid job aborts the
// whole spawn before automation is scheduled.
func (s *Spawner) SpawnJobs(repo *job.Repository, jobIDs []string, repository string) (string, []string, error) {
	prompts := make([]string, 0, len(jobIDs))
	for _, id := range jobIDs {
		j, err := repo.LoadJob(id)
		if err != nil {
			return "", nil, err
		}
		prompts = append(prompts, jobKickoff(j))
	}
	return s.SpawnSessions(prompts, repository)
}

// scheduleSession dispatches one session's delayed commands, all offset
// from baseSec, and returns the session's total duration in seconds.
func (s *Spawner) scheduleSession(baseSec int, prompt string, followUps []string) (int, error) {
	link := DeepLink(s.Target.DeepLinkTemplate, prompt)
	if err := s.dispatch3(s.Adapter.DelayedOpenURL(link, baseSec)); err != nil {
		return 0, err
	}

	// Two enters: the first confirms the deep-link dialog, the second
	// submits the seeded prompt.
	firstEnter := baseSec + s.secs(s.Timing.OpenToEnter)
	if err := s.dispatch3(s.Adapter.DelayedPressEnter(firstEnter)); err != nil {
		return 0, err
	}
	secondEnter := baseSec + s.secs(s.Timing.SecondEnter)
	if err := s.dispatch3(s.Adapter.DelayedPressEnter(secondEnter)); err != nil {
		return 0, err
	}

	end := s.secs(s.Timing.SecondEnter)
	charDelayMs := int(s.Timing.TypeCharDelay.Milliseconds())
	for k, fu := range followUps {
		offset := s.secs(s.Timing.FollowUpBase) + k*s.secs(s.Timing.FollowUpSpacing)
		if err := s.dispatch3(s.Adapter.DelayedTypeText(fu, baseSec+offset, charDelayMs)); err != nil {
			return 0, err
		}
		// The enter fires an estimated typing duration after the typing
		// starts.
		enterAt := offset + s.Timing.typingSeconds(fu)
		if err := s.dispatch3(s.Adapter.DelayedPressEnter(baseSec + enterAt)); err != nil {
			return 0, err
		}
		end = enterAt
	}

	return end + s.secs(s.Timing.FollowUpSpacing), nil
}

// dispatch3 adapts the (shell, args, err) triple the delayed builders
// return into a single detached dispatch.
func (s *Spawner) dispatch3(name string, args []string, err error) error {
	if err != nil {
		return err
	}
	return s.Runner.RunDetached(name, args)
}

func (s *Spawner) secs(d time.Duration) int {
	return int(d / time.Second)
}
