// Package lifecycle implements the agent approval state machine and the
// blocking wait operations built on top of it.
//
// Agents move through:
//
//	running -> pending_verification -> approved
//	                  |        ^
//	                  v        |
//	          feedback_requested
//
// with failed and timeout as terminal statuses an external watcher may set
// from pending_verification. Every transition is a load-mutate-save cycle
// against the injected state.Store; transitions on different agents are
// serialized by the store's lock, but concurrent transitions on the same
// agent are last-writer-wins.
package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkendall/drover/internal/errors"
	"github.com/mkendall/drover/internal/logging"
	"github.com/mkendall/drover/internal/state"
)

// DefaultCompleteTimeout bounds CompleteAndWait when the caller does not
// supply a timeout.
const DefaultCompleteTimeout = 30 * time.Minute

// DefaultPollInterval is the re-check interval backing up the file watch.
const DefaultPollInterval = 2 * time.Second

// WatchFunc subscribes to state-change notifications. The returned close
// function must be called on every resolution path.
type WatchFunc func() (events <-chan struct{}, close func(), err error)

// Manager drives agent lifecycle transitions against a Store.
type Manager struct {
	store        state.Store
	watch        WatchFunc
	logger       *logging.Logger
	pollInterval time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithWatch sets the state-change subscription used by the wait operations.
func WithWatch(watch WatchFunc) Option {
	return func(m *Manager) { m.watch = watch }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithPollInterval sets the periodic re-check interval for waits.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) { m.pollInterval = d }
}

// NewManager creates a Manager operating on the given store.
func NewManager(store state.Store, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		logger:       logging.NopLogger(),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Spawn registers a new session with one running agent per prompt and
// returns the session id and the agent ids in prompt order.
func (m *Manager) Spawn(prompts []string, repository string) (string, []string, error) {
	if len(prompts) == 0 {
		return "", nil, errors.NewValidationError("spawn", "at least one prompt is required")
	}

	sessionID := uuid.NewString()
	now := state.Now()
	session := &state.Session{CreatedAt: now}
	agentIDs := make([]string, 0, len(prompts))

	for _, prompt := range prompts {
		agent := state.AgentState{
			ID:         state.NewAgentID(),
			Prompt:     prompt,
			Status:     state.StatusRunning,
			StartedAt:  now,
			Repository: repository,
		}
		session.Agents = append(session.Agents, agent)
		agentIDs = append(agentIDs, agent.ID)
	}

	reg := m.store.Load()
	reg.Sessions[sessionID] = session
	if err := m.store.Save(reg); err != nil {
		return "", nil, err
	}

	m.logger.WithSession(sessionID).Info("session spawned", "agents", len(agentIDs))
	return sessionID, agentIDs, nil
}

// Complete records that an agent reports its work as done, moving it to
// pending_verification. From feedback_requested the feedback counter
// increments; from running it initializes to zero. Any other starting
// status is rejected.
func (m *Manager) Complete(agentID, returnMessage string) error {
	return m.transition("complete", agentID, func(agent *state.AgentState) error {
		switch agent.Status {
		case state.StatusRunning:
			zero := 0
			agent.FeedbackCount = &zero
		case state.StatusFeedbackRequested:
			count := 1
			if agent.FeedbackCount != nil {
				count = *agent.FeedbackCount + 1
			}
			agent.FeedbackCount = &count
		default:
			return errors.NewInvalidStateError("complete", string(agent.Status)).WithAgentID(agentID)
		}

		agent.Status = state.StatusPendingVerification
		agent.SubmittedAt = state.Now()
		agent.ReturnMessage = returnMessage
		return nil
	})
}

// Accept approves an agent's submitted work. Accepting an already-approved
// agent is a no-op, not an error.
func (m *Manager) Accept(agentID string) error {
	return m.transition("accept", agentID, func(agent *state.AgentState) error {
		switch agent.Status {
		case state.StatusApproved:
			return nil // idempotent
		case state.StatusPendingVerification, state.StatusFeedbackRequested:
			now := state.Now()
			agent.Status = state.StatusApproved
			agent.VerifiedAt = now
			agent.CompletedAt = now
			return nil
		default:
			return errors.NewInvalidStateError("accept", string(agent.Status)).WithAgentID(agentID)
		}
	})
}

// Feedback requests changes on submitted work. Giving feedback again while
// a previous request is outstanding replaces the feedback text; an approved
// or still-running agent cannot receive feedback.
func (m *Manager) Feedback(agentID, text string) error {
	return m.transition("feedback", agentID, func(agent *state.AgentState) error {
		if agent.Status != state.StatusPendingVerification && agent.Status != state.StatusFeedbackRequested {
			return errors.NewInvalidStateError("feedback", string(agent.Status)).WithAgentID(agentID)
		}
		agent.Status = state.StatusFeedbackRequested
		agent.Feedback = text
		agent.VerifiedAt = state.Now()
		return nil
	})
}

// MarkFailed moves an agent awaiting verification to the terminal failed
// status. Used by external timeout watchers.
func (m *Manager) MarkFailed(agentID, errMsg string) error {
	return m.terminal("fail", agentID, state.StatusFailed, errMsg)
}

// MarkTimeout moves an agent awaiting verification to the terminal timeout
// status. Used by external timeout watchers.
func (m *Manager) MarkTimeout(agentID string) error {
	return m.terminal("timeout", agentID, state.StatusTimeout, "")
}

func (m *Manager) terminal(op, agentID string, status state.AgentStatus, errMsg string) error {
	return m.transition(op, agentID, func(agent *state.AgentState) error {
		if agent.Status != state.StatusPendingVerification {
			return errors.NewInvalidStateError(op, string(agent.Status)).WithAgentID(agentID)
		}
		agent.Status = status
		agent.CompletedAt = state.Now()
		if errMsg != "" {
			agent.Error = errMsg
		}
		return nil
	})
}

// MarkSessionCompleted stamps a session's CompletedAt, making it eligible
// for the retention sweep once RetentionPeriod has passed.
func (m *Manager) MarkSessionCompleted(sessionID string) error {
	reg := m.store.Load()
	session := reg.Session(sessionID)
	if session == nil {
		return errors.NewNotFoundError("session", sessionID)
	}
	session.CompletedAt = state.Now()
	return m.store.Save(reg)
}

// transition runs a single load-mutate-save cycle on the named agent.
func (m *Manager) transition(op, agentID string, mutate func(*state.AgentState) error) error {
	reg := m.store.Load()
	agent, sessionID, ok := reg.FindAgent(agentID)
	if !ok {
		return errors.NewNotFoundError("agent", agentID)
	}

	before := agent.Status
	if err := mutate(agent); err != nil {
		return err
	}
	if err := m.store.Save(reg); err != nil {
		return err
	}

	m.logger.WithSession(sessionID).WithAgent(agentID).Info("agent transition",
		"op", op,
		"from", string(before),
		"to", string(agent.Status),
	)
	return nil
}
