package lifecycle

import (
	"context"
	"time"

	"github.com/mkendall/drover/internal/errors"
	"github.com/mkendall/drover/internal/state"
)

// ReviewResult is the outcome of WaitForReview.
type ReviewResult struct {
	// AllApproved is true when every agent in the session reached the
	// approved status.
	AllApproved bool

	// Pending holds the agents awaiting verification when the wait
	// resolved because work was submitted for review.
	Pending []state.AgentState
}

// CompleteResult is the outcome of CompleteAndWait.
type CompleteResult struct {
	// Approved is true when the reviewer accepted the submitted work.
	Approved bool

	// Feedback carries the reviewer's change request when the work was
	// sent back instead of approved.
	Feedback string
}

// WaitForReview blocks until the named session either has every agent
// approved or has at least one agent in pending_verification. The state is
// checked synchronously before subscribing to change notifications, so a
// condition that already holds resolves without waiting. A poll ticker
// backs up the watch in case a notification is missed.
func (m *Manager) WaitForReview(ctx context.Context, sessionID string) (*ReviewResult, error) {
	// Fast path: the condition may already hold.
	if result, err := m.evaluateReview(sessionID); err != nil || result != nil {
		return result, err
	}

	events, closeWatch, err := m.subscribe()
	if err != nil {
		return nil, err
	}
	defer closeWatch()

	// The state may have changed between the check and the subscribe.
	if result, err := m.evaluateReview(sessionID); err != nil || result != nil {
		return result, err
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-events:
		case <-ticker.C:
		}
		if result, err := m.evaluateReview(sessionID); err != nil || result != nil {
			return result, err
		}
	}
}

// evaluateReview checks the session once. A nil result with nil error means
// the wait condition does not hold yet.
func (m *Manager) evaluateReview(sessionID string) (*ReviewResult, error) {
	reg := m.store.Load()
	session := reg.Session(sessionID)
	if session == nil {
		return nil, errors.NewNotFoundError("session", sessionID)
	}

	allApproved := len(session.Agents) > 0
	var pending []state.AgentState
	for _, agent := range session.Agents {
		if agent.Status != state.StatusApproved {
			allApproved = false
		}
		if agent.Status == state.StatusPendingVerification {
			pending = append(pending, agent)
		}
	}

	if allApproved {
		return &ReviewResult{AllApproved: true}, nil
	}
	if len(pending) > 0 {
		return &ReviewResult{Pending: pending}, nil
	}
	return nil, nil
}

// CompleteAndWait submits an agent's work and then blocks until a reviewer
// either accepts it or requests changes. A non-positive timeout falls back
// to DefaultCompleteTimeout; when the timeout elapses without a verdict the
// wait resolves with a TimeoutError and the agent stays in
// pending_verification.
func (m *Manager) CompleteAndWait(ctx context.Context, agentID, returnMessage string, timeout time.Duration) (*CompleteResult, error) {
	if timeout <= 0 {
		timeout = DefaultCompleteTimeout
	}

	if err := m.Complete(agentID, returnMessage); err != nil {
		return nil, err
	}

	events, closeWatch, err := m.subscribe()
	if err != nil {
		return nil, err
	}
	defer closeWatch()

	if result, err := m.evaluateVerdict(agentID); err != nil || result != nil {
		return result, err
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, errors.NewTimeoutError("waiting for review of agent "+agentID, timeout)
		case <-events:
		case <-ticker.C:
		}
		if result, err := m.evaluateVerdict(agentID); err != nil || result != nil {
			return result, err
		}
	}
}

// evaluateVerdict checks the agent once for a review verdict. A nil result
// with nil error means the reviewer has not responded yet.
func (m *Manager) evaluateVerdict(agentID string) (*CompleteResult, error) {
	reg := m.store.Load()
	agent, _, ok := reg.FindAgent(agentID)
	if !ok {
		return nil, errors.NewNotFoundError("agent", agentID)
	}

	switch agent.Status {
	case state.StatusApproved:
		return &CompleteResult{Approved: true}, nil
	case state.StatusFeedbackRequested:
		return &CompleteResult{Feedback: agent.Feedback}, nil
	default:
		return nil, nil
	}
}

// subscribe returns a change notification channel. Without a configured
// watch the waits degrade to pure polling on a never-firing channel.
func (m *Manager) subscribe() (<-chan struct{}, func(), error) {
	if m.watch == nil {
		return make(chan struct{}), func() {}, nil
	}
	return m.watch()
}
