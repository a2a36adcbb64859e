// Package internal contains integration tests that verify the packages
// work together over a real state file: lifecycle transitions through the
// file-backed store, change notifications through the watcher, and the
// blocking wait operations that tie them together.
package internal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkendall/drover/internal/lifecycle"
	"github.com/mkendall/drover/internal/state"
)

func newFileBackedManager(t *testing.T) (*lifecycle.Manager, *state.FileStore) {
	t.Helper()
	store := state.NewFileStore(filepath.Join(t.TempDir(), "agents.json"), nil)
	watch := func() (<-chan struct{}, func(), error) {
		w, err := state.NewWatcher(store.Path(), nil)
		if err != nil {
			return nil, nil, err
		}
		return w.Events(), func() { _ = w.Close() }, nil
	}
	m := lifecycle.NewManager(store,
		lifecycle.WithWatch(watch),
		lifecycle.WithPollInterval(50*time.Millisecond),
	)
	return m, store
}

// TestApprovalFlowOverStateFile walks the full review cycle with every
// transition persisted to disk, as separate CLI invocations would do it.
func TestApprovalFlowOverStateFile(t *testing.T) {
	m, store := newFileBackedManager(t)

	sessionID, agents, err := m.Spawn([]string{"write the migration"}, "github.com/acme/widgets")
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	agentID := agents[0]

	// A second manager over the same file, standing in for the reviewer's
	// separate process.
	reviewer := lifecycle.NewManager(state.NewFileStore(store.Path(), nil))

	if err := m.Complete(agentID, "migration written"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if err := reviewer.Feedback(agentID, "add a rollback"); err != nil {
		t.Fatalf("Feedback() error = %v", err)
	}
	if err := m.Complete(agentID, "rollback added"); err != nil {
		t.Fatalf("Complete() after feedback error = %v", err)
	}
	if err := reviewer.Accept(agentID); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	agent, _, ok := store.Load().FindAgent(agentID)
	if !ok {
		t.Fatal("agent missing after flow")
	}
	if agent.Status != state.StatusApproved {
		t.Errorf("status = %s, want approved", agent.Status)
	}
	if agent.FeedbackCount == nil || *agent.FeedbackCount != 1 {
		t.Errorf("feedbackCount = %v, want 1", agent.FeedbackCount)
	}

	result, err := m.WaitForReview(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("WaitForReview() error = %v", err)
	}
	if !result.AllApproved {
		t.Error("session not reported fully approved")
	}
}

// TestWaitWakesOnFileChange verifies the watcher path end to end: a save
// from another store instance resolves a blocked wait.
func TestWaitWakesOnFileChange(t *testing.T) {
	m, store := newFileBackedManager(t)

	sessionID, agents, err := m.Spawn([]string{"task"}, "")
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		other := lifecycle.NewManager(state.NewFileStore(store.Path(), nil))
		_ = other.Complete(agents[0], "done")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := m.WaitForReview(ctx, sessionID)
	if err != nil {
		t.Fatalf("WaitForReview() error = %v", err)
	}
	if len(result.Pending) != 1 {
		t.Errorf("Pending = %+v, want one submitted agent", result.Pending)
	}
}
