package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "agents.json"), nil)
}

// sessionCompletedAt builds a single-agent session completed at the given
// timestamp string.
func sessionCompletedAt(completedAt string) *Session {
	return &Session{
		Agents:      []AgentState{{ID: NewAgentID(), Prompt: "p", Status: StatusApproved, StartedAt: Now()}},
		CreatedAt:   Now(),
		CompletedAt: completedAt,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	reg := NewRegistry()
	count := 2
	reg.Sessions["s1"] = &Session{
		CreatedAt: Now(),
		Agents: []AgentState{{
			ID:            "a1",
			Prompt:        "do the thing",
			Status:        StatusFeedbackRequested,
			StartedAt:     Now(),
			Feedback:      "not quite",
			FeedbackCount: &count,
		}},
	}

	if err := store.Save(reg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := store.Load()
	agent, sessionID, ok := loaded.FindAgent("a1")
	if !ok || sessionID != "s1" {
		t.Fatalf("FindAgent after reload: ok=%v session=%s", ok, sessionID)
	}
	if agent.Status != StatusFeedbackRequested || agent.Feedback != "not quite" {
		t.Errorf("agent = %+v", agent)
	}
	if agent.FeedbackCount == nil || *agent.FeedbackCount != 2 {
		t.Errorf("feedbackCount = %v, want 2", agent.FeedbackCount)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t)
	reg := store.Load()
	if reg == nil || len(reg.Sessions) != 0 {
		t.Errorf("Load() on missing file = %+v, want empty registry", reg)
	}
}

func TestLoadCorruptFileFailsOpen(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Path(), []byte("{ not json"), 0644); err != nil {
		t.Fatal(err)
	}

	reg := store.Load()
	if reg == nil || len(reg.Sessions) != 0 {
		t.Errorf("Load() on corrupt file = %+v, want empty registry", reg)
	}
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	store := newTestStore(t)
	doc := `{"sessions": {"s1": {"agents": [], "createdAt": "2026-01-01T00:00:00Z", "futureField": 7}}, "schemaVersion": 9}`
	if err := os.WriteFile(store.Path(), []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	reg := store.Load()
	if reg.Session("s1") == nil {
		t.Error("session with unknown fields not loaded")
	}
}

func TestSaveIsAtomicUnderConcurrency(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			reg := store.Load()
			reg.Sessions[fmt.Sprintf("s%d", n)] = sessionCompletedAt("")
			if err := store.Save(reg); err != nil {
				t.Errorf("Save() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Whatever interleaving happened, the file must be valid JSON.
	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		t.Fatalf("state file not valid JSON after concurrent saves: %v", err)
	}
	if len(reg.Sessions) == 0 {
		t.Error("no session survived concurrent saves")
	}
}

func TestStaleLockIsCleaned(t *testing.T) {
	store := newTestStore(t)
	lockPath := store.Path() + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		t.Fatal(err)
	}
	// A lock owned by a long-gone PID must not block forever.
	stale, _ := json.Marshal(lockInfo{PID: 99999999, Hostname: "gone", Acquired: Now()})
	if err := os.WriteFile(lockPath, stale, 0644); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry()
	reg.Sessions["s1"] = sessionCompletedAt("")
	if err := store.Save(reg); err != nil {
		t.Fatalf("Save() with stale lock error = %v", err)
	}
	if store.Load().Session("s1") == nil {
		t.Error("save behind stale lock did not land")
	}
}

func TestLockReleasedAfterSave(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(NewRegistry()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(store.Path() + ".lock"); !os.IsNotExist(err) {
		t.Errorf("lock file still present after save: %v", err)
	}
}

func TestCleanupOldSessions(t *testing.T) {
	store := newTestStore(t)

	reg := NewRegistry()
	reg.Sessions["expired"] = sessionCompletedAt(time.Now().UTC().Add(-25 * time.Hour).Format(time.RFC3339))
	reg.Sessions["recent"] = sessionCompletedAt(time.Now().UTC().Add(-23 * time.Hour).Format(time.RFC3339))
	reg.Sessions["active"] = sessionCompletedAt("")
	reg.Sessions["mangled"] = sessionCompletedAt("yesterday-ish")
	if err := store.Save(reg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	removed, err := store.CleanupOldSessions()
	if err != nil {
		t.Fatalf("CleanupOldSessions() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	after := store.Load()
	if after.Session("expired") != nil {
		t.Error("expired session survived cleanup")
	}
	for _, keep := range []string{"recent", "active", "mangled"} {
		if after.Session(keep) == nil {
			t.Errorf("session %q was removed", keep)
		}
	}
}

func TestSweepBoundary(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	reg := NewRegistry()
	reg.Sessions["just-over"] = sessionCompletedAt(now.Add(-RetentionPeriod - time.Second).Format(time.RFC3339))
	reg.Sessions["just-under"] = sessionCompletedAt(now.Add(-RetentionPeriod + time.Second).Format(time.RFC3339))
	reg.Sessions["exactly"] = sessionCompletedAt(now.Add(-RetentionPeriod).Format(time.RFC3339))

	if removed := sweepOldSessions(reg, now); removed != 1 {
		t.Errorf("removed = %d, want only the just-over session", removed)
	}
	if reg.Session("just-over") != nil {
		t.Error("just-over kept")
	}
	if reg.Session("just-under") == nil || reg.Session("exactly") == nil {
		t.Error("sessions at or inside the retention window were removed")
	}
}

func TestCleanupDoesNotRewriteWhenNothingExpired(t *testing.T) {
	store := newTestStore(t)
	reg := NewRegistry()
	reg.Sessions["active"] = sessionCompletedAt("")
	if err := store.Save(reg); err != nil {
		t.Fatal(err)
	}

	before, err := os.Stat(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)

	if removed, err := store.CleanupOldSessions(); err != nil || removed != 0 {
		t.Fatalf("CleanupOldSessions() = %d, %v", removed, err)
	}
	after, err := os.Stat(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("registry rewritten although nothing was removed")
	}
}

func TestMemStoreIsolation(t *testing.T) {
	store := NewMemStore()
	reg := store.Load()
	reg.Sessions["s1"] = sessionCompletedAt("")
	if err := store.Save(reg); err != nil {
		t.Fatal(err)
	}

	// Mutating a loaded copy must not leak into the store.
	leaked := store.Load()
	leaked.Sessions["s1"].Agents[0].Status = StatusFailed
	if store.Load().Sessions["s1"].Agents[0].Status == StatusFailed {
		t.Error("Load() aliases the stored registry")
	}

	store.SaveErr = fmt.Errorf("disk full")
	if err := store.Save(reg); err == nil {
		t.Error("injected save error not returned")
	}
}

func TestNewAgentID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewAgentID()
		if len(id) != 8 {
			t.Fatalf("NewAgentID() = %q, want 8 hex chars", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestWatcherSeesAtomicSave(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(NewRegistry()); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(store.Path(), nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	reg := NewRegistry()
	reg.Sessions["s1"] = sessionCompletedAt("")
	if err := store.Save(reg); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification after an atomic save")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.json")
	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Events():
		t.Error("notification for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
