package schedule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mkendall/drover/internal/config"
	"github.com/mkendall/drover/internal/errors"
	"github.com/mkendall/drover/internal/followup"
	"github.com/mkendall/drover/internal/job"
	"github.com/mkendall/drover/internal/lifecycle"
	"github.com/mkendall/drover/internal/platform"
	"github.com/mkendall/drover/internal/state"
)

// fakeAdapter records immediate operations and builds delayed commands
// that encode their offset, so tests can assert on the schedule.
type fakeAdapter struct {
	ops          []string
	failActivate bool
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) OpenURL(_ context.Context, url string) error {
	f.ops = append(f.ops, "open:"+url)
	return nil
}

func (f *fakeAdapter) TypeText(_ context.Context, text string, _ int) error {
	f.ops = append(f.ops, "type:"+text)
	return nil
}

func (f *fakeAdapter) PressEnter(_ context.Context) error {
	f.ops = append(f.ops, "enter")
	return nil
}

func (f *fakeAdapter) ActivateWindow(_ context.Context, app string) error {
	if f.failActivate {
		return fmt.Errorf("no window manager")
	}
	f.ops = append(f.ops, "activate:"+app)
	return nil
}

func (f *fakeAdapter) ShellCommand() (string, []string) { return "sh", []string{"-c"} }

func (f *fakeAdapter) delayed(delaySec int, op string) (string, []string, error) {
	return "sh", []string{"-c", fmt.Sprintf("sleep %d && %s", delaySec, op)}, nil
}

func (f *fakeAdapter) DelayedOpenURL(url string, delaySec int) (string, []string, error) {
	return f.delayed(delaySec, "open:"+url)
}

func (f *fakeAdapter) DelayedTypeText(text string, delaySec, _ int) (string, []string, error) {
	return f.delayed(delaySec, "type:"+text)
}

func (f *fakeAdapter) DelayedPressEnter(delaySec int) (string, []string, error) {
	return f.delayed(delaySec, "enter")
}

func (f *fakeAdapter) DelayedActivate(app string, delaySec int) (string, []string, error) {
	return f.delayed(delaySec, "activate:"+app)
}

func (f *fakeAdapter) CheckRequirements() []platform.Requirement { return nil }

// fakeSleeper records requested sleeps without waiting.
type fakeSleeper struct {
	slept []time.Duration
}

func (s *fakeSleeper) Sleep(d time.Duration) { s.slept = append(s.slept, d) }

func (s *fakeSleeper) total() time.Duration {
	var sum time.Duration
	for _, d := range s.slept {
		sum += d
	}
	return sum
}

// fakeRunner records dispatched detached commands.
type fakeRunner struct {
	scripts []string
}

func (r *fakeRunner) RunDetached(name string, args []string) error {
	r.scripts = append(r.scripts, name+" "+strings.Join(args, " "))
	return nil
}

func testTarget() config.TargetConfig {
	return config.TargetConfig{
		DeepLinkTemplate: "assistant://new?prompt={prompt}",
		AppName:          "Assistant",
	}
}

func newTestExecutor() (*Executor, *fakeAdapter, *fakeSleeper) {
	adapter := &fakeAdapter{}
	sleeper := &fakeSleeper{}
	e := NewExecutor(adapter, testTarget(), DefaultTiming(), nil)
	e.Sleeper = sleeper
	return e, adapter, sleeper
}

func TestDeepLink(t *testing.T) {
	got := DeepLink("assistant://new?prompt={prompt}", "fix the bug & test")
	want := "assistant://new?prompt=fix+the+bug+%26+test"
	if got != want {
		t.Errorf("DeepLink() = %q, want %q", got, want)
	}
}

func TestTypingSeconds(t *testing.T) {
	tm := DefaultTiming() // 10ms per char
	if got := tm.typingSeconds("hi"); got != 1 {
		t.Errorf("typingSeconds(short) = %d, want floor of 1", got)
	}
	if got := tm.typingSeconds(strings.Repeat("x", 250)); got != 3 {
		// 250 chars * 10ms = 2.5s, rounded up.
		t.Errorf("typingSeconds(250 chars) = %d, want 3", got)
	}
}

func TestSubmitSettleGrowsWithLength(t *testing.T) {
	tm := DefaultTiming()
	short := tm.submitSettle("hi")
	long := tm.submitSettle(strings.Repeat("x", 500))
	if long <= short {
		t.Errorf("submitSettle: long %v not > short %v", long, short)
	}
	if short < tm.SubmitBase {
		t.Errorf("submitSettle below base: %v", short)
	}
}

func TestRunPrompt(t *testing.T) {
	e, adapter, sleeper := newTestExecutor()

	if err := e.RunPrompt(context.Background(), "hello there"); err != nil {
		t.Fatalf("RunPrompt() error = %v", err)
	}
	if len(adapter.ops) != 1 || adapter.ops[0] != "open:assistant://new?prompt=hello+there" {
		t.Errorf("ops = %v", adapter.ops)
	}
	if len(sleeper.slept) != 1 {
		t.Errorf("slept %v, want one settle", sleeper.slept)
	}
}

func newTestJobRepo(t *testing.T) *job.Repository {
	t.Helper()
	repo := &job.Repository{ProjectDir: t.TempDir(), GlobalDir: t.TempDir()}
	if err := repo.SaveTaskTypes(job.TaskTypeMapping{"refactor": {"implement", "review"}}, job.ScopeGlobal); err != nil {
		t.Fatalf("SaveTaskTypes: %v", err)
	}
	return repo
}

func (r *fakeRunner) mustContain(t *testing.T, want string) {
	t.Helper()
	for _, s := range r.scripts {
		if strings.Contains(s, want) {
			return
		}
	}
	t.Errorf("no dispatched command contains %q; got %v", want, r.scripts)
}

func writeCommandFile(t *testing.T, repo *job.Repository, name string) {
	t.Helper()
	dir := filepath.Join(repo.GlobalDir, "commands")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".md"), []byte("# "+name+"\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestRunJobFailsFastOnInvalidJob(t *testing.T) {
	e, adapter, _ := newTestExecutor()
	repo := newTestJobRepo(t)

	j := &job.Job{
		ID:   "bad",
		Goal: "g",
		Tasks: []job.Task{
			{Name: "a", Type: "refactor", Prompt: "p"},
			{Name: "b", Type: "unknown", Prompt: "p"},
		},
	}

	err := e.RunJob(context.Background(), repo, j)
	if !errors.Is(err, errors.ErrJobInvalid) {
		t.Fatalf("error = %v, want ErrJobInvalid", err)
	}
	if len(adapter.ops) != 0 {
		t.Errorf("automation ran despite invalid job: %v", adapter.ops)
	}
}

func TestRunJobDrivesTasksInOrder(t *testing.T) {
	e, adapter, _ := newTestExecutor()
	repo := newTestJobRepo(t)
	writeCommandFile(t, repo, "implement")
	writeCommandFile(t, repo, "review")

	j := &job.Job{
		ID:   "refactor-auth",
		Goal: "split auth",
		Tasks: []job.Task{
			{Name: "extract", Type: "refactor", Files: []string{"auth/token.go"}, Prompt: "extract tokens"},
		},
	}

	if err := e.RunJob(context.Background(), repo, j); err != nil {
		t.Fatalf("RunJob() error = %v", err)
	}

	joined := strings.Join(adapter.ops, "\n")
	wantOrder := []string{
		"open:assistant://new?prompt=",
		"activate:Assistant",
		"type:Task: extract",
		"enter",
		"type:/implement",
		"type:/review",
	}
	lastIdx := -1
	for _, want := range wantOrder {
		idx := strings.Index(joined, want)
		if idx < 0 {
			t.Fatalf("missing %q in ops:\n%s", want, joined)
		}
		if idx < lastIdx {
			t.Errorf("%q out of order in ops:\n%s", want, joined)
		}
		lastIdx = idx
	}

	// Kickoff mentions the referenced files.
	if !strings.Contains(joined, "Files: auth/token.go") {
		t.Errorf("kickoff does not list files:\n%s", joined)
	}

	// Commands use the two-enter pattern: one enter for the kickoff,
	// three each for the two commands is too strict to pin; just check
	// enters outnumber typed payloads.
	enters := strings.Count(joined, "enter")
	types := strings.Count(joined, "type:")
	if enters <= types {
		t.Errorf("enters = %d, typed = %d; commands should add a second enter", enters, types)
	}
}

func TestRunJobActivationFailureIsNonFatal(t *testing.T) {
	e, adapter, _ := newTestExecutor()
	adapter.failActivate = true
	repo := newTestJobRepo(t)
	writeCommandFile(t, repo, "implement")
	writeCommandFile(t, repo, "review")

	j := &job.Job{ID: "j", Goal: "g", Tasks: []job.Task{{Name: "t", Type: "refactor", Prompt: "p"}}}
	if err := e.RunJob(context.Background(), repo, j); err != nil {
		t.Fatalf("RunJob() error = %v, want activation failure swallowed", err)
	}
}

func newTestSpawner(t *testing.T) (*Spawner, *fakeRunner, *state.MemStore) {
	t.Helper()
	store := state.NewMemStore()
	runner := &fakeRunner{}
	s := NewSpawner(&fakeAdapter{}, lifecycle.NewManager(store), testTarget(), DefaultTiming(), nil)
	s.Runner = runner
	s.FollowUps = &followup.Resolver{
		Getenv:     func(string) string { return "continue {agentId}" },
		ProjectDir: t.TempDir(),
		GlobalDir:  t.TempDir(),
	}
	return s, runner, store
}

func TestSpawnSessionsSchedule(t *testing.T) {
	s, runner, store := newTestSpawner(t)

	sessionID, agents, err := s.SpawnSessions([]string{"first prompt"}, "")
	if err != nil {
		t.Fatalf("SpawnSessions() error = %v", err)
	}

	// The session is registered with a running agent before any
	// automation fires.
	session := store.Load().Session(sessionID)
	if session == nil || len(session.Agents) != 1 {
		t.Fatalf("session not registered: %+v", session)
	}
	if session.Agents[0].Status != state.StatusRunning {
		t.Errorf("agent status = %s", session.Agents[0].Status)
	}

	// Offsets: open at 0, enters at 2 and 4, follow-up at 6 with its
	// enter one estimated typing-second later.
	runner.mustContain(t, "sleep 0 && open:assistant://new?prompt=first+prompt")
	runner.mustContain(t, "sleep 2 && enter")
	runner.mustContain(t, "sleep 4 && enter")
	runner.mustContain(t, "sleep 6 && type:continue "+agents[0])
	runner.mustContain(t, "sleep 7 && enter")

	if len(runner.scripts) != 5 {
		t.Errorf("dispatched %d commands, want 5: %v", len(runner.scripts), runner.scripts)
	}
}

func TestSpawnSessionsOffsetsSecondSession(t *testing.T) {
	s, runner, _ := newTestSpawner(t)

	_, agents, err := s.SpawnSessions([]string{"one", "two"}, "")
	if err != nil {
		t.Fatalf("SpawnSessions() error = %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("agents = %v", agents)
	}

	// First session ends at its follow-up enter (7s) plus spacing (4s),
	// so the second session opens at 11s.
	runner.mustContain(t, "sleep 11 && open:assistant://new?prompt=two")
	runner.mustContain(t, "sleep 13 && enter")
	runner.mustContain(t, "sleep 17 && type:continue "+agents[1])
}

func TestSpawnJobsValidatesBeforeScheduling(t *testing.T) {
	s, runner, _ := newTestSpawner(t)
	repo := newTestJobRepo(t)

	_, _, err := s.SpawnJobs(repo, []string{"missing-job"}, "")
	if !errors.Is(err, errors.ErrJobNotFound) {
		t.Fatalf("error = %v, want ErrJobNotFound", err)
	}
	if len(runner.scripts) != 0 {
		t.Errorf("commands dispatched despite load failure: %v", runner.scripts)
	}
}
