package cmd

import "testing"

// TestCommandsRegistered guards against a subcommand file losing its init
// registration during refactors.
func TestCommandsRegistered(t *testing.T) {
	want := []string{
		"spawn", "spawn-jobs", "run", "wait", "complete",
		"accept", "feedback", "status", "cleanup", "jobs", "task-types",
	}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestSummarize(t *testing.T) {
	if got := summarize("first line\nsecond line"); got != "first line" {
		t.Errorf("summarize() = %q", got)
	}
}
