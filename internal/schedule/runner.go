package schedule

import (
	"fmt"
	"os/exec"
	"time"
)

// Sleeper waits between sequential-mode steps. Swappable so tests run the
// full pipeline without real delays.
type Sleeper interface {
	Sleep(d time.Duration)
}

// RealSleeper blocks with time.Sleep.
type RealSleeper struct{}

func (RealSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// Runner dispatches a detached-mode delayed command. Implementations must
// not wait for the command to finish.
type Runner interface {
	RunDetached(name string, args []string) error
}

// DetachedRunner starts commands in their own session and releases them:
// they outlive the spawning process and cannot be cancelled, retried, or
// observed afterwards.
type DetachedRunner struct{}

// RunDetached starts the command fire-and-forget.
func (DetachedRunner) RunDetached(name string, args []string) error {
	cmd := exec.Command(name, args...)
	configureDetached(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start detached command: %w", err)
	}
	return cmd.Process.Release()
}
