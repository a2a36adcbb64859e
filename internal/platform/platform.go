// Package platform drives the target application through OS-level
// automation tools: opening deep links, synthesizing keystrokes, and
// focusing windows.
//
// Each OS adapter keeps a priority-ordered candidate tool list per
// capability and probes for the first installed one lazily, caching the
// result. Capabilities come in an immediate form (run now) and a delayed
// form that returns a shell command embedding the wait, for detached
// fire-and-forget spawning. Both forms must escape payloads identically
// for the chosen tool, or the two paths drift apart.
package platform

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/mkendall/drover/internal/logging"
)

// Capability names used in probing, diagnostics, and errors.
const (
	CapOpenURL    = "open-url"
	CapTypeText   = "type-text"
	CapPressEnter = "press-enter"
	CapActivate   = "activate-window"
)

// Adapter is the automation capability surface one OS implementation
// provides.
type Adapter interface {
	// Name identifies the adapter ("darwin", "linux", "windows").
	Name() string

	// OpenURL opens a URL or deep link in the default handler.
	OpenURL(ctx context.Context, url string) error

	// TypeText synthesizes typing of text with a per-character delay.
	TypeText(ctx context.Context, text string, charDelayMs int) error

	// PressEnter synthesizes a single Enter keypress.
	PressEnter(ctx context.Context) error

	// ActivateWindow brings the named application's window to the
	// foreground. Best-effort; callers treat failure as non-fatal.
	ActivateWindow(ctx context.Context, appName string) error

	// ShellCommand returns the shell and leading arguments delayed
	// commands are run under.
	ShellCommand() (string, []string)

	// DelayedOpenURL builds a detachable shell command that waits
	// delaySec seconds and then opens the URL.
	DelayedOpenURL(url string, delaySec int) (string, []string, error)

	// DelayedTypeText builds a detachable shell command that waits and
	// then types the text.
	DelayedTypeText(text string, delaySec, charDelayMs int) (string, []string, error)

	// DelayedPressEnter builds a detachable shell command that waits and
	// then presses Enter.
	DelayedPressEnter(delaySec int) (string, []string, error)

	// DelayedActivate builds a detachable shell command that waits and
	// then focuses the named application.
	DelayedActivate(appName string, delaySec int) (string, []string, error)

	// CheckRequirements reports, per capability, which tool (if any)
	// satisfies it. Used by diagnostics.
	CheckRequirements() []Requirement
}

// Requirement is one capability's probe result.
type Requirement struct {
	Capability string
	Candidates []string // tool names in priority order
	Tool       string   // the tool that satisfied the probe, empty if none
	Satisfied  bool
	InstallVia string
}

// CommandRunner executes an external command. Swappable for tests.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// execRunner is the production runner.
func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w (output: %s)", name, err, string(out))
	}
	return nil
}

// New returns the adapter for the current OS.
func New(logger *logging.Logger) (Adapter, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	switch runtime.GOOS {
	case "darwin":
		return newDarwinAdapter(logger), nil
	case "linux":
		return newLinuxAdapter(logger), nil
	case "windows":
		return newWindowsAdapter(logger), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}
