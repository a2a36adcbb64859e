package platform

import (
	"context"
	"fmt"

	"github.com/mkendall/drover/internal/logging"
)

const darwinInstallHint = "macOS ships these tools; check your PATH if probing fails"

// darwinAdapter drives automation with open(1) and osascript(1). Payloads
// pass through two interpreters on the delayed path (sh, then AppleScript),
// so both escaping layers apply there.
type darwinAdapter struct {
	logger *logging.Logger
	run    CommandRunner
	probe  *prober
}

func newDarwinAdapter(logger *logging.Logger) *darwinAdapter {
	return &darwinAdapter{
		logger: logger,
		run:    execRunner,
		probe:  newProber(),
	}
}

func (a *darwinAdapter) Name() string { return "darwin" }

func (a *darwinAdapter) OpenURL(ctx context.Context, url string) error {
	tool, err := a.probe.resolve(CapOpenURL, []string{"open"}, darwinInstallHint)
	if err != nil {
		return err
	}
	return a.run(ctx, tool, url)
}

func (a *darwinAdapter) TypeText(ctx context.Context, text string, charDelayMs int) error {
	tool, err := a.probe.resolve(CapTypeText, []string{"osascript"}, darwinInstallHint)
	if err != nil {
		return err
	}
	// System Events keystroke types at native speed; the per-character
	// delay is an X11-tool concept with no osascript equivalent.
	return a.run(ctx, tool, "-e", keystrokeScript(text))
}

func (a *darwinAdapter) PressEnter(ctx context.Context) error {
	tool, err := a.probe.resolve(CapPressEnter, []string{"osascript"}, darwinInstallHint)
	if err != nil {
		return err
	}
	return a.run(ctx, tool, "-e", enterScript())
}

func (a *darwinAdapter) ActivateWindow(ctx context.Context, appName string) error {
	tool, err := a.probe.resolve(CapActivate, []string{"osascript"}, darwinInstallHint)
	if err != nil {
		return err
	}
	return a.run(ctx, tool, "-e", activateScript(appName))
}

func (a *darwinAdapter) ShellCommand() (string, []string) {
	return "/bin/sh", []string{"-c"}
}

func (a *darwinAdapter) DelayedOpenURL(url string, delaySec int) (string, []string, error) {
	tool, err := a.probe.resolve(CapOpenURL, []string{"open"}, darwinInstallHint)
	if err != nil {
		return "", nil, err
	}
	return a.delayed(delaySec, joinShellCommand(tool, []string{url}))
}

func (a *darwinAdapter) DelayedTypeText(text string, delaySec, charDelayMs int) (string, []string, error) {
	tool, err := a.probe.resolve(CapTypeText, []string{"osascript"}, darwinInstallHint)
	if err != nil {
		return "", nil, err
	}
	return a.delayed(delaySec, joinShellCommand(tool, []string{"-e", keystrokeScript(text)}))
}

func (a *darwinAdapter) DelayedPressEnter(delaySec int) (string, []string, error) {
	tool, err := a.probe.resolve(CapPressEnter, []string{"osascript"}, darwinInstallHint)
	if err != nil {
		return "", nil, err
	}
	return a.delayed(delaySec, joinShellCommand(tool, []string{"-e", enterScript()}))
}

func (a *darwinAdapter) DelayedActivate(appName string, delaySec int) (string, []string, error) {
	tool, err := a.probe.resolve(CapActivate, []string{"osascript"}, darwinInstallHint)
	if err != nil {
		return "", nil, err
	}
	return a.delayed(delaySec, joinShellCommand(tool, []string{"-e", activateScript(appName)}))
}

func (a *darwinAdapter) delayed(delaySec int, commandLine string) (string, []string, error) {
	shell, shellArgs := a.ShellCommand()
	script := fmt.Sprintf("sleep %d && %s", delaySec, commandLine)
	return shell, append(shellArgs, script), nil
}

func (a *darwinAdapter) CheckRequirements() []Requirement {
	reqs := []Requirement{
		{Capability: CapOpenURL, Candidates: []string{"open"}, InstallVia: darwinInstallHint},
		{Capability: CapTypeText, Candidates: []string{"osascript"}, InstallVia: darwinInstallHint},
		{Capability: CapPressEnter, Candidates: []string{"osascript"}, InstallVia: darwinInstallHint},
		{Capability: CapActivate, Candidates: []string{"osascript"}, InstallVia: darwinInstallHint},
	}
	for i := range reqs {
		reqs[i].Tool, reqs[i].Satisfied = a.probe.available(reqs[i].Candidates)
	}
	return reqs
}

func keystrokeScript(text string) string {
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, appleScriptString(text))
}

func enterScript() string {
	return `tell application "System Events" to key code 36`
}

func activateScript(appName string) string {
	return fmt.Sprintf(`tell application "%s" to activate`, appleScriptString(appName))
}
