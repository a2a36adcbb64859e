package platform

import (
	"context"
	"fmt"

	"github.com/mkendall/drover/internal/logging"
)

const windowsInstallHint = "PowerShell ships with Windows; check your PATH"

// windowsAdapter drives automation through PowerShell: Start-Process for
// URLs, Windows Forms SendKeys for keystrokes, and the WScript shell for
// window activation.
type windowsAdapter struct {
	logger *logging.Logger
	run    CommandRunner
	probe  *prober
}

func newWindowsAdapter(logger *logging.Logger) *windowsAdapter {
	return &windowsAdapter{
		logger: logger,
		run:    execRunner,
		probe:  newProber(),
	}
}

func (a *windowsAdapter) Name() string { return "windows" }

func (a *windowsAdapter) shellCandidates() []string {
	return []string{"powershell", "pwsh"}
}

func (a *windowsAdapter) resolveShell(capability string) (string, error) {
	return a.probe.resolve(capability, a.shellCandidates(), windowsInstallHint)
}

func (a *windowsAdapter) OpenURL(ctx context.Context, url string) error {
	shell, err := a.resolveShell(CapOpenURL)
	if err != nil {
		return err
	}
	return a.run(ctx, shell, "-NoProfile", "-Command", openURLScript(url))
}

func (a *windowsAdapter) TypeText(ctx context.Context, text string, charDelayMs int) error {
	shell, err := a.resolveShell(CapTypeText)
	if err != nil {
		return err
	}
	// SendKeys has no per-character delay; SendWait at least blocks until
	// the target has consumed the input.
	return a.run(ctx, shell, "-NoProfile", "-Command", sendKeysScript(text))
}

func (a *windowsAdapter) PressEnter(ctx context.Context) error {
	shell, err := a.resolveShell(CapPressEnter)
	if err != nil {
		return err
	}
	return a.run(ctx, shell, "-NoProfile", "-Command", sendKeysRawScript("{ENTER}"))
}

func (a *windowsAdapter) ActivateWindow(ctx context.Context, appName string) error {
	shell, err := a.resolveShell(CapActivate)
	if err != nil {
		return err
	}
	return a.run(ctx, shell, "-NoProfile", "-Command", activateAppScript(appName))
}

func (a *windowsAdapter) ShellCommand() (string, []string) {
	shell, err := a.resolveShell(CapOpenURL)
	if err != nil {
		shell = "powershell"
	}
	return shell, []string{"-NoProfile", "-Command"}
}

func (a *windowsAdapter) DelayedOpenURL(url string, delaySec int) (string, []string, error) {
	return a.delayed(CapOpenURL, delaySec, openURLScript(url))
}

func (a *windowsAdapter) DelayedTypeText(text string, delaySec, charDelayMs int) (string, []string, error) {
	return a.delayed(CapTypeText, delaySec, sendKeysScript(text))
}

func (a *windowsAdapter) DelayedPressEnter(delaySec int) (string, []string, error) {
	return a.delayed(CapPressEnter, delaySec, sendKeysRawScript("{ENTER}"))
}

func (a *windowsAdapter) DelayedActivate(appName string, delaySec int) (string, []string, error) {
	return a.delayed(CapActivate, delaySec, activateAppScript(appName))
}

func (a *windowsAdapter) delayed(capability string, delaySec int, script string) (string, []string, error) {
	shell, err := a.resolveShell(capability)
	if err != nil {
		return "", nil, err
	}
	full := fmt.Sprintf("Start-Sleep -Seconds %d; %s", delaySec, script)
	return shell, []string{"-NoProfile", "-Command", full}, nil
}

func (a *windowsAdapter) CheckRequirements() []Requirement {
	reqs := []Requirement{
		{Capability: CapOpenURL, Candidates: a.shellCandidates(), InstallVia: windowsInstallHint},
		{Capability: CapTypeText, Candidates: a.shellCandidates(), InstallVia: windowsInstallHint},
		{Capability: CapPressEnter, Candidates: a.shellCandidates(), InstallVia: windowsInstallHint},
		{Capability: CapActivate, Candidates: a.shellCandidates(), InstallVia: windowsInstallHint},
	}
	for i := range reqs {
		reqs[i].Tool, reqs[i].Satisfied = a.probe.available(reqs[i].Candidates)
	}
	return reqs
}

func openURLScript(url string) string {
	return fmt.Sprintf("Start-Process %s", powerShellQuote(url))
}

// sendKeysScript types arbitrary text: SendKeys metacharacters are escaped
// first, then the whole payload is quoted for PowerShell.
func sendKeysScript(text string) string {
	return sendKeysRawScript(sendKeysEscape(text))
}

// sendKeysRawScript sends a payload that may contain intentional SendKeys
// sequences like {ENTER}.
func sendKeysRawScript(keys string) string {
	return fmt.Sprintf(
		"Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait(%s)",
		powerShellQuote(keys),
	)
}

func activateAppScript(appName string) string {
	return fmt.Sprintf(
		"(New-Object -ComObject WScript.Shell).AppActivate(%s) | Out-Null",
		powerShellQuote(appName),
	)
}
