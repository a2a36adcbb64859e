package platform

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mkendall/drover/internal/logging"
)

const linuxInstallHint = "your distribution's package manager (e.g. apt install xdotool)"

// linuxAdapter drives automation through whichever of the common Linux
// desktop tools is installed. Keystroke tool priority depends on the
// session type: Wayland compositors ignore X11 synthesis, so wtype and
// ydotool rank above xdotool there and below it on X11.
type linuxAdapter struct {
	logger *logging.Logger
	run    CommandRunner
	probe  *prober
	getenv func(string) string
}

func newLinuxAdapter(logger *logging.Logger) *linuxAdapter {
	return &linuxAdapter{
		logger: logger,
		run:    execRunner,
		probe:  newProber(),
		getenv: os.Getenv,
	}
}

func (a *linuxAdapter) Name() string { return "linux" }

func (a *linuxAdapter) wayland() bool {
	return a.getenv("WAYLAND_DISPLAY") != "" || a.getenv("XDG_SESSION_TYPE") == "wayland"
}

func (a *linuxAdapter) openCandidates() []string {
	return []string{"xdg-open", "gio", "gvfs-open", "kde-open5", "kde-open"}
}

func (a *linuxAdapter) keystrokeCandidates() []string {
	if a.wayland() {
		return []string{"wtype", "ydotool", "xdotool"}
	}
	return []string{"xdotool", "ydotool", "wtype"}
}

func (a *linuxAdapter) activateCandidates() []string {
	return []string{"xdotool", "wmctrl", "kdotool"}
}

func (a *linuxAdapter) OpenURL(ctx context.Context, url string) error {
	tool, err := a.probe.resolve(CapOpenURL, a.openCandidates(), linuxInstallHint)
	if err != nil {
		return err
	}
	return a.run(ctx, tool, openURLArgs(tool, url)...)
}

func (a *linuxAdapter) TypeText(ctx context.Context, text string, charDelayMs int) error {
	tool, err := a.probe.resolve(CapTypeText, a.keystrokeCandidates(), linuxInstallHint)
	if err != nil {
		return err
	}
	return a.run(ctx, tool, typeTextArgs(tool, text, charDelayMs)...)
}

func (a *linuxAdapter) PressEnter(ctx context.Context) error {
	tool, err := a.probe.resolve(CapPressEnter, a.keystrokeCandidates(), linuxInstallHint)
	if err != nil {
		return err
	}
	return a.run(ctx, tool, pressEnterArgs(tool)...)
}

func (a *linuxAdapter) ActivateWindow(ctx context.Context, appName string) error {
	tool, err := a.probe.resolve(CapActivate, a.activateCandidates(), linuxInstallHint)
	if err != nil {
		return err
	}
	return a.run(ctx, tool, activateArgs(tool, appName)...)
}

func (a *linuxAdapter) ShellCommand() (string, []string) {
	return "sh", []string{"-c"}
}

func (a *linuxAdapter) DelayedOpenURL(url string, delaySec int) (string, []string, error) {
	tool, err := a.probe.resolve(CapOpenURL, a.openCandidates(), linuxInstallHint)
	if err != nil {
		return "", nil, err
	}
	return a.delayed(delaySec, tool, openURLArgs(tool, url))
}

func (a *linuxAdapter) DelayedTypeText(text string, delaySec, charDelayMs int) (string, []string, error) {
	tool, err := a.probe.resolve(CapTypeText, a.keystrokeCandidates(), linuxInstallHint)
	if err != nil {
		return "", nil, err
	}
	return a.delayed(delaySec, tool, typeTextArgs(tool, text, charDelayMs))
}

func (a *linuxAdapter) DelayedPressEnter(delaySec int) (string, []string, error) {
	tool, err := a.probe.resolve(CapPressEnter, a.keystrokeCandidates(), linuxInstallHint)
	if err != nil {
		return "", nil, err
	}
	return a.delayed(delaySec, tool, pressEnterArgs(tool))
}

func (a *linuxAdapter) DelayedActivate(appName string, delaySec int) (string, []string, error) {
	tool, err := a.probe.resolve(CapActivate, a.activateCandidates(), linuxInstallHint)
	if err != nil {
		return "", nil, err
	}
	return a.delayed(delaySec, tool, activateArgs(tool, appName))
}

// delayed wraps a resolved tool invocation in a sleep-then-run shell
// command suitable for detached spawning.
func (a *linuxAdapter) delayed(delaySec int, tool string, args []string) (string, []string, error) {
	shell, shellArgs := a.ShellCommand()
	script := fmt.Sprintf("sleep %d && %s", delaySec, joinShellCommand(tool, args))
	return shell, append(shellArgs, script), nil
}

func (a *linuxAdapter) CheckRequirements() []Requirement {
	reqs := []Requirement{
		{Capability: CapOpenURL, Candidates: a.openCandidates(), InstallVia: linuxInstallHint},
		{Capability: CapTypeText, Candidates: a.keystrokeCandidates(), InstallVia: linuxInstallHint},
		{Capability: CapPressEnter, Candidates: a.keystrokeCandidates(), InstallVia: linuxInstallHint},
		{Capability: CapActivate, Candidates: a.activateCandidates(), InstallVia: linuxInstallHint},
	}
	for i := range reqs {
		reqs[i].Tool, reqs[i].Satisfied = a.probe.available(reqs[i].Candidates)
	}
	return reqs
}

func openURLArgs(tool, url string) []string {
	if tool == "gio" {
		return []string{"open", url}
	}
	return []string{url}
}

func typeTextArgs(tool, text string, charDelayMs int) []string {
	delay := strconv.Itoa(charDelayMs)
	switch tool {
	case "xdotool":
		return []string{"type", "--delay", delay, "--", text}
	case "ydotool":
		return []string{"type", "--key-delay", delay, "--", text}
	default: // wtype
		return []string{"-d", delay, text}
	}
}

func pressEnterArgs(tool string) []string {
	switch tool {
	case "xdotool":
		return []string{"key", "Return"}
	case "ydotool":
		// 28 is KEY_ENTER; press then release.
		return []string{"key", "28:1", "28:0"}
	default: // wtype
		return []string{"-k", "Return"}
	}
}

func activateArgs(tool, appName string) []string {
	switch tool {
	case "wmctrl":
		return []string{"-a", appName}
	default: // xdotool, kdotool share the search syntax
		return []string{"search", "--name", appName, "windowactivate"}
	}
}

// joinShellCommand renders a tool invocation as a single-quoted sh command
// line, using the same quoting the immediate path would rely on.
func joinShellCommand(tool string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, tool)
	for _, arg := range args {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}
