//go:build !windows

package schedule

import (
	"os/exec"
	"syscall"
)

// configureDetached puts the command in its own session so it survives the
// parent's exit and does not receive its signals.
func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
