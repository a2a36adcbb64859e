//go:build windows

package schedule

import (
	"os/exec"
	"syscall"
)

// configureDetached detaches the command from the parent's console so it
// survives the parent's exit.
func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
