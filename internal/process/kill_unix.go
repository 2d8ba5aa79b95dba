//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the child in its own process group so a timeout
// can terminate it together with anything it spawned.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best-effort; Wait reports the outcome.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
