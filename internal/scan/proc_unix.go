//go:build !windows

package scan

import (
	"os/exec"
	"syscall"
)

// killGroup runs the pipeline in its own process group and kills the whole
// group on cancellation, so tools it spawned do not outlive it.
func killGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
