//go:build windows

package app

import "os"

var shutdownSignals = []os.Signal{os.Interrupt}

// terminateProcess kills the daemon. Windows has no SIGTERM, so the PID
// file is left for stopDaemon to remove.
func terminateProcess(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(os.Signal(nil)) == nil
}
