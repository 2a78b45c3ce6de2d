package watcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// fallbackOut receives alerts when no desktop notifier is available.
var fallbackOut io.Writer = os.Stderr

// Notify sends a desktop notification for the given alert. On macOS it uses
// osascript, on Linux it tries notify-send. If neither is available, it falls
// back to printing to stderr.
func Notify(alert Alert) error {
	switch runtime.GOOS {
	case "darwin":
		return notifyMacOS(alert)
	case "linux":
		return notifyLinux(alert)
	default:
		return notifyFallback(alert)
	}
}

func notifyMacOS(alert Alert) error {
	script := fmt.Sprintf(
		`display notification %q with title "healthsync" subtitle %q`,
		alert.Message, alert.Title,
	)
	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		return notifyFallback(alert)
	}
	return nil
}

func notifyLinux(alert Alert) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return notifyFallback(alert)
	}

	args := []string{"--app-name=healthsync"}
	if alert.Level == LevelCritical {
		args = append(args, "--urgency=critical")
	}
	args = append(args, "healthsync: "+alert.Title, alert.Message)
	if err := exec.Command("notify-send", args...).Run(); err != nil {
		return notifyFallback(alert)
	}
	return nil
}

func notifyFallback(alert Alert) error {
	_, err := fmt.Fprintf(fallbackOut, "[%s] %s: %s\n", alert.Level, alert.Title, alert.Message)
	return err
}
