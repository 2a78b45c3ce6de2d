//go:build windows

package scan

import "os/exec"

// killGroup relies on the default cancellation, which kills only the
// direct child on Windows.
func killGroup(_ *exec.Cmd) {}
